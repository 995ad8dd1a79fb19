// Copyright 2026 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package convert implements the convert command, which copies an OSM file
// between the PBF and XML formats.
package convert

import (
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"m4o.io/osmstream"
	"m4o.io/osmstream/cmd/osmstream/cli"
	"m4o.io/osmstream/model"
	"m4o.io/osmstream/pbf"
)

var (
	input       *os.File
	output      string
	compression pbf.Compression
)

func init() {
	cli.RootCmd.AddCommand(convertCmd)

	flags := convertCmd.Flags()
	flags.VarP(cli.NewReaderValue(os.Stdin, &input, "file"), "input", "i", "OSM file to read, PBF unless it ends in .osm")
	flags.StringVarP(&output, "output", "o", "-", "OSM file to write, PBF unless it ends in .osm")
	flags.Var(cli.NewCompressionValue(pbf.DefaultBlobCompression, &compression), "compression", "blob compression of PBF output")
}

var convertCmd = &cobra.Command{
	Use:   "convert [-i in.pbf] [-o out.osm]",
	Short: "Convert an OSM file between PBF and XML",
	Long:  "Convert an OSM file between PBF and XML, picking formats by file extension",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		in, err := cli.WrapInputFile(input)
		if err != nil {
			log.Fatal(err)
		}

		out, err := cli.CreateOutputFile(output)
		if err != nil {
			log.Fatal(err)
		}

		if err := runConvert(in, cli.InputName(input), out, output, compression, cli.Logger(cmd)); err != nil {
			log.Fatal(err)
		}

		if err := in.Close(); err != nil {
			log.Fatal(err)
		}

		if err := out.Close(); err != nil {
			log.Fatal(err)
		}
	},
}

func runConvert(in io.Reader, inName string, out io.Writer, outName string, compression pbf.Compression, logger *slog.Logger) error {
	src := cli.NewSource(in, inName, logger)
	defer src.Close()

	if err := src.Initialize(); err != nil {
		return err
	}

	cfg := cli.TargetConfig{Compression: compression, Logger: logger}

	// carry the bounding box over from a PBF header
	if r, ok := src.(*pbf.Reader); ok {
		cfg.BoundingBox = r.Header().BoundingBox
	}

	if cfg.BoundingBox == nil && src.CanReset() {
		bbox, err := scanBoundingBox(src)
		if err != nil {
			return err
		}

		cfg.BoundingBox = bbox
	}

	tgt := cli.NewTarget(out, outName, cfg)

	if err := copyEntities(src, tgt); err != nil {
		_ = tgt.Close()

		return err
	}

	return tgt.Close()
}

// scanBoundingBox reads the nodes of src for their extent and rewinds it. A
// source without nodes has no bounding box.
func scanBoundingBox(src osmstream.Source) (*model.BoundingBox, error) {
	bbox := model.InitialBoundingBox()

	for src.MoveNext(osmstream.Ignore{Ways: true, Relations: true}) {
		if n, ok := src.Current().(*model.Node); ok {
			bbox.ExpandWithLatLng(n.Lat, n.Lon)
		}
	}

	if err := src.Err(); err != nil {
		return nil, err
	}

	if err := src.Reset(); err != nil {
		return nil, err
	}

	if bbox.IsEmpty() {
		return nil, nil
	}

	return bbox, nil
}

func copyEntities(src osmstream.Source, tgt osmstream.Target) error {
	if err := tgt.Initialize(); err != nil {
		return err
	}

	for src.MoveNext(osmstream.IgnoreNone) {
		if err := osmstream.Dispatch(tgt, src.Current()); err != nil {
			return err
		}
	}

	return src.Err()
}
