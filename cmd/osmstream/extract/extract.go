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

// Package extract implements the extract command, which copies the part of
// an OSM file lying inside a bounding box or polygon.
package extract

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"m4o.io/osmstream"
	"m4o.io/osmstream/cmd/osmstream/cli"
	"m4o.io/osmstream/filter"
	"m4o.io/osmstream/pbf"
)

var (
	input        *os.File
	output       string
	bound        orb.Bound
	polygon      string
	completeWays bool
	compression  pbf.Compression
)

func init() {
	cli.RootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()
	flags.VarP(cli.NewReaderValue(os.Stdin, &input, "file"), "input", "i", "OSM file to read, PBF unless it ends in .osm")
	flags.StringVarP(&output, "output", "o", "-", "OSM file to write, PBF unless it ends in .osm")
	flags.Var(cli.NewBoundValue(&bound), "bbox", "bounding box as minlon,minlat,maxlon,maxlat")
	flags.StringVar(&polygon, "polygon", "", "GeoJSON file holding the polygon to extract")
	flags.BoolVar(&completeWays, "complete-ways", false, "keep every node of the ways crossing the area")
	flags.Var(cli.NewCompressionValue(pbf.DefaultBlobCompression, &compression), "compression", "blob compression of PBF output")

	extractCmd.MarkFlagsMutuallyExclusive("bbox", "polygon")
	extractCmd.MarkFlagsOneRequired("bbox", "polygon")
}

var extractCmd = &cobra.Command{
	Use:   "extract --bbox minlon,minlat,maxlon,maxlat [-i in.pbf] [-o out.pbf]",
	Short: "Extract the part of an OSM file inside an area",
	Long: `Extract the nodes inside an area.  Ways and relations are copied as they
are, unless --complete-ways is given: only the ways with a node inside the
area are then kept, along with all of their nodes.  --complete-ways reads the
input twice, so it cannot be a pipe.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		in, err := cli.WrapInputFile(input)
		if err != nil {
			log.Fatal(err)
		}

		out, err := cli.CreateOutputFile(output)
		if err != nil {
			log.Fatal(err)
		}

		poly, err := area(bound, polygon)
		if err != nil {
			log.Fatal(err)
		}

		cfg := config{
			area:         poly,
			completeWays: completeWays,
			compression:  compression,
			logger:       cli.Logger(cmd),
		}

		if err := runExtract(in, cli.InputName(input), out, output, cfg); err != nil {
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

type config struct {
	area         orb.Polygon
	completeWays bool
	compression  pbf.Compression
	logger       *slog.Logger
}

// area returns the polygon read from the GeoJSON file named path, or the
// polygon of bound when no file is named.
func area(bound orb.Bound, path string) (orb.Polygon, error) {
	if path == "" {
		return bound.ToPolygon(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parsePolygon(data)
}

// parsePolygon accepts a GeoJSON polygon, alone or as the geometry of a
// feature.
func parsePolygon(data []byte) (orb.Polygon, error) {
	var g orb.Geometry

	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		g = f.Geometry
	} else {
		geom, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing polygon: %w", err)
		}

		g = geom.Geometry()
	}

	poly, ok := g.(orb.Polygon)
	if !ok {
		return nil, fmt.Errorf("expected a polygon but got a %s", g.GeoJSONType())
	}

	if len(poly) == 0 {
		return nil, errors.New("polygon has no rings")
	}

	return poly, nil
}

func runExtract(in io.Reader, inName string, out io.Writer, outName string, cfg config) error {
	src := cli.NewSource(in, inName, cfg.logger)
	defer src.Close()

	opts := []filter.Option{filter.WithLogger(cfg.logger)}
	if cfg.completeWays {
		opts = append(opts, filter.WithCompleteWays())
	}

	f := filter.NewSpatialFilter(src, cfg.area, opts...)
	tgt := cli.NewTarget(out, outName, cli.TargetConfig{
		Compression: cfg.compression,
		BoundingBox: cli.BoundingBox(cfg.area.Bound()),
		Logger:      cfg.logger,
	})

	if err := osmstream.Pull(f, tgt, osmstream.IgnoreNone); err != nil {
		_ = tgt.Close()

		return err
	}

	return tgt.Close()
}
