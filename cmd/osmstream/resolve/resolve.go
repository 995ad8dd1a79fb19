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

// Package resolve implements the resolve command, which assembles the
// complete ways and relations of an OSM file and reports how many were
// built.
package resolve

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"m4o.io/osmstream"
	"m4o.io/osmstream/cmd/osmstream/cli"
	"m4o.io/osmstream/complete"
	"m4o.io/osmstream/filter"
	"m4o.io/osmstream/model"
	"m4o.io/osmstream/store"
)

var out io.Writer = os.Stdout

var (
	input      *os.File
	storeDir   string
	cacheSize  int
	skipErrors bool
)

func init() {
	cli.RootCmd.AddCommand(resolveCmd)

	flags := resolveCmd.Flags()
	flags.VarP(cli.NewReaderValue(os.Stdin, &input, "file"), "input", "i", "OSM file to read, PBF unless it ends in .osm")
	flags.StringVar(&storeDir, "store", "", "directory of a LevelDB store used instead of memory")
	flags.IntVar(&cacheSize, "cache", 64*1024*1024, "size in bytes of the cache in front of the store")
	flags.BoolVar(&skipErrors, "skip-errors", false, "skip objects that cannot be completed instead of failing")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [-i in.pbf] [--store dir]",
	Short: "Assemble complete ways and relations",
	Long: `Assemble the complete ways and relations of an OSM file and count them.
Referenced entities are kept in memory, or in a LevelDB store when --store is
given.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		in, err := cli.WrapInputFile(input)
		if err != nil {
			log.Fatal(err)
		}

		cfg := config{
			storeDir:   storeDir,
			cacheSize:  cacheSize,
			skipErrors: skipErrors,
			logger:     cli.Logger(cmd),
		}

		c, err := runResolve(in, cli.InputName(input), cfg)
		if err != nil {
			log.Fatal(err)
		}

		if err := in.Close(); err != nil {
			log.Fatal(err)
		}

		renderTxt(c)
	},
}

type config struct {
	storeDir   string
	cacheSize  int
	skipErrors bool
	logger     *slog.Logger
}

type counts struct {
	Nodes     int64
	Ways      int64
	Relations int64
	Skipped   int64

	// BoundingBox covers every resolved entity, nil when nothing was resolved.
	BoundingBox *model.BoundingBox
	// WayLength is the total great circle length of the complete ways in km.
	WayLength float64
}

func runResolve(in io.Reader, inName string, cfg config) (*counts, error) {
	c := &counts{}

	reader := cli.NewSource(in, inName, cfg.logger)
	defer reader.Close()

	var src osmstream.Source = reader

	opts := []complete.Option{complete.WithLogger(cfg.logger)}

	if cfg.skipErrors {
		opts = append(opts,
			complete.WithErrorPolicy(complete.SkipOnError),
			complete.WithErrorHandler(func(error) { c.Skipped++ }))
	}

	var storeErr error

	if cfg.storeDir != "" {
		db, err := store.OpenLevelDB(cfg.storeDir, store.WithLogger(cfg.logger))
		if err != nil {
			return nil, err
		}
		defer db.Close()

		// every entity is stored before it is resolved
		src = filter.NewDelegateFilter(src, func(e model.Entity) model.Entity {
			if err := osmstream.Dispatch(db, e); err != nil {
				if storeErr == nil {
					storeErr = err
				}

				return nil
			}

			return e
		})

		opts = append(opts, complete.WithLookup(store.NewCache(db, cfg.cacheSize)))
	}

	r := complete.NewResolver(src, opts...)
	if err := r.Initialize(); err != nil {
		return nil, err
	}

	bbox := model.InitialBoundingBox()

	for r.MoveNext(osmstream.IgnoreNone) {
		ce := r.Current()

		switch e := ce.(type) {
		case *model.Node:
			c.Nodes++
		case *model.CompleteWay:
			c.Ways++
			c.WayLength += e.Length().Kilometers()
		case *model.CompleteRelation:
			c.Relations++
		}

		bbox.ExpandWithBoundingBox(model.BoundingBoxOf(ce))
	}

	if !bbox.IsEmpty() {
		c.BoundingBox = bbox
	}

	if storeErr != nil {
		return nil, fmt.Errorf("error storing entities: %w", storeErr)
	}

	if err := r.Err(); err != nil {
		return nil, err
	}

	return c, nil
}

func renderTxt(c *counts) {
	fmt.Fprintf(out, "Nodes: %s\n", humanize.Comma(c.Nodes))
	fmt.Fprintf(out, "CompleteWays: %s\n", humanize.Comma(c.Ways))
	fmt.Fprintf(out, "CompleteRelations: %s\n", humanize.Comma(c.Relations))
	fmt.Fprintf(out, "Skipped: %s\n", humanize.Comma(c.Skipped))
	fmt.Fprintf(out, "WayLength: %s km\n", humanize.CommafWithDigits(c.WayLength, 3))

	if c.BoundingBox != nil {
		fmt.Fprintf(out, "BoundingBox: %s\n", c.BoundingBox)
	}
}
