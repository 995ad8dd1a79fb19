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

package cli

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"m4o.io/osmstream"
	"m4o.io/osmstream/model"
	"m4o.io/osmstream/osmxml"
	"m4o.io/osmstream/pbf"
)

// Source is a source holding buffers or scanners that Close releases.
type Source interface {
	osmstream.Source
	io.Closer
}

// IsXML reports whether name is that of an OSM XML file.
func IsXML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".osm", ".xml":
		return true
	default:
		return false
	}
}

// NewSource returns a source reading rdr as OSM XML when name is that of an
// XML file, and as PBF otherwise.
func NewSource(rdr io.Reader, name string, logger *slog.Logger) Source {
	if IsXML(name) {
		return osmxml.NewReader(rdr, osmxml.WithLogger(logger))
	}

	return pbf.NewReader(rdr, pbf.WithLogger(logger))
}

// TargetConfig configures the targets returned by NewTarget.
type TargetConfig struct {
	Compression pbf.Compression
	BoundingBox *model.BoundingBox
	Logger      *slog.Logger
}

// NewTarget returns a target writing OSM XML to wrtr when name is that of an
// XML file, and PBF otherwise.
func NewTarget(wrtr io.Writer, name string, cfg TargetConfig) osmstream.Target {
	if IsXML(name) {
		return osmxml.NewWriter(wrtr)
	}

	opts := []pbf.WriterOption{pbf.WithCompression(cfg.Compression)}

	if cfg.BoundingBox != nil {
		opts = append(opts, pbf.WithBoundingBox(cfg.BoundingBox))
	}

	if cfg.Logger != nil {
		opts = append(opts, pbf.WithWriterLogger(cfg.Logger))
	}

	return pbf.NewWriter(wrtr, opts...)
}
