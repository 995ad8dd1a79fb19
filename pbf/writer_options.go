// Copyright 2017-26 the original author or authors.
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

package pbf

import (
	"log/slog"
	"runtime"
	"time"

	"m4o.io/osmstream/internal/encoder"
	"m4o.io/osmstream/model"
)

const (
	DefaultBlobCompression = encoder.ZLIB

	// DefaultWritingProgram is written to the header unless replaced with
	// WithWritingProgram.
	DefaultWritingProgram = "osmstream"
)

// Compression is the compression applied to written blobs.
type Compression = encoder.BlobCompression

const (
	RAW  = encoder.RAW
	ZLIB = encoder.ZLIB
	LZMA = encoder.LZMA
	LZ4  = encoder.LZ4
	ZSTD = encoder.ZSTD
)

// ParseCompression converts a name such as "zlib" into a Compression.
func ParseCompression(s string) (Compression, error) {
	return encoder.ParseCompression(s)
}

// writerOptions provides optional configuration parameters for Writer construction.
type writerOptions struct {
	compression encoder.BlobCompression
	nCPU        int // the number of CPUs to use for background processing
	logger      *slog.Logger

	header model.Header
}

// WriterOption configures how we set up the writer.
type WriterOption func(*writerOptions)

// WithCompression specifies the compression algorithm to use when encoding
// PBF blobs.  The default is ZLIB.
func WithCompression(compression Compression) WriterOption {
	return func(o *writerOptions) {
		o.compression = compression
	}
}

// WithNCpus sets the number of blocks encoded and compressed concurrently.
func WithNCpus(n int) WriterOption {
	return func(o *writerOptions) {
		if n > 0 {
			o.nCPU = n
		}
	}
}

// WithWriterLogger lets you set the logger the writer reports to.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(o *writerOptions) {
		o.logger = logger
	}
}

// WithBoundingBox sets the bounding box of the PBF header.
func WithBoundingBox(bbox *model.BoundingBox) WriterOption {
	return func(o *writerOptions) {
		o.header.BoundingBox = bbox
	}
}

// WithRequiredFeatures replaces the required features of the PBF header.
// The default is OsmSchema-V0.6 and DenseNodes.
func WithRequiredFeatures(features ...string) WriterOption {
	return func(o *writerOptions) {
		o.header.RequiredFeatures = features
	}
}

// WithOptionalFeatures sets the optional features of the PBF header.
func WithOptionalFeatures(features ...string) WriterOption {
	return func(o *writerOptions) {
		o.header.OptionalFeatures = append(o.header.OptionalFeatures, features...)
	}
}

// WithWritingProgram sets the writing program of the PBF header.
func WithWritingProgram(program string) WriterOption {
	return func(o *writerOptions) {
		o.header.WritingProgram = program
	}
}

// WithSource sets the source of the PBF header.
func WithSource(source string) WriterOption {
	return func(o *writerOptions) {
		o.header.Source = source
	}
}

// WithOsmosisReplicationTimestamp sets the Osmosis replication timestamp of
// the PBF header.
func WithOsmosisReplicationTimestamp(timestamp time.Time) WriterOption {
	return func(o *writerOptions) {
		o.header.OsmosisReplicationTimestamp = timestamp
	}
}

// WithOsmosisReplicationSequenceNumber sets the Osmosis replication sequence
// number of the PBF header.
func WithOsmosisReplicationSequenceNumber(sequenceNumber int64) WriterOption {
	return func(o *writerOptions) {
		o.header.OsmosisReplicationSequenceNumber = sequenceNumber
	}
}

// WithOsmosisReplicationBaseURL sets the Osmosis replication base URL of the
// PBF header.
func WithOsmosisReplicationBaseURL(url string) WriterOption {
	return func(o *writerOptions) {
		o.header.OsmosisReplicationBaseURL = url
	}
}

// WithHeader copies every field of hdr into the PBF header.  Options given
// after it override single fields.
func WithHeader(hdr model.Header) WriterOption {
	return func(o *writerOptions) {
		o.header = hdr
	}
}

// defaultWriterConfig provides a default configuration for writers.
func defaultWriterConfig() writerOptions {
	return writerOptions{
		compression: DefaultBlobCompression,
		nCPU:        runtime.GOMAXPROCS(-1),
		logger:      slog.Default(),
		header: model.Header{
			RequiredFeatures: []string{"OsmSchema-V0.6", "DenseNodes"},
			WritingProgram:   DefaultWritingProgram,
		},
	}
}
