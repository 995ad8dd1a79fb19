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

	"m4o.io/osmstream/internal/core"
)

const (
	// DefaultBufferSize is the default buffer size for protobuf un-marshaling.
	DefaultBufferSize = core.DefaultBufferSize
)

// readerOptions provides optional configuration parameters for Reader construction.
type readerOptions struct {
	protoBufferSize int // buffer size for protobuf un-marshaling
	logger          *slog.Logger
}

// ReaderOption configures how we set up the reader.
type ReaderOption func(*readerOptions)

// WithProtoBufferSize lets you set the initial buffer size for blob
// decompression.  The buffer grows as needed.
func WithProtoBufferSize(s int) ReaderOption {
	return func(o *readerOptions) {
		o.protoBufferSize = s
	}
}

// WithLogger lets you set the logger the reader reports to.
func WithLogger(logger *slog.Logger) ReaderOption {
	return func(o *readerOptions) {
		o.logger = logger
	}
}

// defaultReaderConfig provides a default configuration for readers.
func defaultReaderConfig() readerOptions {
	return readerOptions{
		protoBufferSize: DefaultBufferSize,
		logger:          slog.Default(),
	}
}
