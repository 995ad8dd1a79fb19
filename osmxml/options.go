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

package osmxml

import (
	"context"
	"log/slog"
)

type readerOptions struct {
	ctx    context.Context
	logger *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerOptions)

// WithContext sets the context of the underlying scanner.  Cancelling it
// ends the stream with the context's error.
func WithContext(ctx context.Context) ReaderOption {
	return func(o *readerOptions) {
		o.ctx = ctx
	}
}

// WithLogger lets you set the logger the reader reports to.
func WithLogger(logger *slog.Logger) ReaderOption {
	return func(o *readerOptions) {
		o.logger = logger
	}
}

type writerOptions struct {
	generator string
	indent    string
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithGenerator sets the generator attribute of the osm element.
func WithGenerator(generator string) WriterOption {
	return func(o *writerOptions) {
		o.generator = generator
	}
}

// WithIndent sets the indentation of nested elements.  An empty indent
// writes every element on one line.
func WithIndent(indent string) WriterOption {
	return func(o *writerOptions) {
		o.indent = indent
	}
}
