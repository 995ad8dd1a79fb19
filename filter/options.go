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

// Package filter holds sources that wrap another osmstream.Source and pass
// on a subset, or a transformation, of its entities.  Filters are sources
// themselves and can be chained.
package filter

import (
	"log/slog"
)

// filterOptions provides optional configuration parameters for filters.
type filterOptions struct {
	completeWays bool
	logger       *slog.Logger
}

// Option configures a filter.
type Option func(*filterOptions)

// WithCompleteWays makes a node filter keep every way that has at least one
// accepted node, together with all of that way's nodes.  This needs two
// passes over the upstream source, which therefore has to be resettable.
func WithCompleteWays() Option {
	return func(o *filterOptions) {
		o.completeWays = true
	}
}

// WithLogger lets you set the logger a filter reports to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *filterOptions) {
		o.logger = logger
	}
}

func defaultFilterConfig() filterOptions {
	return filterOptions{
		logger: slog.Default(),
	}
}
