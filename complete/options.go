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

package complete

import (
	"log/slog"

	"m4o.io/osmstream"
)

// ErrorPolicy selects what a resolver does with an entity it cannot
// complete.
type ErrorPolicy int

const (
	// AbortOnError ends the stream with the error.
	AbortOnError ErrorPolicy = iota

	// SkipOnError reports the error and moves on to the next entity.
	SkipOnError
)

func (p ErrorPolicy) String() string {
	switch p {
	case AbortOnError:
		return "abort"
	case SkipOnError:
		return "skip"
	default:
		return "unknown"
	}
}

// resolverOptions provides optional configuration parameters for Resolver
// construction.
type resolverOptions struct {
	lookup  osmstream.GeoSource
	policy  ErrorPolicy
	handler func(error)
	logger  *slog.Logger
}

// Option configures a resolver.
type Option func(*resolverOptions)

// WithLookup makes the resolver look referenced entities up in lookup
// instead of in a Buffer of everything it has read.
func WithLookup(lookup osmstream.GeoSource) Option {
	return func(o *resolverOptions) {
		o.lookup = lookup
	}
}

// WithErrorPolicy sets the error policy.  The default is AbortOnError.
func WithErrorPolicy(policy ErrorPolicy) Option {
	return func(o *resolverOptions) {
		o.policy = policy
	}
}

// WithErrorHandler sets a function called with every error skipped under
// SkipOnError.
func WithErrorHandler(handler func(error)) Option {
	return func(o *resolverOptions) {
		o.handler = handler
	}
}

// WithLogger lets you set the logger the resolver reports to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolverOptions) {
		o.logger = logger
	}
}

func defaultResolverConfig() resolverOptions {
	return resolverOptions{
		policy:  AbortOnError,
		handler: func(error) {},
		logger:  slog.Default(),
	}
}
