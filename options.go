/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package indexregistry

import (
	"io"
	"log/slog"
)

// Options configures a Registry
type Options struct {
	Logger *slog.Logger
	// ListLimit bounds Content; non-positive means the client default.
	ListLimit int
	// Table lets a caller supply the section table, e.g. to inspect it in tests.
	Table *IndexTable
}

// Option is a functional option for configuring a Registry
type Option func(*Options)

// DefaultOptions returns options with a logger that discards output
func DefaultOptions() Options {
	return Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithListLimit sets the maximum number of entries returned by Content
func WithListLimit(limit int) Option {
	return func(opts *Options) {
		opts.ListLimit = limit
	}
}

// WithIndexTable sets the section table owned by the registry
func WithIndexTable(table *IndexTable) Option {
	return func(opts *Options) {
		opts.Table = table
	}
}
