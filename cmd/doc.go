// Package cmd implements the command-line interface for redis-panel. It
// provides a hierarchical command structure for browsing and mutating the
// keyspaces of one or many configured Redis instances.
//
// The package is organized into several subpackages:
//
//   - keys: Commands for key browsing and mutation (search, get, set, del, ttl, ...)
//   - seed: Command for filling a database with sample data
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See redis-panel -help for a list of all commands.
package cmd
