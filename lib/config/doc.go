// Package config implements the configuration resolver of the panel engine.
// It merges global defaults, per-instance overrides and feature flags into
// one immutable Effective configuration per instance.
//
// Key Components:
//
//   - Settings: the nested configuration input. It is supplied once at
//     process startup by the host application (the CLI loads it via viper
//     from a YAML file and environment variables); the engine never reads
//     configuration from disk itself.
//
//   - Instance: one configured Redis endpoint, addressed either by
//     host/port/password or by a single redis:// / rediss:// URL. The two
//     forms are mutually exclusive and the resolver rejects configurations
//     that supply both or neither.
//
//   - Effective: the merge result. It is computed once, never mutated and
//     passed explicitly into the registry, the pagination engine and the
//     inspector. Reconfiguration produces a new Effective value; nothing is
//     patched in place.
//
// Precedence, highest first:
//
//  1. instance-level "features" map
//  2. instance-level top-level keys (timeouts, encoder)
//  3. global settings
//  4. hard-coded defaults
//
// Unknown feature-flag names are rejected rather than ignored so that a
// typo in operator configuration is caught at startup and not discovered
// as a silently-inactive flag in production.
package config
