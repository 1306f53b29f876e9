package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/yassi/dj-redis-panel/lib/panel"
)

// --------------------------------------------------------------------------
// Resolver
// --------------------------------------------------------------------------

// Resolve merges the global settings with one instance's overrides into an
// immutable Effective configuration. It is a pure function over its inputs
// and safe to call redundantly; callers may cache the result keyed by
// instance name.
//
// Precedence (highest first): instance Features > instance top-level keys >
// global settings > hard-coded defaults.
func Resolve(settings *Settings, name string) (*Effective, error) {
	if settings == nil || len(settings.Instances) == 0 {
		return nil, panel.NewError(panel.RetCConfig, "no instances configured")
	}

	inst, ok := settings.Instances[name]
	if !ok {
		return nil, panel.NewErrorf(panel.RetCNotFound, "instance %q not found", name)
	}

	if err := validateTarget(name, &inst); err != nil {
		return nil, err
	}
	if err := validateFeatures(name, inst.Features); err != nil {
		return nil, err
	}

	eff := &Effective{
		Name:        name,
		Description: inst.Description,
		URL:         inst.URL,
		Password:    inst.Password,
		DB:          inst.DB,
	}
	if inst.URL == "" {
		eff.Addr = fmt.Sprintf("%s:%d", inst.Host, inst.Port)
	}

	// Timeouts and encoder: instance key > global setting > default.
	st, err := resolveTimeout(name, "socket_timeout", inst.SocketTimeout, settings.SocketTimeout, DefaultSocketTimeout)
	if err != nil {
		return nil, err
	}
	ct, err := resolveTimeout(name, "socket_connect_timeout", inst.SocketConnectTimeout, settings.SocketConnectTimeout, DefaultSocketConnectTimeout)
	if err != nil {
		return nil, err
	}
	eff.SocketTimeout = st
	eff.SocketConnectTimeout = ct

	eff.Encoder = DefaultEncoder
	if settings.Encoder != "" {
		eff.Encoder = settings.Encoder
	}
	if inst.Encoder != "" {
		eff.Encoder = inst.Encoder
	}

	// Feature flags: instance features map > global setting > default.
	eff.AllowKeyDelete = resolveFlag(inst.Features, FlagAllowKeyDelete, settings.AllowKeyDelete)
	eff.AllowKeyEdit = resolveFlag(inst.Features, FlagAllowKeyEdit, settings.AllowKeyEdit)
	eff.AllowTTLUpdate = resolveFlag(inst.Features, FlagAllowTTLUpdate, settings.AllowTTLUpdate)
	eff.CursorPaginatedScan = resolveFlag(inst.Features, FlagCursorPaginatedScan, settings.CursorPaginatedScan)
	eff.CursorPaginatedCollections = resolveFlag(inst.Features, FlagCursorPaginatedCollections, settings.CursorPaginatedCollections)

	return eff, nil
}

// ResolveAll resolves every configured instance. Resolution is all or
// nothing: a single malformed instance fails the whole call, so
// configuration errors surface at startup instead of at first use.
func ResolveAll(settings *Settings) (map[string]*Effective, error) {
	if settings == nil || len(settings.Instances) == 0 {
		return nil, panel.NewError(panel.RetCConfig, "no instances configured")
	}

	resolved := make(map[string]*Effective, len(settings.Instances))
	for _, name := range InstanceNames(settings) {
		eff, err := Resolve(settings, name)
		if err != nil {
			return nil, err
		}
		resolved[name] = eff
	}
	return resolved, nil
}

// InstanceNames returns the configured instance names in sorted order.
func InstanceNames(settings *Settings) []string {
	names := make([]string, 0, len(settings.Instances))
	for name := range settings.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --------------------------------------------------------------------------
// Validation Helpers
// --------------------------------------------------------------------------

// validateTarget enforces that exactly one of (host+port) or url is given.
func validateTarget(name string, inst *Instance) error {
	hasHostPort := inst.Host != "" || inst.Port != 0
	hasURL := inst.URL != ""

	switch {
	case hasHostPort && hasURL:
		return panel.NewErrorf(panel.RetCConfig,
			"instance %q: host/port and url are mutually exclusive", name)
	case !hasHostPort && !hasURL:
		return panel.NewErrorf(panel.RetCConfig,
			"instance %q: either host and port or url must be set", name)
	case hasHostPort && (inst.Host == "" || inst.Port <= 0):
		return panel.NewErrorf(panel.RetCConfig,
			"instance %q: host and port must both be set", name)
	}

	if inst.DB < 0 {
		return panel.NewErrorf(panel.RetCConfig, "instance %q: db must not be negative", name)
	}
	return nil
}

// validateFeatures rejects unknown flag names instead of silently ignoring
// them, so typos in operator configuration fail fast.
func validateFeatures(name string, features map[string]bool) error {
	for flag := range features {
		if !knownFlags[flag] {
			return panel.NewErrorf(panel.RetCConfig,
				"instance %q: unknown feature flag %q", name, flag)
		}
	}
	return nil
}

func resolveTimeout(name, key string, instance, global *float64, fallback float64) (time.Duration, error) {
	seconds := fallback
	if global != nil {
		seconds = *global
	}
	if instance != nil {
		seconds = *instance
	}
	if seconds <= 0 {
		return 0, panel.NewErrorf(panel.RetCConfig,
			"instance %q: %s must be positive, got %v", name, key, seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func resolveFlag(features map[string]bool, flag string, global *bool) bool {
	if value, ok := features[flag]; ok {
		return value
	}
	if global != nil {
		return *global
	}
	return defaultFlags[flag]
}
