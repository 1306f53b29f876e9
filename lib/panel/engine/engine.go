package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/redis/go-redis/v9"

	"github.com/yassi/dj-redis-panel/lib/config"
	"github.com/yassi/dj-redis-panel/lib/panel"
	"github.com/yassi/dj-redis-panel/lib/panel/codec"
	"github.com/yassi/dj-redis-panel/lib/panel/registry"
	"github.com/yassi/dj-redis-panel/lib/panel/scan"
)

// --------------------------------------------------------------------------
// Engine
// --------------------------------------------------------------------------

// instanceState bundles everything resolved once per instance: the
// immutable effective configuration and the codec built from its encoder.
type instanceState struct {
	eff   *config.Effective
	codec *codec.Codec
}

// Engine is the façade of the panel: it composes the configuration
// resolver, the connection registry, the pagination engine and the codec
// into the operation surface the external UI/CLI layer is built against.
//
// The engine is stateless per request and safe for concurrent use. The
// only shared state is the resolved configuration (read-only between
// reloads) and the registry's cached connection handles.
type Engine struct {
	mu        sync.RWMutex
	instances map[string]*instanceState
	registry  *registry.Registry
}

// New resolves every configured instance and returns a ready engine.
// Resolution failures are configuration errors and fail startup; nothing
// is connected yet (handles are built lazily on first use).
func New(settings *config.Settings) (*Engine, error) {
	e := &Engine{registry: registry.New()}
	if err := e.Reload(settings); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload re-resolves the configuration and invalidates every cached
// connection handle, so subsequent requests run against the new settings.
// In-flight requests finish against the handles they already hold.
func (e *Engine) Reload(settings *config.Settings) error {
	effs, err := config.ResolveAll(settings)
	if err != nil {
		return err
	}

	instances := make(map[string]*instanceState, len(effs))
	for name, eff := range effs {
		cdc, err := codec.New(eff.Encoder)
		if err != nil {
			return panel.WrapError(panel.RetCConfig, name, "invalid encoder", err)
		}
		instances[name] = &instanceState{eff: eff, codec: cdc}
	}

	e.mu.Lock()
	old := e.instances
	e.instances = instances
	e.mu.Unlock()

	for name := range old {
		e.registry.Invalidate(name)
	}
	return nil
}

// Close tears down all connection handles.
func (e *Engine) Close() {
	e.registry.Close()
}

// InstanceNames returns the configured instance names in sorted order.
func (e *Engine) InstanceNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.instances))
	for name := range e.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the immutable effective configuration of an instance.
func (e *Engine) Config(name string) (*config.Effective, error) {
	state, err := e.state(name)
	if err != nil {
		return nil, err
	}
	return state.eff, nil
}

func (e *Engine) state(name string) (*instanceState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	state, ok := e.instances[name]
	if !ok {
		return nil, panel.NewErrorf(panel.RetCNotFound, "instance %q not found", name)
	}
	return state, nil
}

// client resolves an instance and returns its shared connection handle
// for the given logical database.
func (e *Engine) client(name string, db int) (*instanceState, *redis.Client, error) {
	state, err := e.state(name)
	if err != nil {
		return nil, nil, err
	}
	client, err := e.registry.Get(state.eff, db)
	if err != nil {
		return nil, nil, err
	}
	return state, client, nil
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Instances reports every configured instance with its connection status.
func (e *Engine) Instances(ctx context.Context) []panel.InstanceStatus {
	statuses := make([]panel.InstanceStatus, 0)
	for _, name := range e.InstanceNames() {
		state, err := e.state(name)
		if err != nil {
			continue
		}
		status := panel.InstanceStatus{
			Name:        name,
			Description: state.eff.Description,
		}
		if err := e.registry.Ping(ctx, state.eff); err != nil {
			status.Error = err.Error()
		} else {
			status.Connected = true
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// SearchKeys returns one page of keys matching pattern. The pagination
// strategy is selected from the instance's CURSOR_PAGINATED_SCAN flag.
func (e *Engine) SearchKeys(ctx context.Context, instance string, db int, pattern string, pos panel.Position, pageSize int) (page *panel.KeyPage, err error) {
	defer e.observe("search_keys", instance, &err)

	state, client, err := e.client(instance, db)
	if err != nil {
		return nil, err
	}
	return scan.ForKeys(state.eff).ScanKeys(ctx, client, pattern, pos, pageSize)
}

// GetKey returns the metadata of one key, and for string keys its decoded
// value. Collection members are read through ScanCollection instead.
func (e *Engine) GetKey(ctx context.Context, instance string, db int, key string) (detail *panel.KeyDetail, err error) {
	defer e.observe("get_key", instance, &err)

	state, client, err := e.client(instance, db)
	if err != nil {
		return nil, err
	}

	keyType, err := existingKeyType(ctx, client, instance, key)
	if err != nil {
		return nil, err
	}

	ttl, err := client.TTL(ctx, key).Result()
	if err != nil {
		return nil, registry.Wrap(instance, "ttl lookup failed", err)
	}

	detail = &panel.KeyDetail{
		Key:  key,
		Type: keyType,
		TTL:  ttlSeconds(ttl),
	}

	switch keyType {
	case "string":
		raw, err := client.Get(ctx, key).Bytes()
		if err != nil {
			return nil, registry.Wrap(instance, "value read failed", err)
		}
		decoded := state.codec.Decode(raw)
		detail.Value = &decoded
		detail.Size = int64(len(raw))
	case "list":
		detail.Size, err = client.LLen(ctx, key).Result()
	case "set":
		detail.Size, err = client.SCard(ctx, key).Result()
	case "zset":
		detail.Size, err = client.ZCard(ctx, key).Result()
	case "hash":
		detail.Size, err = client.HLen(ctx, key).Result()
	default:
		return nil, panel.NewErrorf(panel.RetCValidation, "unsupported key type %q", keyType)
	}
	if err != nil {
		return nil, registry.Wrap(instance, "size lookup failed", err)
	}
	return detail, nil
}

// ScanCollection returns one page of members of a list, hash, set or
// sorted set. The strategy is selected from CURSOR_PAGINATED_COLLECTIONS.
func (e *Engine) ScanCollection(ctx context.Context, instance string, db int, key string, pos panel.Position, pageSize int) (page *panel.MemberPage, err error) {
	defer e.observe("scan_collection", instance, &err)

	state, client, err := e.client(instance, db)
	if err != nil {
		return nil, err
	}
	return scan.ForCollections(state.eff, state.codec).ScanMembers(ctx, client, key, pos, pageSize)
}

// --------------------------------------------------------------------------
// Shared Helpers
// --------------------------------------------------------------------------

// existingKeyType returns the type of key, or a not-found error. Every
// operation on an absent key reports RetCNotFound, distinct from a
// flag-forbidden result and from a connection error.
func existingKeyType(ctx context.Context, client *redis.Client, instance, key string) (string, error) {
	keyType, err := client.Type(ctx, key).Result()
	if err != nil {
		return "", registry.Wrap(instance, "type lookup failed", err)
	}
	if keyType == "none" {
		return "", panel.NewErrorf(panel.RetCNotFound, "key %q not found", key)
	}
	return keyType, nil
}

func ttlSeconds(d time.Duration) int64 {
	if d < 0 {
		return panel.TTLNone
	}
	return int64(d / time.Second)
}

// observe counts operations and error kinds per instance.
func (e *Engine) observe(op, instance string, err *error) {
	metrics.GetOrCreateCounter(fmt.Sprintf(
		`redis_panel_operations_total{op=%q,instance=%q}`, op, instance)).Inc()
	if err != nil && *err != nil {
		metrics.GetOrCreateCounter(fmt.Sprintf(
			`redis_panel_errors_total{op=%q,instance=%q,code=%q}`,
			op, instance, panel.CodeOf(*err).String())).Inc()
	}
}
