package engine

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yassi/dj-redis-panel/lib/config"
	"github.com/yassi/dj-redis-panel/lib/panel"
	"github.com/yassi/dj-redis-panel/lib/panel/registry"
)

// listDeleteSentinel marks a list element for removal: Redis has no
// delete-by-index primitive, so the element is overwritten with the
// sentinel and then removed by value.
const listDeleteSentinel = "__dj_redis_panel_deleted__"

// requireFlag enforces a feature flag at the engine boundary. The UI
// layer is an external collaborator and must not be the sole enforcement
// point for mutations.
func requireFlag(eff *config.Effective, flag string) error {
	enabled, ok := eff.Flag(flag)
	if !ok {
		return panel.NewErrorf(panel.RetCInternal, "unknown feature flag %q", flag)
	}
	if !enabled {
		return panel.NewErrorf(panel.RetCForbidden,
			"%s is disabled for instance %q", flag, eff.Name)
	}
	return nil
}

// --------------------------------------------------------------------------
// Key Mutations
// --------------------------------------------------------------------------

// UpdateValue replaces the value of a string key with the submitted text,
// routed through the codec so a literal-bytes form writes back the exact
// original bytes. The key's TTL is preserved. Gated by ALLOW_KEY_EDIT.
func (e *Engine) UpdateValue(ctx context.Context, instance string, db int, key, text string) (err error) {
	defer e.observe("update_value", instance, &err)

	state, client, err := e.client(instance, db)
	if err != nil {
		return err
	}
	if err := requireFlag(state.eff, config.FlagAllowKeyEdit); err != nil {
		return err
	}

	keyType, err := existingKeyType(ctx, client, instance, key)
	if err != nil {
		return err
	}
	if keyType != "string" {
		return panel.NewErrorf(panel.RetCValidation,
			"direct editing is not supported for %s keys", keyType)
	}

	raw, err := state.codec.Encode(text)
	if err != nil {
		return err
	}

	// SET clears the TTL, so it is captured first and restored after.
	ttl, err := client.TTL(ctx, key).Result()
	if err != nil {
		return registry.Wrap(instance, "ttl lookup failed", err)
	}
	if err := client.Set(ctx, key, raw, 0).Err(); err != nil {
		return registry.Wrap(instance, "value write failed", err)
	}
	if ttl > 0 {
		if err := client.Expire(ctx, key, ttl).Err(); err != nil {
			return registry.Wrap(instance, "ttl restore failed", err)
		}
	}
	return nil
}

// DeleteKey removes a key. Gated by ALLOW_KEY_DELETE.
func (e *Engine) DeleteKey(ctx context.Context, instance string, db int, key string) (err error) {
	defer e.observe("delete_key", instance, &err)

	state, client, err := e.client(instance, db)
	if err != nil {
		return err
	}
	if err := requireFlag(state.eff, config.FlagAllowKeyDelete); err != nil {
		return err
	}
	if _, err := existingKeyType(ctx, client, instance, key); err != nil {
		return err
	}
	if err := client.Del(ctx, key).Err(); err != nil {
		return registry.Wrap(instance, "delete failed", err)
	}
	return nil
}

// UpdateTTL sets the expiry of a key to a positive number of seconds, or
// removes the expiry when passed panel.TTLPersist. Any other non-positive
// value is rejected. Gated by ALLOW_TTL_UPDATE.
func (e *Engine) UpdateTTL(ctx context.Context, instance string, db int, key string, ttl int64) (err error) {
	defer e.observe("update_ttl", instance, &err)

	state, client, err := e.client(instance, db)
	if err != nil {
		return err
	}
	if err := requireFlag(state.eff, config.FlagAllowTTLUpdate); err != nil {
		return err
	}
	if _, err := existingKeyType(ctx, client, instance, key); err != nil {
		return err
	}

	switch {
	case ttl == panel.TTLPersist:
		if err := client.Persist(ctx, key).Err(); err != nil {
			return registry.Wrap(instance, "persist failed", err)
		}
	case ttl > 0:
		if err := client.Expire(ctx, key, time.Duration(ttl)*time.Second).Err(); err != nil {
			return registry.Wrap(instance, "expire failed", err)
		}
	default:
		return panel.NewErrorf(panel.RetCValidation, "ttl must be positive, got %d", ttl)
	}
	return nil
}

// AddKey creates a new string key with the given value and an optional
// TTL (0 means no expiry). Existing keys are not overwritten. Gated by
// ALLOW_KEY_EDIT.
func (e *Engine) AddKey(ctx context.Context, instance string, db int, key, text string, ttl int64) (err error) {
	defer e.observe("add_key", instance, &err)

	state, client, err := e.client(instance, db)
	if err != nil {
		return err
	}
	if err := requireFlag(state.eff, config.FlagAllowKeyEdit); err != nil {
		return err
	}
	if ttl < 0 {
		return panel.NewErrorf(panel.RetCValidation, "ttl must not be negative, got %d", ttl)
	}

	raw, err := state.codec.Encode(text)
	if err != nil {
		return err
	}

	created, err := client.SetNX(ctx, key, raw, time.Duration(ttl)*time.Second).Result()
	if err != nil {
		return registry.Wrap(instance, "key create failed", err)
	}
	if !created {
		return panel.NewErrorf(panel.RetCValidation, "key %q already exists", key)
	}
	return nil
}

// FlushDB removes every key of one logical database. Gated by
// ALLOW_KEY_DELETE.
func (e *Engine) FlushDB(ctx context.Context, instance string, db int) (err error) {
	defer e.observe("flush_db", instance, &err)

	state, client, err := e.client(instance, db)
	if err != nil {
		return err
	}
	if err := requireFlag(state.eff, config.FlagAllowKeyDelete); err != nil {
		return err
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		return registry.Wrap(instance, "flush failed", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Collection Member Mutations
// --------------------------------------------------------------------------

// SetHashField creates or overwrites one hash field. Gated by
// ALLOW_KEY_EDIT.
func (e *Engine) SetHashField(ctx context.Context, instance string, db int, key, field, text string) (err error) {
	defer e.observe("set_hash_field", instance, &err)

	state, client, err := e.memberTarget(ctx, instance, db, key, "hash", config.FlagAllowKeyEdit)
	if err != nil {
		return err
	}
	raw, err := state.codec.Encode(text)
	if err != nil {
		return err
	}
	if err := client.HSet(ctx, key, field, raw).Err(); err != nil {
		return registry.Wrap(instance, "hash write failed", err)
	}
	return nil
}

// DeleteHashField removes one hash field. Gated by ALLOW_KEY_DELETE.
func (e *Engine) DeleteHashField(ctx context.Context, instance string, db int, key, field string) (err error) {
	defer e.observe("delete_hash_field", instance, &err)

	_, client, err := e.memberTarget(ctx, instance, db, key, "hash", config.FlagAllowKeyDelete)
	if err != nil {
		return err
	}
	removed, err := client.HDel(ctx, key, field).Result()
	if err != nil {
		return registry.Wrap(instance, "hash delete failed", err)
	}
	if removed == 0 {
		return panel.NewErrorf(panel.RetCNotFound, "field %q not found in %q", field, key)
	}
	return nil
}

// PushListMember appends a value to the tail of a list. Gated by
// ALLOW_KEY_EDIT.
func (e *Engine) PushListMember(ctx context.Context, instance string, db int, key, text string) (err error) {
	defer e.observe("push_list_member", instance, &err)

	state, client, err := e.memberTarget(ctx, instance, db, key, "list", config.FlagAllowKeyEdit)
	if err != nil {
		return err
	}
	raw, err := state.codec.Encode(text)
	if err != nil {
		return err
	}
	if err := client.RPush(ctx, key, raw).Err(); err != nil {
		return registry.Wrap(instance, "list push failed", err)
	}
	return nil
}

// SetListMember overwrites the element at a list index. Gated by
// ALLOW_KEY_EDIT.
func (e *Engine) SetListMember(ctx context.Context, instance string, db int, key string, index int64, text string) (err error) {
	defer e.observe("set_list_member", instance, &err)

	state, client, err := e.memberTarget(ctx, instance, db, key, "list", config.FlagAllowKeyEdit)
	if err != nil {
		return err
	}
	raw, err := state.codec.Encode(text)
	if err != nil {
		return err
	}
	if err := client.LSet(ctx, key, index, raw).Err(); err != nil {
		return wrapListIndexError(instance, key, index, err)
	}
	return nil
}

// DeleteListMember removes the element at a list index. Redis has no
// delete-by-index, so the element is overwritten with a sentinel and the
// sentinel removed by value. Gated by ALLOW_KEY_DELETE.
func (e *Engine) DeleteListMember(ctx context.Context, instance string, db int, key string, index int64) (err error) {
	defer e.observe("delete_list_member", instance, &err)

	_, client, err := e.memberTarget(ctx, instance, db, key, "list", config.FlagAllowKeyDelete)
	if err != nil {
		return err
	}
	if err := client.LSet(ctx, key, index, listDeleteSentinel).Err(); err != nil {
		return wrapListIndexError(instance, key, index, err)
	}
	if err := client.LRem(ctx, key, 1, listDeleteSentinel).Err(); err != nil {
		return registry.Wrap(instance, "list remove failed", err)
	}
	return nil
}

// AddSetMember adds a member to a set. Gated by ALLOW_KEY_EDIT.
func (e *Engine) AddSetMember(ctx context.Context, instance string, db int, key, text string) (err error) {
	defer e.observe("add_set_member", instance, &err)

	state, client, err := e.memberTarget(ctx, instance, db, key, "set", config.FlagAllowKeyEdit)
	if err != nil {
		return err
	}
	raw, err := state.codec.Encode(text)
	if err != nil {
		return err
	}
	if err := client.SAdd(ctx, key, raw).Err(); err != nil {
		return registry.Wrap(instance, "set add failed", err)
	}
	return nil
}

// RemoveSetMember removes a member from a set. Gated by ALLOW_KEY_DELETE.
func (e *Engine) RemoveSetMember(ctx context.Context, instance string, db int, key, text string) (err error) {
	defer e.observe("remove_set_member", instance, &err)

	state, client, err := e.memberTarget(ctx, instance, db, key, "set", config.FlagAllowKeyDelete)
	if err != nil {
		return err
	}
	raw, err := state.codec.Encode(text)
	if err != nil {
		return err
	}
	removed, err := client.SRem(ctx, key, raw).Result()
	if err != nil {
		return registry.Wrap(instance, "set remove failed", err)
	}
	if removed == 0 {
		return panel.NewErrorf(panel.RetCNotFound, "member not found in %q", key)
	}
	return nil
}

// AddZSetMember adds a member to a sorted set, or updates its score if it
// already exists. Gated by ALLOW_KEY_EDIT.
func (e *Engine) AddZSetMember(ctx context.Context, instance string, db int, key, text string, score float64) (err error) {
	defer e.observe("add_zset_member", instance, &err)

	state, client, err := e.memberTarget(ctx, instance, db, key, "zset", config.FlagAllowKeyEdit)
	if err != nil {
		return err
	}
	raw, err := state.codec.Encode(text)
	if err != nil {
		return err
	}
	if err := client.ZAdd(ctx, key, redis.Z{Score: score, Member: raw}).Err(); err != nil {
		return registry.Wrap(instance, "zset add failed", err)
	}
	return nil
}

// RemoveZSetMember removes a member from a sorted set. Gated by
// ALLOW_KEY_DELETE.
func (e *Engine) RemoveZSetMember(ctx context.Context, instance string, db int, key, text string) (err error) {
	defer e.observe("remove_zset_member", instance, &err)

	state, client, err := e.memberTarget(ctx, instance, db, key, "zset", config.FlagAllowKeyDelete)
	if err != nil {
		return err
	}
	raw, err := state.codec.Encode(text)
	if err != nil {
		return err
	}
	removed, err := client.ZRem(ctx, key, raw).Result()
	if err != nil {
		return registry.Wrap(instance, "zset remove failed", err)
	}
	if removed == 0 {
		return panel.NewErrorf(panel.RetCNotFound, "member not found in %q", key)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// memberTarget resolves the instance, enforces the flag and verifies the
// key exists with the expected collection type.
func (e *Engine) memberTarget(ctx context.Context, instance string, db int, key, wantType, flag string) (*instanceState, *redis.Client, error) {
	state, client, err := e.client(instance, db)
	if err != nil {
		return nil, nil, err
	}
	if err := requireFlag(state.eff, flag); err != nil {
		return nil, nil, err
	}
	keyType, err := existingKeyType(ctx, client, instance, key)
	if err != nil {
		return nil, nil, err
	}
	if keyType != wantType {
		return nil, nil, panel.NewErrorf(panel.RetCValidation,
			"key %q holds a %s, not a %s", key, keyType, wantType)
	}
	return state, client, nil
}

// wrapListIndexError turns the out-of-range LSET reply into a not-found
// result so a stale index reads like a missing member, not a server fault.
func wrapListIndexError(instance, key string, index int64, err error) error {
	if err == nil {
		return nil
	}
	if msg := err.Error(); msg == "ERR index out of range" || msg == "ERR no such key" {
		return panel.NewErrorf(panel.RetCNotFound, "index %d not found in %q", index, key)
	}
	return registry.Wrap(instance, "list write failed", err)
}
