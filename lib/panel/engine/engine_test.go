package engine

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yassi/dj-redis-panel/lib/config"
	"github.com/yassi/dj-redis-panel/lib/panel"
)

// testEngine starts a fresh in-process Redis, builds an engine with one
// instance pointed at it and returns a raw client for seeding and
// verification outside the engine's surface.
func testEngine(t *testing.T, features map[string]bool) (*Engine, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	settings := &config.Settings{
		Instances: map[string]config.Instance{
			"main": {URL: "redis://" + mr.Addr(), Features: features},
		},
	}

	e, err := New(settings)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(e.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return e, client
}

func assertCode(t *testing.T, err error, want panel.RetCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", want)
	}
	if got := panel.CodeOf(err); got != want {
		t.Fatalf("expected code %s, got %s (%v)", want, got, err)
	}
}

// ----------------------------------------------------------------------------
// Read Operations
// ----------------------------------------------------------------------------

func TestInstances(t *testing.T) {
	ctx := context.Background()

	live := miniredis.RunT(t)
	dead := miniredis.RunT(t)
	deadAddr := dead.Addr()
	dead.Close()

	e, err := New(&config.Settings{
		Instances: map[string]config.Instance{
			"live": {URL: "redis://" + live.Addr(), Description: "primary"},
			"dead": {URL: "redis://" + deadAddr},
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(e.Close)

	statuses := e.Instances(ctx)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	// InstanceNames sorts, so "dead" comes first.
	if statuses[0].Name != "dead" || statuses[0].Connected {
		t.Errorf("expected dead instance disconnected, got %+v", statuses[0])
	}
	if statuses[0].Error == "" {
		t.Error("expected an error message on the dead instance")
	}
	if statuses[1].Name != "live" || !statuses[1].Connected {
		t.Errorf("expected live instance connected, got %+v", statuses[1])
	}
	if statuses[1].Description != "primary" {
		t.Errorf("expected description to carry over, got %q", statuses[1].Description)
	}
}

func TestGetKey(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.Set(ctx, "greeting", "hello", time.Hour).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	detail, err := e.GetKey(ctx, "main", 0, "greeting")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if detail.Type != "string" {
		t.Errorf("expected type string, got %q", detail.Type)
	}
	if detail.Value == nil || detail.Value.Text != "hello" || detail.Value.Binary {
		t.Errorf("unexpected value: %+v", detail.Value)
	}
	if detail.Size != 5 {
		t.Errorf("expected size 5, got %d", detail.Size)
	}
	if detail.TTL <= 0 || detail.TTL > 3600 {
		t.Errorf("expected TTL in (0, 3600], got %d", detail.TTL)
	}
}

func TestGetKeyCollection(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.RPush(ctx, "queue", "a", "b", "c").Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	detail, err := e.GetKey(ctx, "main", 0, "queue")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if detail.Type != "list" || detail.Size != 3 {
		t.Errorf("expected list of 3, got %+v", detail)
	}
	if detail.Value != nil {
		t.Error("collection keys must not carry an inline value")
	}
	if detail.TTL != panel.TTLNone {
		t.Errorf("expected TTLNone, got %d", detail.TTL)
	}
}

func TestGetKeyNotFound(t *testing.T) {
	e, _ := testEngine(t, nil)
	_, err := e.GetKey(context.Background(), "main", 0, "missing")
	assertCode(t, err, panel.RetCNotFound)
}

func TestUnknownInstance(t *testing.T) {
	e, _ := testEngine(t, nil)
	_, err := e.GetKey(context.Background(), "nope", 0, "key")
	assertCode(t, err, panel.RetCNotFound)
}

func TestSearchKeys(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	for _, key := range []string{"user:1", "user:2", "user:3", "session:1"} {
		if err := client.Set(ctx, key, "x", 0).Err(); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	page, err := e.SearchKeys(ctx, "main", 0, "user:*", panel.Position{Page: 1}, 10)
	if err != nil {
		t.Fatalf("SearchKeys failed: %v", err)
	}
	if page.Total != 3 || len(page.Entries) != 3 || page.HasMore {
		t.Fatalf("unexpected page: total=%d entries=%d hasMore=%t",
			page.Total, len(page.Entries), page.HasMore)
	}
	// Page-based scans are sorted for determinism.
	for i, want := range []string{"user:1", "user:2", "user:3"} {
		if page.Entries[i].Key != want {
			t.Errorf("entry %d: expected %q, got %q", i, want, page.Entries[i].Key)
		}
	}
}

// ----------------------------------------------------------------------------
// Mutations
// ----------------------------------------------------------------------------

func TestUpdateValuePreservesTTL(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.Set(ctx, "key", "old", time.Hour).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := e.UpdateValue(ctx, "main", 0, "key", "new"); err != nil {
		t.Fatalf("UpdateValue failed: %v", err)
	}
	if got, _ := client.Get(ctx, "key").Result(); got != "new" {
		t.Errorf("expected value %q, got %q", "new", got)
	}
	if ttl, _ := client.TTL(ctx, "key").Result(); ttl <= 0 {
		t.Errorf("expected TTL preserved across update, got %v", ttl)
	}
}

func TestUpdateValueWrongType(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.RPush(ctx, "queue", "a").Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	assertCode(t, e.UpdateValue(ctx, "main", 0, "queue", "x"), panel.RetCValidation)
}

func TestBinaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	raw := []byte{0x80, 0x04, 0x95, 0x00, 0x01}
	if err := client.Set(ctx, "blob", raw, 0).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	detail, err := e.GetKey(ctx, "main", 0, "blob")
	if err != nil {
		t.Fatalf("GetKey failed: %v", err)
	}
	if detail.Value == nil || !detail.Value.Binary {
		t.Fatalf("expected literal-bytes form, got %+v", detail.Value)
	}

	// Submitting the displayed form unchanged must write the exact bytes.
	if err := e.UpdateValue(ctx, "main", 0, "blob", detail.Value.Text); err != nil {
		t.Fatalf("UpdateValue failed: %v", err)
	}
	got, err := client.Get(ctx, "blob").Bytes()
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("round trip corrupted value: %v != %v", got, raw)
	}
}

func TestDeleteKey(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.Set(ctx, "key", "v", 0).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := e.DeleteKey(ctx, "main", 0, "key"); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	if n, _ := client.Exists(ctx, "key").Result(); n != 0 {
		t.Error("expected key removed")
	}

	assertCode(t, e.DeleteKey(ctx, "main", 0, "key"), panel.RetCNotFound)
}

func TestMutationsForbidden(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, map[string]bool{
		config.FlagAllowKeyDelete: false,
		config.FlagAllowKeyEdit:   false,
		config.FlagAllowTTLUpdate: false,
	})

	if err := client.Set(ctx, "key", "v", 0).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	tests := []struct {
		name string
		op   func() error
	}{
		{"delete", func() error { return e.DeleteKey(ctx, "main", 0, "key") }},
		{"edit", func() error { return e.UpdateValue(ctx, "main", 0, "key", "x") }},
		{"ttl", func() error { return e.UpdateTTL(ctx, "main", 0, "key", 60) }},
		{"add", func() error { return e.AddKey(ctx, "main", 0, "other", "x", 0) }},
		{"flush", func() error { return e.FlushDB(ctx, "main", 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			if !panel.IsForbidden(err) {
				t.Fatalf("expected Forbidden, got %v", err)
			}
		})
	}

	// The forbidden delete must not have touched the key.
	if got, _ := client.Get(ctx, "key").Result(); got != "v" {
		t.Errorf("expected key untouched, got %q", got)
	}
}

func TestUpdateTTL(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.Set(ctx, "key", "v", time.Hour).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := e.UpdateTTL(ctx, "main", 0, "key", 120); err != nil {
		t.Fatalf("UpdateTTL failed: %v", err)
	}
	if ttl, _ := client.TTL(ctx, "key").Result(); ttl != 120*time.Second {
		t.Errorf("expected TTL 120s, got %v", ttl)
	}

	if err := e.UpdateTTL(ctx, "main", 0, "key", panel.TTLPersist); err != nil {
		t.Fatalf("UpdateTTL persist failed: %v", err)
	}
	if ttl, _ := client.TTL(ctx, "key").Result(); ttl >= 0 {
		t.Errorf("expected expiry removed, got %v", ttl)
	}

	assertCode(t, e.UpdateTTL(ctx, "main", 0, "key", 0), panel.RetCValidation)
	assertCode(t, e.UpdateTTL(ctx, "main", 0, "missing", 60), panel.RetCNotFound)
}

func TestAddKey(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := e.AddKey(ctx, "main", 0, "fresh", "value", 60); err != nil {
		t.Fatalf("AddKey failed: %v", err)
	}
	if got, _ := client.Get(ctx, "fresh").Result(); got != "value" {
		t.Errorf("expected %q, got %q", "value", got)
	}
	if ttl, _ := client.TTL(ctx, "fresh").Result(); ttl != 60*time.Second {
		t.Errorf("expected TTL 60s, got %v", ttl)
	}

	assertCode(t, e.AddKey(ctx, "main", 0, "fresh", "again", 0), panel.RetCValidation)
	assertCode(t, e.AddKey(ctx, "main", 0, "neg", "x", -1), panel.RetCValidation)
}

func TestFlushDB(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	for _, key := range []string{"a", "b", "c"} {
		if err := client.Set(ctx, key, "v", 0).Err(); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	if err := e.FlushDB(ctx, "main", 0); err != nil {
		t.Fatalf("FlushDB failed: %v", err)
	}
	if n, _ := client.DBSize(ctx).Result(); n != 0 {
		t.Errorf("expected empty database, got %d keys", n)
	}
}

// ----------------------------------------------------------------------------
// Collection Member Mutations
// ----------------------------------------------------------------------------

func TestHashFieldOps(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.HSet(ctx, "h", "f1", "v1").Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := e.SetHashField(ctx, "main", 0, "h", "f2", "v2"); err != nil {
		t.Fatalf("SetHashField failed: %v", err)
	}
	if got, _ := client.HGet(ctx, "h", "f2").Result(); got != "v2" {
		t.Errorf("expected %q, got %q", "v2", got)
	}

	if err := e.DeleteHashField(ctx, "main", 0, "h", "f1"); err != nil {
		t.Fatalf("DeleteHashField failed: %v", err)
	}
	assertCode(t, e.DeleteHashField(ctx, "main", 0, "h", "f1"), panel.RetCNotFound)

	// Member operations verify the key's type first.
	if err := client.Set(ctx, "s", "v", 0).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	assertCode(t, e.SetHashField(ctx, "main", 0, "s", "f", "v"), panel.RetCValidation)
}

func TestListMemberOps(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.RPush(ctx, "l", "a", "b", "c").Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := e.PushListMember(ctx, "main", 0, "l", "d"); err != nil {
		t.Fatalf("PushListMember failed: %v", err)
	}
	if err := e.SetListMember(ctx, "main", 0, "l", 1, "B"); err != nil {
		t.Fatalf("SetListMember failed: %v", err)
	}
	if err := e.DeleteListMember(ctx, "main", 0, "l", 0); err != nil {
		t.Fatalf("DeleteListMember failed: %v", err)
	}

	got, err := client.LRange(ctx, "l", 0, -1).Result()
	if err != nil {
		t.Fatalf("readback failed: %v", err)
	}
	want := []string{"B", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	assertCode(t, e.SetListMember(ctx, "main", 0, "l", 99, "x"), panel.RetCNotFound)
}

func TestSetMemberOps(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.SAdd(ctx, "s", "a").Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := e.AddSetMember(ctx, "main", 0, "s", "b"); err != nil {
		t.Fatalf("AddSetMember failed: %v", err)
	}
	if err := e.RemoveSetMember(ctx, "main", 0, "s", "a"); err != nil {
		t.Fatalf("RemoveSetMember failed: %v", err)
	}
	assertCode(t, e.RemoveSetMember(ctx, "main", 0, "s", "a"), panel.RetCNotFound)

	if ok, _ := client.SIsMember(ctx, "s", "b").Result(); !ok {
		t.Error("expected member b present")
	}
}

func TestZSetMemberOps(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.ZAdd(ctx, "z", redis.Z{Score: 1, Member: "a"}).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := e.AddZSetMember(ctx, "main", 0, "z", "b", 2.5); err != nil {
		t.Fatalf("AddZSetMember failed: %v", err)
	}
	if score, _ := client.ZScore(ctx, "z", "b").Result(); score != 2.5 {
		t.Errorf("expected score 2.5, got %v", score)
	}

	if err := e.RemoveZSetMember(ctx, "main", 0, "z", "a"); err != nil {
		t.Fatalf("RemoveZSetMember failed: %v", err)
	}
	assertCode(t, e.RemoveZSetMember(ctx, "main", 0, "z", "a"), panel.RetCNotFound)
}

// ----------------------------------------------------------------------------
// Overview / Reload
// ----------------------------------------------------------------------------

func TestOverview(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	for _, key := range []string{"a", "b", "c", "d"} {
		if err := client.Set(ctx, key, "some value", 0).Err(); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
	if err := client.Set(ctx, "expiring", "v", time.Hour).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	overview, err := e.Overview(ctx, "main")
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if overview.Name != "main" {
		t.Errorf("expected name main, got %q", overview.Name)
	}
	if len(overview.Databases) == 0 {
		t.Fatal("expected at least DB 0 in the overview")
	}

	db0 := overview.Databases[0]
	if db0.DB != 0 || !db0.IsDefault {
		t.Errorf("expected DB 0 first and default, got %+v", db0)
	}
	if db0.Keys != 5 {
		t.Errorf("expected 5 keys, got %d", db0.Keys)
	}
	// All 5 keys fit in one sample, so the estimate is exact.
	if db0.ExpiringEst != 1 {
		t.Errorf("expected 1 expiring key, got %d", db0.ExpiringEst)
	}
	if db0.SpaceBytesEst <= 0 || db0.SampledKeys != 5 {
		t.Errorf("unexpected sample stats: %+v", db0)
	}
}

func TestOverviewUnknownInstance(t *testing.T) {
	e, _ := testEngine(t, nil)
	_, err := e.Overview(context.Background(), "nope")
	assertCode(t, err, panel.RetCNotFound)
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	e, client := testEngine(t, nil)

	if err := client.Set(ctx, "key", "v", 0).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := e.DeleteKey(ctx, "main", 0, "key"); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}

	// Reload with deletes disabled; the new flags must take effect.
	eff, err := e.Config("main")
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	err = e.Reload(&config.Settings{
		Instances: map[string]config.Instance{
			"main": {
				URL:      eff.URL,
				Features: map[string]bool{config.FlagAllowKeyDelete: false},
			},
		},
	})
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if err := client.Set(ctx, "key", "v", 0).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := e.DeleteKey(ctx, "main", 0, "key"); !panel.IsForbidden(err) {
		t.Fatalf("expected Forbidden after reload, got %v", err)
	}
}
