package scan

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yassi/dj-redis-panel/lib/config"
	"github.com/yassi/dj-redis-panel/lib/panel"
	"github.com/yassi/dj-redis-panel/lib/panel/registry"
)

// --------------------------------------------------------------------------
// Key Scanner Interface
// --------------------------------------------------------------------------

// KeyScanner paginates the keyspace of one logical database. The two
// implementations are interchangeable; which one serves a request is
// decided once per request from the instance's Effective configuration,
// not re-checked at every call site.
type KeyScanner interface {
	// ScanKeys returns one page of keys matching pattern, starting at pos.
	ScanKeys(ctx context.Context, client *redis.Client, pattern string, pos panel.Position, pageSize int) (*panel.KeyPage, error)
}

// ForKeys selects the key scan strategy for an instance.
func ForKeys(eff *config.Effective) KeyScanner {
	if eff.CursorPaginatedScan {
		return &cursorKeyScanner{instance: eff.Name}
	}
	return &pageKeyScanner{instance: eff.Name}
}

// --------------------------------------------------------------------------
// Page-Based Strategy
// --------------------------------------------------------------------------

// pageKeyScanner fetches the full matching key set, sorts it and slices
// out the requested page. Repeated requests for the same page therefore
// return the same slice even though the key set is read again, and the
// reported total is exact.
//
// The full fetch is O(keyspace) per request. That is the documented
// tradeoff of this strategy; it is unsuitable for very large keyspaces,
// which is what the cursor-based strategy is for.
type pageKeyScanner struct {
	instance string
}

func (s *pageKeyScanner) ScanKeys(ctx context.Context, client *redis.Client, pattern string, pos panel.Position, pageSize int) (*panel.KeyPage, error) {
	if err := checkPageSize(pageSize); err != nil {
		return nil, err
	}
	page := pos.Page
	if page < 1 {
		page = 1
	}

	keys, err := client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, registry.Wrap(s.instance, "key listing failed", err)
	}
	// Lexicographic order makes page N mean the same slice on every read.
	sort.Strings(keys)

	total := int64(len(keys))
	start := (page - 1) * pageSize
	if start >= len(keys) {
		// A page beyond the available data is an empty page, not an error.
		return &panel.KeyPage{
			Entries: []panel.KeyEntry{},
			Next:    panel.Position{Page: page},
			HasMore: false,
			Total:   total,
		}, nil
	}

	end := start + pageSize
	if end > len(keys) {
		end = len(keys)
	}

	entries, err := describeKeys(ctx, client, s.instance, keys[start:end])
	if err != nil {
		return nil, err
	}

	return &panel.KeyPage{
		Entries: entries,
		Next:    panel.Position{Page: page + 1},
		HasMore: end < len(keys),
		Total:   total,
	}, nil
}

// --------------------------------------------------------------------------
// Cursor-Based Strategy
// --------------------------------------------------------------------------

// cursorKeyScanner issues one incremental SCAN per page. The cursor is
// minted by Redis and passed through untouched; the page size is a count
// hint, not an exact result size, and no total is available. The stability
// guarantee is the store's own: keys present for the whole scan are
// returned at least once, keys added or removed mid-scan may or may not
// appear. The engine preserves that guarantee and does not strengthen it.
type cursorKeyScanner struct {
	instance string
}

func (s *cursorKeyScanner) ScanKeys(ctx context.Context, client *redis.Client, pattern string, pos panel.Position, pageSize int) (*panel.KeyPage, error) {
	if err := checkPageSize(pageSize); err != nil {
		return nil, err
	}

	keys, next, err := client.Scan(ctx, pos.Cursor, pattern, int64(pageSize)).Result()
	if err != nil {
		return nil, registry.Wrap(s.instance, "key scan failed", err)
	}

	entries, err := describeKeys(ctx, client, s.instance, keys)
	if err != nil {
		return nil, err
	}

	return &panel.KeyPage{
		Entries: entries,
		Next:    panel.Position{Cursor: next},
		HasMore: next != 0,
		Total:   panel.TotalUnknown,
	}, nil
}

// --------------------------------------------------------------------------
// Entry Enrichment
// --------------------------------------------------------------------------

// describeKeys resolves type, TTL and size for a batch of keys with two
// pipelined round trips. Keys that vanish between the scan and the
// pipeline are skipped, matching the store's best-effort guarantee.
func describeKeys(ctx context.Context, client *redis.Client, instance string, keys []string) ([]panel.KeyEntry, error) {
	entries := make([]panel.KeyEntry, 0, len(keys))
	if len(keys) == 0 {
		return entries, nil
	}

	pipe := client.Pipeline()
	typeCmds := make([]*redis.StatusCmd, len(keys))
	ttlCmds := make([]*redis.DurationCmd, len(keys))
	for i, key := range keys {
		typeCmds[i] = pipe.Type(ctx, key)
		ttlCmds[i] = pipe.TTL(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, registry.Wrap(instance, "key metadata lookup failed", err)
	}

	sizePipe := client.Pipeline()
	sizeCmds := make([]*redis.IntCmd, len(keys))
	for i, key := range keys {
		switch typeCmds[i].Val() {
		case "string":
			sizeCmds[i] = sizePipe.StrLen(ctx, key)
		case "list":
			sizeCmds[i] = sizePipe.LLen(ctx, key)
		case "set":
			sizeCmds[i] = sizePipe.SCard(ctx, key)
		case "zset":
			sizeCmds[i] = sizePipe.ZCard(ctx, key)
		case "hash":
			sizeCmds[i] = sizePipe.HLen(ctx, key)
		}
	}
	if _, err := sizePipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, registry.Wrap(instance, "key size lookup failed", err)
	}

	for i, key := range keys {
		keyType := typeCmds[i].Val()
		if keyType == "" || keyType == "none" {
			continue // deleted mid-scan
		}
		var size int64
		if sizeCmds[i] != nil {
			size = sizeCmds[i].Val()
		}
		entries = append(entries, panel.KeyEntry{
			Key:  key,
			Type: keyType,
			TTL:  ttlSeconds(ttlCmds[i].Val()),
			Size: size,
		})
	}
	return entries, nil
}

// ttlSeconds converts a go-redis TTL reply to whole seconds, with
// panel.TTLNone for keys that do not expire.
func ttlSeconds(d time.Duration) int64 {
	if d < 0 {
		return panel.TTLNone
	}
	return int64(d / time.Second)
}

func checkPageSize(pageSize int) error {
	if pageSize <= 0 {
		return panel.NewErrorf(panel.RetCValidation, "page size must be positive, got %d", pageSize)
	}
	return nil
}
