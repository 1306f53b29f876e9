package scan

import (
	"context"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/yassi/dj-redis-panel/lib/config"
	"github.com/yassi/dj-redis-panel/lib/panel"
	"github.com/yassi/dj-redis-panel/lib/panel/codec"
	"github.com/yassi/dj-redis-panel/lib/panel/registry"
)

// --------------------------------------------------------------------------
// Collection Scanner Interface
// --------------------------------------------------------------------------

// CollectionScanner paginates the members of one composite value (list,
// hash, set or sorted set). Member values and hash fields pass through the
// instance codec on the way out.
type CollectionScanner interface {
	// ScanMembers returns one page of members of key, starting at pos.
	ScanMembers(ctx context.Context, client *redis.Client, key string, pos panel.Position, pageSize int) (*panel.MemberPage, error)
}

// ForCollections selects the collection pagination strategy for an instance.
func ForCollections(eff *config.Effective, cdc *codec.Codec) CollectionScanner {
	if eff.CursorPaginatedCollections {
		return &cursorCollectionScanner{instance: eff.Name, codec: cdc}
	}
	return &pageCollectionScanner{instance: eff.Name, codec: cdc}
}

// collectionType resolves the type of key and rejects keys that have no
// members to paginate. Missing keys are a not-found result, string keys a
// validation failure.
func collectionType(ctx context.Context, client *redis.Client, instance, key string) (string, error) {
	keyType, err := client.Type(ctx, key).Result()
	if err != nil {
		return "", registry.Wrap(instance, "type lookup failed", err)
	}
	switch keyType {
	case "none":
		return "", panel.NewErrorf(panel.RetCNotFound, "key %q not found", key)
	case "string":
		return "", panel.NewErrorf(panel.RetCValidation, "key %q holds a string, not a collection", key)
	}
	return keyType, nil
}

// --------------------------------------------------------------------------
// Page-Based Strategy
// --------------------------------------------------------------------------

// pageCollectionScanner slices a deterministic window out of the full
// member set. Ordered types keep their native order (list index order,
// sorted-set score order). Unordered types are sorted by member or field
// name first: Redis imposes no order on them, and without the sort the
// same page number would return different content on each request.
type pageCollectionScanner struct {
	instance string
	codec    *codec.Codec
}

func (s *pageCollectionScanner) ScanMembers(ctx context.Context, client *redis.Client, key string, pos panel.Position, pageSize int) (*panel.MemberPage, error) {
	if err := checkPageSize(pageSize); err != nil {
		return nil, err
	}
	keyType, err := collectionType(ctx, client, s.instance, key)
	if err != nil {
		return nil, err
	}

	page := pos.Page
	if page < 1 {
		page = 1
	}
	start := int64((page - 1) * pageSize)
	stop := start + int64(pageSize) - 1

	result := &panel.MemberPage{
		Type:    keyType,
		Members: []panel.Member{},
		Next:    panel.Position{Page: page + 1},
	}

	switch keyType {
	case "list":
		total, err := client.LLen(ctx, key).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "list length failed", err)
		}
		values, err := client.LRange(ctx, key, start, stop).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "list range failed", err)
		}
		for i, value := range values {
			result.Members = append(result.Members, panel.Member{
				Index: start + int64(i),
				Value: s.codec.Decode([]byte(value)),
			})
		}
		result.Total = total
		result.HasMore = start+int64(len(values)) < total

	case "zset":
		total, err := client.ZCard(ctx, key).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "zset cardinality failed", err)
		}
		members, err := client.ZRangeWithScores(ctx, key, start, stop).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "zset range failed", err)
		}
		for _, z := range members {
			member, _ := z.Member.(string)
			result.Members = append(result.Members, panel.Member{
				Value: s.codec.Decode([]byte(member)),
				Score: z.Score,
			})
		}
		result.Total = total
		result.HasMore = start+int64(len(members)) < total

	case "hash":
		fields, err := client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "hash read failed", err)
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		window := sliceWindow(names, start, int64(pageSize))
		for _, name := range window {
			result.Members = append(result.Members, panel.Member{
				Field: s.codec.Decode([]byte(name)),
				Value: s.codec.Decode([]byte(fields[name])),
			})
		}
		result.Total = int64(len(names))
		result.HasMore = start+int64(len(window)) < int64(len(names))

	case "set":
		members, err := client.SMembers(ctx, key).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "set read failed", err)
		}
		sort.Strings(members)
		window := sliceWindow(members, start, int64(pageSize))
		for _, member := range window {
			result.Members = append(result.Members, panel.Member{
				Value: s.codec.Decode([]byte(member)),
			})
		}
		result.Total = int64(len(members))
		result.HasMore = start+int64(len(window)) < int64(len(members))

	default:
		return nil, panel.NewErrorf(panel.RetCValidation, "unsupported collection type %q", keyType)
	}

	return result, nil
}

// sliceWindow returns values[start : start+size] clamped to the slice.
func sliceWindow(values []string, start, size int64) []string {
	if start >= int64(len(values)) {
		return nil
	}
	end := start + size
	if end > int64(len(values)) {
		end = int64(len(values))
	}
	return values[start:end]
}

// --------------------------------------------------------------------------
// Cursor-Based Strategy
// --------------------------------------------------------------------------

// cursorCollectionScanner uses the store's native incremental scans
// (HSCAN, SSCAN, ZSCAN) with their opaque cursors and best-effort
// stability. Lists have no native scan primitive, so the cursor carries
// the next list index and the done token is issued when the window reaches
// the tail.
type cursorCollectionScanner struct {
	instance string
	codec    *codec.Codec
}

func (s *cursorCollectionScanner) ScanMembers(ctx context.Context, client *redis.Client, key string, pos panel.Position, pageSize int) (*panel.MemberPage, error) {
	if err := checkPageSize(pageSize); err != nil {
		return nil, err
	}
	keyType, err := collectionType(ctx, client, s.instance, key)
	if err != nil {
		return nil, err
	}

	result := &panel.MemberPage{
		Type:    keyType,
		Members: []panel.Member{},
		Total:   panel.TotalUnknown,
	}

	switch keyType {
	case "list":
		total, err := client.LLen(ctx, key).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "list length failed", err)
		}
		start := int64(pos.Cursor)
		values, err := client.LRange(ctx, key, start, start+int64(pageSize)-1).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "list range failed", err)
		}
		for i, value := range values {
			result.Members = append(result.Members, panel.Member{
				Index: start + int64(i),
				Value: s.codec.Decode([]byte(value)),
			})
		}
		next := start + int64(len(values))
		if next < total {
			result.Next = panel.Position{Cursor: uint64(next)}
			result.HasMore = true
		}
		result.Total = total

	case "hash":
		pairs, next, err := client.HScan(ctx, key, pos.Cursor, "*", int64(pageSize)).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "hash scan failed", err)
		}
		for i := 0; i+1 < len(pairs); i += 2 {
			result.Members = append(result.Members, panel.Member{
				Field: s.codec.Decode([]byte(pairs[i])),
				Value: s.codec.Decode([]byte(pairs[i+1])),
			})
		}
		result.Next = panel.Position{Cursor: next}
		result.HasMore = next != 0

	case "set":
		members, next, err := client.SScan(ctx, key, pos.Cursor, "*", int64(pageSize)).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "set scan failed", err)
		}
		for _, member := range members {
			result.Members = append(result.Members, panel.Member{
				Value: s.codec.Decode([]byte(member)),
			})
		}
		result.Next = panel.Position{Cursor: next}
		result.HasMore = next != 0

	case "zset":
		pairs, next, err := client.ZScan(ctx, key, pos.Cursor, "*", int64(pageSize)).Result()
		if err != nil {
			return nil, registry.Wrap(s.instance, "zset scan failed", err)
		}
		for i := 0; i+1 < len(pairs); i += 2 {
			score, err := strconv.ParseFloat(pairs[i+1], 64)
			if err != nil {
				return nil, panel.WrapError(panel.RetCInternal, s.instance, "malformed zset score", err)
			}
			result.Members = append(result.Members, panel.Member{
				Value: s.codec.Decode([]byte(pairs[i])),
				Score: score,
			})
		}
		result.Next = panel.Position{Cursor: next}
		result.HasMore = next != 0

	default:
		return nil, panel.NewErrorf(panel.RetCValidation, "unsupported collection type %q", keyType)
	}

	return result, nil
}
