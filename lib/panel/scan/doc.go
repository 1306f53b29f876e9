// Package scan implements the pagination engine of the panel: stable
// iteration over the keyspace and over large collection values under two
// interchangeable strategies.
//
// Strategy Selection:
//
//	The CURSOR_PAGINATED_SCAN and CURSOR_PAGINATED_COLLECTIONS feature
//	flags select the strategy once per request, via ForKeys and
//	ForCollections. Call sites hold a KeyScanner or CollectionScanner and
//	never re-check the flag.
//
// Page-Based Strategy:
//
//	Fetches the complete matching set, orders it deterministically and
//	slices out the requested 1-based page. Two consecutive requests for
//	the same page against an unchanged keyspace return identical slices,
//	and the reported total is exact. The cost is a full fetch per request
//	(KEYS, SMEMBERS, HGETALL), which makes this strategy a poor fit for
//	very large keyspaces. That tradeoff is deliberate and documented, not
//	optimized away; operators with large keyspaces enable the cursor
//	flags instead.
//
// Cursor-Based Strategy:
//
//	Issues one native incremental scan (SCAN, HSCAN, SSCAN, ZSCAN) per
//	page. The cursor is an opaque token minted by Redis: 0 starts a walk
//	and a returned 0 ends it. The page size is a count hint and no total
//	is available. Stability is the store's own guarantee, kept as is:
//	elements present for the entire walk are returned at least once,
//	elements added or removed mid-walk may or may not appear. Lists have
//	no native scan primitive, so the list cursor is the next index into
//	the list.
//
// Both strategies reject a non-positive page size before any store call
// and treat a page beyond the available data as an empty page rather than
// an error.
package scan
