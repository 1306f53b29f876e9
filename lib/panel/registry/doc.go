// Package registry implements the connection registry of the panel engine.
// It caches one go-redis client per (instance, logical database) pair in a
// concurrent map, constructs clients lazily from the resolved Effective
// configuration and rebuilds them only on explicit invalidation.
//
// Implementation Details:
//
//   - Handle Identity: a cached client is never reconfigured in place.
//     Reconfiguration goes through Invalidate, which closes and forgets the
//     old handles; the next Get builds fresh ones from current
//     configuration. Requests already holding the old handle finish
//     against it.
//
//   - Timeout Bounding: the configured socket_connect_timeout becomes the
//     dial timeout and socket_timeout the read/write timeout of the client,
//     so no operation issued through a handle can stall a caller beyond the
//     configured bounds. Exceeded bounds surface as timeout errors, not as
//     indefinite blocking.
//
//   - Error Classification: Wrap maps go-redis failures onto the engine
//     error model. redis.Nil becomes a not-found result, deadline and
//     net.Error timeouts become timeout results, WRONGTYPE replies become
//     validation results and everything else (unreachable target, rejected
//     auth) becomes a connection error carrying the instance name and the
//     underlying cause. The registry never retries; retry policy belongs to
//     the caller.
//
// Thread Safety:
//
//	All registry operations are safe for concurrent use. The client map is
//	an xsync.MapOf and client construction races collapse to a single
//	cached handle. The clients themselves are pooled and concurrency-safe
//	per the go-redis contract.
package registry
