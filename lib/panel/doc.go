// Package panel defines the shared types and the error model of the Redis
// panel engine. It is imported by every engine sub-package and by external
// callers (the admin UI and the CLI), which build exclusively against the
// types declared here.
//
// Key Components:
//
//   - Value Types: KeyEntry, KeyDetail, DecodedValue, Member and the page
//     types (KeyPage, MemberPage) are the per-request payloads produced by
//     scans and key reads. They are ephemeral and carry no references into
//     engine internals.
//
//   - Position: a single type addresses both pagination strategies. The
//     page-based strategy reads the 1-based Page field, the cursor-based
//     strategy reads the opaque Cursor token. Callers must treat the cursor
//     as opaque; it is minted by Redis and passed through unchanged.
//
//   - Error Model: every operation returns either a success payload or a
//     *Error carrying a RetCode. The codes distinguish configuration
//     problems, connection failures, timeouts, encoding failures, feature
//     flag rejections, input validation failures and missing keys. The
//     engine never retries and never falls back silently; the single
//     specified fallback (undecodable bytes rendered in literal-bytes form)
//     is a success, not an error.
//
// The helper predicates (IsNotFound, IsForbidden, IsTimeout) and CodeOf
// work through wrapped error chains via errors.As.
package panel
