// Package engine composes the configuration resolver, the connection
// registry, the codec and the pagination strategies into the operation
// surface of the panel.
//
// The Engine is the only type external layers talk to. Every operation
// takes a context, an instance name and a logical database index, and
// returns either a result or a typed *panel.Error whose RetCode tells the
// caller what went wrong:
//
//   - RetCNotFound    — instance or key absent
//   - RetCForbidden   — the instance's feature flags disallow the mutation
//   - RetCValidation  — malformed input (bad page size, wrong key type, ...)
//   - RetCConnection / RetCTimeout — transport failures
//
// Mutations are flag-gated at this boundary: ALLOW_KEY_EDIT guards value
// writes, ALLOW_KEY_DELETE guards removals and ALLOW_TTL_UPDATE guards
// expiry changes. A disabled flag yields RetCForbidden regardless of what
// any outer layer shows or hides.
//
// All values written through the engine pass through the instance's codec,
// so binary-safe round trips hold end to end: a value read as the
// literal-bytes form and submitted back unchanged writes the exact
// original bytes.
package engine
