// Package codec implements the value codec of the panel engine: the
// conversion between the raw byte representation Redis stores and the
// human-editable text representation the UI displays.
//
// Values that decode cleanly under the configured encoding round-trip as
// plain text. Values that do not (serialized blobs, compressed payloads,
// foreign encodings) are rendered in the literal-bytes form: a "b" prefix
// followed by a double-quoted, backslash-escaped ASCII representation of
// the exact bytes, e.g.
//
//	b"\x80\x04\x95payload"
//
// The edit path recognizes this form and parses it back to the identical
// byte sequence without consulting the configured encoding, which makes
// binary payloads safely editable: fetching a value and submitting its
// text unchanged always writes back the original bytes.
//
// Decoding is validated by re-encoding. An encoding whose byte-to-rune
// mapping is lossy for a given payload (undefined charmap positions, for
// instance) falls back to the literal-bytes form, so the round-trip
// invariant holds unconditionally rather than only for well-behaved
// encodings.
//
// Named encodings other than utf-8 are resolved through the WHATWG
// encoding index (golang.org/x/text/encoding/htmlindex).
package codec
