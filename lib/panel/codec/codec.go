package codec

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/yassi/dj-redis-panel/lib/panel"
)

// byteLiteralPrefix marks the literal-bytes form: the ASCII-safe quoted
// representation of a payload that could not be decoded as text.
const byteLiteralPrefix = `b"`

// --------------------------------------------------------------------------
// Codec
// --------------------------------------------------------------------------

// Codec converts raw Redis values to a displayable and editable text form
// and back. A Codec is immutable and safe for concurrent use.
type Codec struct {
	name string
	// enc is nil for the native utf-8 path.
	enc encoding.Encoding
}

// New creates a Codec for a named text encoding ("utf-8", "latin1",
// "windows-1252", ...). The empty name selects utf-8. Unknown names fail
// with an encoding error.
func New(name string) (*Codec, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" || normalized == "utf-8" || normalized == "utf8" {
		return &Codec{name: "utf-8"}, nil
	}

	enc, err := htmlindex.Get(normalized)
	if err != nil {
		return nil, panel.NewErrorf(panel.RetCEncoding, "unknown encoding %q", name)
	}
	return &Codec{name: normalized, enc: enc}, nil
}

// Name returns the configured encoding name.
func (c *Codec) Name() string {
	return c.name
}

// Decode converts raw bytes to their editable text form. Payloads that are
// not valid under the configured encoding are returned in the literal-bytes
// form instead; that is a success, not an error. Decode also falls back to
// the literal-bytes form when the decoded text would itself parse as a byte
// literal, so Encode can never be hijacked by a value that merely looks
// like one.
//
// Invariant: Encode(Decode(b).Text) == b for every byte sequence b.
func (c *Codec) Decode(raw []byte) panel.DecodedValue {
	if text, ok := c.tryDecode(raw); ok && !isByteLiteral(text) {
		return panel.DecodedValue{Text: text}
	}
	return panel.DecodedValue{Text: quoteBytes(raw), Binary: true}
}

// Encode converts edited text back to raw bytes. Text in the literal-bytes
// form is parsed back into the exact original byte sequence regardless of
// the configured encoding; anything else is encoded under the configured
// encoding and fails with an encoding error when a character is not
// representable.
func (c *Codec) Encode(text string) ([]byte, error) {
	if raw, ok := parseByteLiteral(text); ok {
		return raw, nil
	}

	if !utf8.ValidString(text) {
		return nil, panel.NewErrorf(panel.RetCEncoding, "text is not valid UTF-8")
	}
	if c.enc == nil {
		return []byte(text), nil
	}

	out, err := c.enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, panel.WrapError(panel.RetCEncoding, "",
			"text not representable in "+c.name, err)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Internal Helpers
// --------------------------------------------------------------------------

// tryDecode decodes raw under the configured encoding and verifies the
// result is lossless by encoding it back. Lossy mappings (undefined bytes
// decoded to the replacement rune, or asymmetric charmap entries) are
// treated as failures so the caller falls back to the literal-bytes form.
func (c *Codec) tryDecode(raw []byte) (string, bool) {
	if c.enc == nil {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}

	decoded, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(decoded) {
		return "", false
	}
	reencoded, err := c.enc.NewEncoder().Bytes(decoded)
	if err != nil || !bytes.Equal(reencoded, raw) {
		return "", false
	}
	return string(decoded), true
}

// quoteBytes renders raw bytes in the literal-bytes form, e.g.
// b"\x80\x04\x95". Non-printable bytes are backslash-escaped.
func quoteBytes(raw []byte) string {
	return "b" + strconv.Quote(string(raw))
}

// parseByteLiteral parses the literal-bytes form back to the exact byte
// sequence. Malformed literals are not parsed at all; the caller then
// treats the text as plain text rather than guessing at a lossy repair.
func parseByteLiteral(text string) ([]byte, bool) {
	if !strings.HasPrefix(text, byteLiteralPrefix) || !strings.HasSuffix(text, `"`) || len(text) < 3 {
		return nil, false
	}
	parsed, err := strconv.Unquote(text[1:])
	if err != nil {
		return nil, false
	}
	return []byte(parsed), true
}

// isByteLiteral reports whether text parses as the literal-bytes form.
func isByteLiteral(text string) bool {
	_, ok := parseByteLiteral(text)
	return ok
}
