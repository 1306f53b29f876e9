package panel

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Shared Value Types
// --------------------------------------------------------------------------

// TTLNone is the TTL reported for keys without an expiry.
const TTLNone int64 = -1

// TTLPersist is the sentinel accepted by UpdateTTL to remove an expiry.
const TTLPersist int64 = -1

// KeyEntry describes one key produced during a keyspace scan.
// Entries are ephemeral and never cached across requests.
type KeyEntry struct {
	Key  string `json:"key"`
	Type string `json:"type"`
	// TTL in seconds, TTLNone if the key has no expiry.
	TTL int64 `json:"ttl"`
	// Size is type dependent: byte length for strings, element count
	// for lists, sets, sorted sets and hashes.
	Size int64 `json:"size"`
}

// DecodedValue is the tagged result of a codec decode. Binary marks the
// literal-bytes form; the edit path must re-encode differently depending
// on this tag, so consumers switch on it instead of probing the text.
type DecodedValue struct {
	Text   string `json:"text"`
	Binary bool   `json:"binary"`
}

// Position addresses one page of a scan. Page is used by the page-based
// strategy (1-based). Cursor is used by the cursor-based strategy and is
// an opaque token issued by Redis; 0 is the canonical start token and,
// when returned by the store, the canonical done token.
type Position struct {
	Page   int    `json:"page"`
	Cursor uint64 `json:"cursor"`
}

// TotalUnknown is reported as the total of a cursor-based scan, where the
// store does not provide one.
const TotalUnknown int64 = -1

// KeyPage is one page of a keyspace scan.
type KeyPage struct {
	Entries []KeyEntry `json:"entries"`
	Next    Position   `json:"next"`
	HasMore bool       `json:"has_more"`
	// Total is the exact number of matching keys for page-based scans
	// and TotalUnknown for cursor-based scans.
	Total int64 `json:"total"`
}

// Member is one element of a collection value. Field is set for hashes,
// Score for sorted sets and Index for lists.
type Member struct {
	Value DecodedValue `json:"value"`
	Field DecodedValue `json:"field,omitempty"`
	Score float64      `json:"score,omitempty"`
	Index int64        `json:"index,omitempty"`
}

// MemberPage is one page of a collection scan.
type MemberPage struct {
	Type    string   `json:"type"`
	Members []Member `json:"members"`
	Next    Position `json:"next"`
	HasMore bool     `json:"has_more"`
	Total   int64    `json:"total"`
}

// KeyDetail describes a single key. Value is only set for string keys;
// collection members are read through ScanCollection.
type KeyDetail struct {
	Key   string        `json:"key"`
	Type  string        `json:"type"`
	TTL   int64         `json:"ttl"`
	Size  int64         `json:"size"`
	Value *DecodedValue `json:"value,omitempty"`
}

// InstanceStatus is one row of the instances index.
type InstanceStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Connected   bool   `json:"connected"`
	Error       string `json:"error,omitempty"`
}

// DatabaseStat summarizes one logical database of an instance. The
// expiring-key count and space usage are estimated from a bounded sample,
// never from a full keyspace walk.
type DatabaseStat struct {
	DB            int   `json:"db"`
	Keys          int64 `json:"keys"`
	ExpiringEst   int64 `json:"expiring_est"`
	SpaceBytesEst int64 `json:"space_bytes_est"`
	SampledKeys   int   `json:"sampled_keys"`
	MeanKeyBytes  int64 `json:"mean_key_bytes"`
	IsDefault     bool  `json:"is_default"`
}

// InstanceOverview is the result of the overview operation.
type InstanceOverview struct {
	Name             string         `json:"name"`
	Version          string         `json:"version"`
	MemoryUsed       string         `json:"memory_used"`
	MemoryPeak       string         `json:"memory_peak"`
	ConnectedClients int64          `json:"connected_clients"`
	UptimeSeconds    int64          `json:"uptime_seconds"`
	TotalCommands    int64          `json:"total_commands"`
	Databases        []DatabaseStat `json:"databases"`
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// RetCode classifies engine errors so the external UI/CLI layer can map
// each kind to an appropriate message.
type RetCode uint64

const (
	RetCInternal   RetCode = iota // 0: unexpected internal failure
	RetCConfig                    // 1: malformed or contradictory configuration
	RetCConnection                // 2: instance unreachable or auth rejected
	RetCTimeout                   // 3: bounded store call exceeded its timeout
	RetCEncoding                  // 4: text not representable in the configured encoding
	RetCForbidden                 // 5: feature flag disallows the mutation
	RetCValidation                // 6: malformed input (negative TTL, bad page size, ...)
	RetCNotFound                  // 7: key or instance absent
)

func (c RetCode) String() string {
	switch c {
	case RetCInternal:
		return "Internal"
	case RetCConfig:
		return "Config"
	case RetCConnection:
		return "Connection"
	case RetCTimeout:
		return "Timeout"
	case RetCEncoding:
		return "Encoding"
	case RetCForbidden:
		return "Forbidden"
	case RetCValidation:
		return "Validation"
	case RetCNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error is the typed error returned by every engine operation. Instance
// carries the instance name where one is in play, Err the underlying cause.
type Error struct {
	Code     RetCode // The return code
	Instance string  // Instance name, may be empty
	Msg      string  // The error message
	Err      error   // Underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := fmt.Sprintf("PanelError (code %s)", e.Code)
	if e.Instance != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, e.Instance)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Msg)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code RetCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// WrapError creates a new Error carrying an instance name and a cause.
func WrapError(code RetCode, instance, msg string, err error) *Error {
	return &Error{Code: code, Instance: instance, Msg: msg, Err: err}
}

// CodeOf returns the RetCode of an engine error, or RetCInternal if the
// error was not produced by the engine.
func CodeOf(err error) RetCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return RetCInternal
}

// IsNotFound reports whether err is an engine error with RetCNotFound.
func IsNotFound(err error) bool { return CodeOf(err) == RetCNotFound }

// IsForbidden reports whether err is an engine error with RetCForbidden.
func IsForbidden(err error) bool { return CodeOf(err) == RetCForbidden }

// IsTimeout reports whether err is an engine error with RetCTimeout.
func IsTimeout(err error) bool { return CodeOf(err) == RetCTimeout }
