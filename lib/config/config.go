package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Feature Flags
// --------------------------------------------------------------------------

// Flag names as they appear in operator configuration. Unknown names in an
// instance feature map are rejected during resolution to catch typos.
const (
	FlagAllowKeyDelete             = "ALLOW_KEY_DELETE"
	FlagAllowKeyEdit               = "ALLOW_KEY_EDIT"
	FlagAllowTTLUpdate             = "ALLOW_TTL_UPDATE"
	FlagCursorPaginatedScan        = "CURSOR_PAGINATED_SCAN"
	FlagCursorPaginatedCollections = "CURSOR_PAGINATED_COLLECTIONS"
)

// knownFlags is the closed set of resolvable feature flags.
var knownFlags = map[string]bool{
	FlagAllowKeyDelete:             true,
	FlagAllowKeyEdit:               true,
	FlagAllowTTLUpdate:             true,
	FlagCursorPaginatedScan:        true,
	FlagCursorPaginatedCollections: true,
}

// --------------------------------------------------------------------------
// Hard-Coded Defaults
// --------------------------------------------------------------------------

const (
	DefaultEncoder              = "utf-8"
	DefaultSocketTimeout        = 5.0 // seconds
	DefaultSocketConnectTimeout = 3.0 // seconds
)

// defaultFlags apply when neither the global settings nor the instance
// say otherwise. Mutations are allowed and pagination is page-based.
var defaultFlags = map[string]bool{
	FlagAllowKeyDelete:             true,
	FlagAllowKeyEdit:               true,
	FlagAllowTTLUpdate:             true,
	FlagCursorPaginatedScan:        false,
	FlagCursorPaginatedCollections: false,
}

// --------------------------------------------------------------------------
// Configuration Input
// --------------------------------------------------------------------------

// Settings is the nested configuration supplied once at startup by the
// host application (the CLI loads it with viper, a web host passes it in
// directly). The engine never reads this from disk itself.
//
// Pointer fields distinguish "unset" from an explicit zero so that the
// precedence chain (instance features > instance keys > global settings >
// hard-coded defaults) can be applied faithfully.
type Settings struct {
	AllowKeyDelete             *bool    `mapstructure:"ALLOW_KEY_DELETE" json:"ALLOW_KEY_DELETE,omitempty"`
	AllowKeyEdit               *bool    `mapstructure:"ALLOW_KEY_EDIT" json:"ALLOW_KEY_EDIT,omitempty"`
	AllowTTLUpdate             *bool    `mapstructure:"ALLOW_TTL_UPDATE" json:"ALLOW_TTL_UPDATE,omitempty"`
	CursorPaginatedScan        *bool    `mapstructure:"CURSOR_PAGINATED_SCAN" json:"CURSOR_PAGINATED_SCAN,omitempty"`
	CursorPaginatedCollections *bool    `mapstructure:"CURSOR_PAGINATED_COLLECTIONS" json:"CURSOR_PAGINATED_COLLECTIONS,omitempty"`
	SocketTimeout              *float64 `mapstructure:"SOCKET_TIMEOUT" json:"SOCKET_TIMEOUT,omitempty"`
	SocketConnectTimeout       *float64 `mapstructure:"SOCKET_CONNECT_TIMEOUT" json:"SOCKET_CONNECT_TIMEOUT,omitempty"`
	Encoder                    string   `mapstructure:"ENCODER" json:"ENCODER,omitempty"`

	Instances map[string]Instance `mapstructure:"INSTANCES" json:"INSTANCES"`
}

// Instance identifies one Redis endpoint. Exactly one of (Host+Port) or
// URL must be present; the URL scheme selects plaintext (redis://) or
// TLS (rediss://) transport.
type Instance struct {
	Description string `mapstructure:"description" json:"description,omitempty"`

	Host     string `mapstructure:"host" json:"host,omitempty"`
	Port     int    `mapstructure:"port" json:"port,omitempty"`
	Password string `mapstructure:"password" json:"password,omitempty"`
	URL      string `mapstructure:"url" json:"url,omitempty"`
	DB       int    `mapstructure:"db" json:"db,omitempty"`

	SocketTimeout        *float64 `mapstructure:"socket_timeout" json:"socket_timeout,omitempty"`
	SocketConnectTimeout *float64 `mapstructure:"socket_connect_timeout" json:"socket_connect_timeout,omitempty"`
	Encoder              string   `mapstructure:"encoder" json:"encoder,omitempty"`

	Features map[string]bool `mapstructure:"features" json:"features,omitempty"`
}

// --------------------------------------------------------------------------
// Effective Configuration
// --------------------------------------------------------------------------

// Effective is the fully merged configuration for one instance. It is
// computed once per resolution, treated as immutable thereafter and passed
// explicitly into every component.
type Effective struct {
	Name        string
	Description string

	// Addr is "host:port" and empty when URL is set.
	Addr     string
	URL      string
	Password string
	DB       int

	SocketTimeout        time.Duration
	SocketConnectTimeout time.Duration
	Encoder              string

	AllowKeyDelete             bool
	AllowKeyEdit               bool
	AllowTTLUpdate             bool
	CursorPaginatedScan        bool
	CursorPaginatedCollections bool
}

// Flag returns the resolved value of a known feature flag by name.
func (e *Effective) Flag(name string) (value bool, ok bool) {
	switch name {
	case FlagAllowKeyDelete:
		return e.AllowKeyDelete, true
	case FlagAllowKeyEdit:
		return e.AllowKeyEdit, true
	case FlagAllowTTLUpdate:
		return e.AllowTTLUpdate, true
	case FlagCursorPaginatedScan:
		return e.CursorPaginatedScan, true
	case FlagCursorPaginatedCollections:
		return e.CursorPaginatedCollections, true
	default:
		return false, false
	}
}

// Target returns the connection target in display form.
func (e *Effective) Target() string {
	if e.URL != "" {
		return e.URL
	}
	return fmt.Sprintf("%s/%d", e.Addr, e.DB)
}

// String returns a formatted string representation of the configuration.
// The password is never included.
func (e *Effective) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-28s: %s\n", name, value))
	}

	addSection("Instance")
	addField("Name", e.Name)
	if e.Description != "" {
		addField("Description", e.Description)
	}
	addField("Target", e.Target())
	addField("Socket Timeout", e.SocketTimeout.String())
	addField("Socket Connect Timeout", e.SocketConnectTimeout.String())
	addField("Encoder", e.Encoder)

	addSection("Features")
	flags := make([]string, 0, len(knownFlags))
	for name := range knownFlags {
		flags = append(flags, name)
	}
	sort.Strings(flags)
	for _, name := range flags {
		value, _ := e.Flag(name)
		addField(name, fmt.Sprintf("%t", value))
	}

	return sb.String()
}
