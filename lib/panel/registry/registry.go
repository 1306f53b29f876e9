package registry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"

	"github.com/yassi/dj-redis-panel/lib/config"
	"github.com/yassi/dj-redis-panel/lib/panel"
)

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry owns one Redis client per (instance, logical database) pair.
// Clients are built lazily from the instance's Effective configuration,
// cached for the process lifetime and rebuilt only after Invalidate.
// A cached client is shared by all in-flight requests; go-redis connection
// pooling makes it safe for concurrent use.
type Registry struct {
	clients *xsync.MapOf[string, *redis.Client]
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		clients: xsync.NewMapOf[string, *redis.Client](),
	}
}

// Get returns the shared client for the given instance and logical
// database, building it on first use. The configured socket timeouts are
// applied to the client so every operation issued through the handle is
// bounded.
func (r *Registry) Get(eff *config.Effective, db int) (*redis.Client, error) {
	if db < 0 {
		return nil, panel.NewErrorf(panel.RetCValidation, "db must not be negative, got %d", db)
	}

	opts, err := clientOptions(eff, db)
	if err != nil {
		return nil, err
	}

	key := clientKey(eff.Name, db)
	client, _ := r.clients.LoadOrCompute(key, func() *redis.Client {
		return redis.NewClient(opts)
	})
	return client, nil
}

// Invalidate drops and closes every cached client of an instance so the
// next Get rebuilds from current configuration. Used on hot reload; a new
// configuration always yields a new handle, never a mutated one.
func (r *Registry) Invalidate(name string) {
	prefix := name + "/"
	r.clients.Range(func(key string, client *redis.Client) bool {
		if strings.HasPrefix(key, prefix) {
			r.clients.Delete(key)
			_ = client.Close()
		}
		return true
	})
}

// Close tears down all cached clients. Called at process shutdown.
func (r *Registry) Close() {
	r.clients.Range(func(key string, client *redis.Client) bool {
		r.clients.Delete(key)
		_ = client.Close()
		return true
	})
}

// Ping tests connectivity to an instance on its default database.
func (r *Registry) Ping(ctx context.Context, eff *config.Effective) error {
	client, err := r.Get(eff, eff.DB)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return Wrap(eff.Name, "ping failed", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Client Construction
// --------------------------------------------------------------------------

func clientKey(name string, db int) string {
	return fmt.Sprintf("%s/%d", name, db)
}

// clientOptions translates an Effective configuration into go-redis
// options. URL targets go through redis.ParseURL, which also arms TLS for
// the rediss:// scheme; host/port targets are assembled directly. The
// requested logical database overrides the configured default in both
// forms.
func clientOptions(eff *config.Effective, db int) (*redis.Options, error) {
	var opts *redis.Options

	if eff.URL != "" {
		parsed, err := redis.ParseURL(eff.URL)
		if err != nil {
			return nil, panel.WrapError(panel.RetCConfig, eff.Name, "invalid url", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     eff.Addr,
			Password: eff.Password,
		}
	}

	opts.DB = db
	opts.DialTimeout = eff.SocketConnectTimeout
	opts.ReadTimeout = eff.SocketTimeout
	opts.WriteTimeout = eff.SocketTimeout
	// The engine surfaces failures to the caller instead of retrying.
	opts.MaxRetries = -1

	return opts, nil
}

// --------------------------------------------------------------------------
// Error Classification
// --------------------------------------------------------------------------

// Wrap classifies a go-redis error into the engine error model: missing
// keys, exceeded timeouts, wrong-type operations and connection failures
// each map to their own return code. A nil error stays nil.
func Wrap(instance, msg string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, redis.Nil):
		return panel.WrapError(panel.RetCNotFound, instance, msg, err)
	case isTimeout(err):
		return panel.WrapError(panel.RetCTimeout, instance, msg, err)
	case isWrongType(err):
		return panel.WrapError(panel.RetCValidation, instance, msg, err)
	default:
		return panel.WrapError(panel.RetCConnection, instance, msg, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isWrongType(err error) bool {
	return strings.HasPrefix(err.Error(), "WRONGTYPE")
}
