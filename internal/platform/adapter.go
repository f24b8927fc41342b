package platform

import (
	"context"
	"time"
)

// FetchOptions bounds an incremental message fetch
type FetchOptions struct {
	Since time.Time
	Limit int
}

// Adapter is the contract every platform integration implements. Adapters own
// their auth/token refresh and rate-limit handling; callers treat a call as
// eventually-succeeded or failed and never retry platform auth themselves.
type Adapter interface {
	Platform() string
	// SupportsPush reports whether the platform delivers webhooks, which lets
	// the sync coordinator trust cached state within its staleness window.
	SupportsPush() bool
	FetchContacts(ctx context.Context, userID string) ([]Contact, error)
	FetchMessages(ctx context.Context, userID string, opts FetchOptions) ([]Message, error)
}

// Registry holds the configured adapters, built once at the composition root
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

// Get returns the adapter for a platform, or nil if not configured
func (r *Registry) Get(platform string) Adapter {
	return r.adapters[platform]
}

// Platforms returns the configured platform names
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
