// Package store defines the persistence contracts the user field components
// read and write through. Values are opaque text; callers own the encoding.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by implementations that surface missing records as
// errors rather than through the found flag.
var ErrNotFound = errors.New("store: not found")

// OptionStore keeps site-wide named values such as the global field list.
type OptionStore interface {
	Option(ctx context.Context, name string) (value string, found bool, err error)
	SetOption(ctx context.Context, name, value string) error
}

// MetaStore keeps per-entity values keyed by entity id and meta key. Calendars
// and bookings share the same id space.
type MetaStore interface {
	Meta(ctx context.Context, entityID int64, key string) (value string, found bool, err error)
	SetMeta(ctx context.Context, entityID int64, key, value string) error
}

// Store bundles both contracts.
type Store interface {
	OptionStore
	MetaStore
}
