// Package storage defines the contract between workflow hosts and remote
// storage backends. A backend turns query strings into objects that can be
// checked, transferred, and removed; the host owns wildcard resolution, job
// scheduling, and the local staging area.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider resolves query strings into storage objects. Implementations
// pool whatever remote state their objects share, so a Provider must be
// closed once the host is done with it.
type Provider interface {
	// ValidateQuery checks that a query is one this backend can serve.
	// A rejection is returned as a *ValidationError.
	ValidateQuery(query string) error

	// Object resolves a query into an Object. The query must be valid.
	Object(query string) (Object, error)

	// Close releases every pooled resource. The Provider must not be
	// used afterwards.
	Close() error
}

// Object is a single remote object addressed by a query string. Methods
// that reach the remote take a context and may retry transient failures
// internally; they return the error of the final attempt.
type Object interface {
	// Query returns the query string the object was created from.
	Query() string

	// LocalSuffix returns the path suffix the host should stage this
	// object under in its local working area.
	LocalSuffix() string

	// Exists reports whether the object is present on the remote. A
	// connection failure is returned as an error, never as false.
	Exists(ctx context.Context) (bool, error)

	// ModTime returns the remote modification time. The object must
	// exist.
	ModTime(ctx context.Context) (time.Time, error)

	// Size returns the remote size in bytes. The object must exist.
	Size(ctx context.Context) (int64, error)

	// Retrieve downloads the object to localPath. A directory object
	// downloads recursively, preserving its relative structure.
	Retrieve(ctx context.Context, localPath string) error

	// Store uploads localPath to the object's remote path, creating
	// missing remote parent directories first. A local directory
	// uploads recursively.
	Store(ctx context.Context, localPath string) error

	// Remove deletes the object. A directory is removed together with
	// its entire subtree.
	Remove(ctx context.Context) error
}

// Globber is implemented by objects whose query may contain wildcard
// placeholders. Candidates enumerates the remote paths the host should
// match the full pattern against.
type Globber interface {
	Candidates(ctx context.Context) ([]string, error)
}

// RateLimited is implemented by providers that want the host to throttle
// how often it calls them. The backend only supplies the hint; enforcement
// is the host's job.
type RateLimited interface {
	// UsesRateLimiter reports whether the host should apply a rate
	// limiter at all.
	UsesRateLimiter() bool

	// DefaultMaxRequestsPerSecond is the rate the host falls back to
	// when the user configured none.
	DefaultMaxRequestsPerSecond() float64

	// RateLimiterKey maps a query to the bucket its requests count
	// against, usually the query's network location.
	RateLimiterKey(query string) (string, error)
}

// EntryInfo describes one remote directory entry.
type EntryInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// ExampleQuery documents one query form a backend accepts.
type ExampleQuery struct {
	Query       string
	Description string
}

// ValidationError reports why a query was rejected.
type ValidationError struct {
	Query  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query %q: %s", e.Query, e.Reason)
}

// ErrNotExist reports that the remote path a query points to is absent.
var ErrNotExist = errors.New("object does not exist")
