package ftp

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ftpstore/ftpstore/internal/metrics"
	"github.com/ftpstore/ftpstore/pkg/retry"
	"github.com/ftpstore/ftpstore/pkg/storage"
)

// Provider is the FTP storage backend. It validates queries, resolves
// them into objects, and owns the session pool those objects share: one
// lazily-dialed Session per endpoint, held for the provider's lifetime.
type Provider struct {
	settings Settings
	log      logrus.FieldLogger
	metrics  *metrics.Collector
	retry    retry.Config

	mu       sync.RWMutex
	sessions map[Endpoint]*Session
	closed   bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger routes the provider's logging to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Provider) { p.log = l }
}

// WithMetrics records operation metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Provider) { p.metrics = c }
}

// WithRetry overrides the attempt budget and backoff shape for remote
// operations. Which errors count as transient stays with the backend.
func WithRetry(cfg retry.Config) Option {
	return func(p *Provider) { p.retry = cfg }
}

// NewProvider builds a Provider for the given settings. Settings that ask
// for active-mode transfers are rejected with ErrActiveModeUnsupported.
func NewProvider(settings Settings, opts ...Option) (*Provider, error) {
	if settings.ActiveMode {
		return nil, ErrActiveModeUnsupported
	}

	p := &Provider{
		settings: settings,
		log:      logrus.StandardLogger(),
		retry:    defaultRetryConfig(),
		sessions: make(map[Endpoint]*Session),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.retry.Classify = isRetryable
	return p, nil
}

// defaultRetryConfig is the policy remote operations run under when the
// host does not override it with WithRetry.
func defaultRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		Classify:     isRetryable,
	}
}

// ValidateQuery reports whether query is one this backend can serve.
func (p *Provider) ValidateQuery(query string) error {
	return ValidateQuery(query)
}

// Object resolves a query into a storage object bound to the pooled
// session for the query's endpoint.
func (p *Provider) Object(query string) (storage.Object, error) {
	parsed, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}
	sess, err := p.session(parsed.Endpoint())
	if err != nil {
		return nil, err
	}
	return newObject(p, parsed, sess), nil
}

// session returns the pooled session for ep, creating it on first use.
// Lookups never probe liveness: a dropped connection is re-dialed by the
// session itself on its next command.
func (p *Provider) session(ep Endpoint) (*Session, error) {
	p.mu.RLock()
	sess, ok := p.sessions[ep]
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, errors.New("provider is closed")
	}
	if ok {
		return sess, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errors.New("provider is closed")
	}
	if sess, ok := p.sessions[ep]; ok {
		return sess, nil
	}
	sess = newSession(ep, p.settings, p.log)
	p.sessions[ep] = sess
	p.metrics.SetSessions(len(p.sessions))
	p.log.WithField("endpoint", ep.String()).Debug("session pooled")
	return sess, nil
}

// Close quits every pooled session. Objects created by this provider must
// not be used afterwards.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var firstErr error
	for ep, sess := range p.sessions {
		if err := sess.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "close session %s", ep)
		}
	}
	p.sessions = nil
	p.metrics.SetSessions(0)
	return firstErr
}

// UsesRateLimiter reports that hosts should throttle calls into this
// backend.
func (p *Provider) UsesRateLimiter() bool {
	return true
}

// DefaultMaxRequestsPerSecond is the throttle hosts fall back to when the
// user configured no rate.
func (p *Provider) DefaultMaxRequestsPerSecond() float64 {
	return 10
}

// RateLimiterKey buckets requests by the query's network location, so all
// queries against one server share a budget.
func (p *Provider) RateLimiterKey(query string) (string, error) {
	parsed, err := ParseQuery(query)
	if err != nil {
		return "", err
	}
	return parsed.Endpoint().Addr(), nil
}

// ExampleQueries documents the query forms this backend accepts.
func ExampleQueries() []storage.ExampleQuery {
	return []storage.ExampleQuery{
		{Query: "ftp://ftpserver.com:21/myfile.txt", Description: "A file on an FTP server."},
		{Query: "ftps://ftpserver.com:21/myfile.txt", Description: "A file on an FTP server, transferred over TLS."},
	}
}

// Interface checks
var (
	_ storage.Provider    = (*Provider)(nil)
	_ storage.RateLimited = (*Provider)(nil)
	_ storage.Object      = (*Object)(nil)
	_ storage.Globber     = (*Object)(nil)
)
