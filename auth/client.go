package auth

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/backend"
	"github.com/jrsteele09/go-auth-client/credstore"
	"github.com/jrsteele09/go-auth-client/platform"
	"github.com/jrsteele09/go-auth-client/provider"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Deps holds the collaborators injected into the Client. There is no global
// client; the embedding app constructs one and passes it around.
type Deps struct {
	Backend  backend.Service   // hosted auth service, the source of truth
	Platform platform.Adapter  // surface-specific behaviour
	Store    credstore.Store   // optional; defaults to Platform.CredentialStore()
	Provider provider.Identity // optional; native federated sign-in
}

// Client reconciles redirect artifacts, deep links and stored tokens into
// one authoritative session and exposes the auth operations.
type Client struct {
	backend     backend.Service
	platform    platform.Adapter
	store       credstore.Store
	provider    provider.Identity
	broadcaster *broadcaster
	nowTime     func() time.Time

	sessionLock sync.Mutex
	session     *Session
}

// Option modifies a Client instance.
type Option func(*Client)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// New creates an auth client with required dependencies. Optional
// configuration can be provided via options.
func New(deps Deps, options ...Option) (*Client, error) {
	if deps.Backend == nil {
		return nil, errors.New("[auth.New] Backend is required")
	}
	if deps.Platform == nil {
		return nil, errors.New("[auth.New] Platform is required")
	}

	store := deps.Store
	if store == nil {
		store = deps.Platform.CredentialStore()
	}
	if store == nil {
		return nil, errors.New("[auth.New] no credential store available")
	}

	client := &Client{
		backend:     deps.Backend,
		platform:    deps.Platform,
		store:       store,
		provider:    deps.Provider,
		broadcaster: newBroadcaster(),
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// OnAuthStateChange registers an observer for session changes. Observers are
// notified in registration order; the returned subscription's Unsubscribe is
// idempotent.
func (c *Client) OnAuthStateChange(fn ChangeFunc) *Subscription {
	return c.broadcaster.subscribe(fn)
}

// CurrentSession returns the authoritative session, or nil when signed out.
func (c *Client) CurrentSession() *Session {
	c.sessionLock.Lock()
	defer c.sessionLock.Unlock()
	return c.session
}

// installSession replaces the current session, caches it, and notifies
// observers. Cache writes are post-commit hooks: they never affect the
// operation that produced the session.
func (c *Client) installSession(session *Session, event Event) {
	c.sessionLock.Lock()
	c.session = session
	c.sessionLock.Unlock()

	if session != nil {
		if data, err := json.Marshal(session); err == nil {
			c.writeMeta(credstore.KeySession, string(data))
		}
	}
	c.broadcaster.emit(event, session)
}

// clearSession drops the current session, removes cached metadata, and
// notifies observers.
func (c *Client) clearSession() {
	c.sessionLock.Lock()
	c.session = nil
	c.sessionLock.Unlock()

	keys := []string{
		credstore.KeyLastSignIn,
		credstore.KeyUserEmail,
		credstore.KeyUserPreferences,
		credstore.KeyAuthProvider,
	}
	if err := c.store.RemoveMany(keys); err != nil {
		log.Warn().Err(err).Msg("failed to remove cached auth metadata")
	}
	if err := c.store.Remove(credstore.KeySession); err != nil {
		log.Warn().Err(err).Msg("failed to remove cached session")
	}
	c.broadcaster.emit(EventSignedOut, nil)
}

// writeMeta is a best-effort cache write: failures are logged, never
// surfaced.
func (c *Client) writeMeta(key, value string) {
	if err := c.store.Set(key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("credential store write failed")
	}
}
