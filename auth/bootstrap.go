package auth

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/go-auth-client/credstore"
	"github.com/jrsteele09/go-auth-client/platform"
	"github.com/rs/zerolog/log"
)

// Bootstrap produces the authoritative session at startup: it reconciles a
// pending web redirect artifact first, then falls back to whatever session
// was previously persisted. Observers receive exactly one initial event, and
// a nil session is a normal outcome.
//
// Bootstrap and HandleDeepLink are not synchronised against each other:
// whichever installs last wins, which is acceptable under single-user
// session semantics.
func (c *Client) Bootstrap(ctx context.Context) (*Session, error) {
	if c.platform.Surface() == platform.SurfaceWeb {
		if session := c.reconcileRedirect(); session != nil {
			c.installSession(session, EventInitialSession)
			return session, nil
		}
	}

	session := c.restoreSession(ctx)
	c.installSession(session, EventInitialSession)
	return session, nil
}

// reconcileRedirect inspects the current address for OAuth redirect
// fragments. The fragment is scrubbed from the visible address either way so
// a refresh cannot reprocess it.
func (c *Client) reconcileRedirect() *Session {
	current := c.platform.CurrentURL()
	if current == "" {
		return nil
	}
	artifact := parseFragmentArtifact(current)
	if artifact == nil {
		return nil
	}

	c.platform.ReplaceURL(stripFragment(current))

	if artifact.accessToken == "" {
		// error-only artifact: no session, but not fatal
		log.Debug().Str("error", artifact.errorCode).Msg("redirect artifact carried an error, falling through to stored session")
		return nil
	}
	return sessionFromTokens(artifact.accessToken, artifact.refreshToken)
}

// restoreSession loads the persisted session and refreshes it through the
// backend when expired. Any failure drops the cached copy and resolves to no
// session; the cache is never trusted over the backend.
func (c *Client) restoreSession(ctx context.Context) *Session {
	raw, err := c.store.Get(credstore.KeySession)
	if err != nil || raw == "" {
		return nil
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		log.Warn().Err(err).Msg("dropping unreadable cached session")
		c.dropCachedSession()
		return nil
	}

	if !session.Expired(c.nowTime()) {
		return &session
	}
	if session.RefreshToken == "" {
		c.dropCachedSession()
		return nil
	}

	grant, err := c.backend.RefreshSession(ctx, session.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("cached session refresh failed")
		c.dropCachedSession()
		return nil
	}
	return sessionFromGrant(grant, c.nowTime())
}

func (c *Client) dropCachedSession() {
	if err := c.store.Remove(credstore.KeySession); err != nil {
		log.Warn().Err(err).Msg("failed to remove cached session")
	}
}

// HandleDeepLink reconciles an incoming native deep link. When the link
// carries a session it is installed and the operation type returned so the
// UI can branch (e.g. navigate to a password-reset screen). Links without an
// actionable artifact resolve to LinkNone without error.
func (c *Client) HandleDeepLink(ctx context.Context, rawURL string) (LinkType, error) {
	artifact := parseDeepLinkArtifact(rawURL)
	if artifact == nil || artifact.accessToken == "" || artifact.linkType == LinkNone {
		return LinkNone, nil
	}

	session := sessionFromTokens(artifact.accessToken, artifact.refreshToken)
	event := EventSignedIn
	if artifact.linkType == LinkRecovery {
		event = EventPasswordRecovery
	}
	c.installSession(session, event)
	return artifact.linkType, nil
}
