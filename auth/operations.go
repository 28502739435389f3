package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-client/credstore"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/jrsteele09/go-auth-client/platform"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	providerEmail  = "email"
	providerGoogle = "google"
)

// SignUpResult is the outcome of account creation. A set User with a nil
// Session means the backend requires email verification before issuing a
// session; the UI should treat that as pending verification, not as
// authenticated.
type SignUpResult struct {
	User    *User
	Session *Session
}

// SignUpWithEmail requests account creation with a platform-appropriate
// email-verification callback URL.
func (c *Client) SignUpWithEmail(ctx context.Context, email, password string) (*SignUpResult, error) {
	result, err := c.backend.SignUp(ctx, email, password, c.platform.RedirectURL(verifyEmailPath))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SignUpWithEmail]")
	}

	c.writeMeta(credstore.KeyLastSignUpAttempt, c.nowTime().UTC().Format(time.RFC3339))
	c.writeMeta(credstore.KeyAuthProvider, providerEmail)

	signUp := &SignUpResult{}
	if result.User != nil {
		signUp.User = userFromData(result.User)
	}
	if result.Token != nil {
		session := sessionFromGrant(result.Token, c.nowTime())
		c.installSession(session, EventSignedIn)
		c.recordSignIn(email, providerEmail)
		signUp.Session = session
		if signUp.User == nil {
			signUp.User = session.User
		}
	}
	return signUp, nil
}

// SignInWithEmail exchanges email credentials for a session.
func (c *Client) SignInWithEmail(ctx context.Context, email, password string) (*Session, error) {
	grant, err := c.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SignInWithEmail]")
	}

	session := sessionFromGrant(grant, c.nowTime())
	c.installSession(session, EventSignedIn)
	c.recordSignIn(email, providerEmail)
	return session, nil
}

// GoogleSignIn is the outcome of SignInWithGoogle. On web the flow leaves
// the app: RedirectURL is set and the session arrives later as a redirect
// artifact through Bootstrap. On native the session is resolved in place.
type GoogleSignIn struct {
	Session     *Session
	RedirectURL string
}

// SignInWithGoogle starts the platform-appropriate Google sign-in flow. On
// web it builds the backend's redirect-based OAuth URL with forced
// re-consent; on native it runs the provider handshake and exchanges the
// resulting identity token with the backend.
func (c *Client) SignInWithGoogle(ctx context.Context) (*GoogleSignIn, error) {
	if c.platform.Surface() == platform.SurfaceWeb {
		authURL, err := c.backend.AuthorizeURL(providerGoogle, c.platform.RedirectURL(""), map[string]string{
			"prompt": "consent",
		})
		if err != nil {
			return nil, errors.Wrap(err, "[Client.SignInWithGoogle] authorize URL")
		}
		return &GoogleSignIn{RedirectURL: authURL}, nil
	}

	if c.provider == nil {
		return nil, ErrProviderUnavailable
	}
	idToken, err := c.provider.SignIn(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SignInWithGoogle] provider sign-in")
	}
	if idToken == "" {
		return nil, ErrNoIdentityToken
	}

	session, err := c.SignInWithGoogleToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &GoogleSignIn{Session: session}, nil
}

// SignInWithGoogleToken exchanges a pre-obtained identity token for a
// session. Used directly when the OAuth handshake is managed elsewhere.
func (c *Client) SignInWithGoogleToken(ctx context.Context, idToken string) (*Session, error) {
	grant, err := c.backend.SignInWithIDToken(ctx, providerGoogle, idToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.SignInWithGoogleToken]")
	}

	session := sessionFromGrant(grant, c.nowTime())
	c.installSession(session, EventSignedIn)
	c.recordSignIn(utils.Value(session.User).Email, providerGoogle)
	return session, nil
}

// SignOut invalidates the backend session and removes cached metadata. On
// native the provider's own session is cleared first, best-effort.
func (c *Client) SignOut(ctx context.Context) error {
	if c.platform.Surface().Native() && c.provider != nil {
		if err := c.provider.SignOut(ctx); err != nil {
			log.Warn().Err(err).Msg("provider sign-out failed")
		}
	}

	if session := c.CurrentSession(); session != nil {
		if err := c.backend.SignOut(ctx, session.AccessToken); err != nil {
			return errors.Wrap(err, "[Client.SignOut]")
		}
	}

	c.clearSession()
	return nil
}

// ResetPassword sends a password-recovery email with a platform-appropriate
// callback URL.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	if err := c.backend.ResetPasswordForEmail(ctx, email, c.platform.RedirectURL(resetPasswordPath)); err != nil {
		return errors.Wrap(err, "[Client.ResetPassword]")
	}
	return nil
}

// UpdatePassword sets a new password for the signed-in user.
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	session := c.CurrentSession()
	if session == nil {
		return ErrNoSession
	}
	if err := c.backend.UpdatePassword(ctx, session.AccessToken, newPassword); err != nil {
		return errors.Wrap(err, "[Client.UpdatePassword]")
	}
	return nil
}

// RefreshSession exchanges the current refresh token for a fresh grant and
// notifies observers with a token-refreshed event.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	current := c.CurrentSession()
	if current == nil || current.RefreshToken == "" {
		return nil, ErrNoSession
	}

	grant, err := c.backend.RefreshSession(ctx, current.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.RefreshSession]")
	}

	session := sessionFromGrant(grant, c.nowTime())
	c.installSession(session, EventTokenRefreshed)
	return session, nil
}

// GetUser fetches the identity record behind the current session from the
// backend.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	session := c.CurrentSession()
	if session == nil {
		return nil, ErrNoSession
	}
	data, err := c.backend.GetUser(ctx, session.AccessToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.GetUser]")
	}
	return userFromData(data), nil
}

// HasPreviousSignIn reports whether a user has signed in before: on native
// it defers to the provider SDK's own flag, on web it is equivalent to a
// session currently resolving.
func (c *Client) HasPreviousSignIn() bool {
	if c.platform.Surface().Native() && c.provider != nil {
		return c.provider.HasPreviousSignIn()
	}
	return c.CurrentSession() != nil
}

// recordSignIn is the post-commit hook after a successful sign-in: cache
// writes only, never affecting the operation's outcome.
func (c *Client) recordSignIn(email, providerTag string) {
	c.writeMeta(credstore.KeyLastSignIn, c.nowTime().UTC().Format(time.RFC3339))
	if email != "" {
		c.writeMeta(credstore.KeyUserEmail, email)
	}
	c.writeMeta(credstore.KeyAuthProvider, providerTag)
}
