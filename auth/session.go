// Package auth is the client-side auth core: it reconciles redirect
// artifacts, deep links and stored tokens into one authoritative session,
// broadcasts session changes to observers, and exposes the auth operations.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/backend"
	"github.com/jrsteele09/go-auth-client/internal/utils"
)

// User is the identity behind a session. It is always derived from backend
// data (a grant payload or the access token's claims), never constructed by
// the client on its own.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Session is the client's cached copy of a backend-issued credential pair.
// At most one current session exists; installing a new one fully replaces
// the old.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user,omitempty"`
}

// Expired reports whether the access token's lifetime has passed. Sessions
// without a known expiry are treated as live; the backend is the judge.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// sessionFromGrant builds a session from a backend grant response.
func sessionFromGrant(grant *backend.TokenResponse, now time.Time) *Session {
	session := &Session{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		TokenType:    grant.TokenType,
	}
	if grant.ExpiresIn > 0 {
		session.ExpiresAt = now.Add(time.Duration(grant.ExpiresIn) * time.Second)
	}
	if grant.User != nil {
		session.User = userFromData(grant.User)
	} else {
		session.User = userFromClaims(grant.AccessToken)
	}
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = expiryFromClaims(grant.AccessToken)
	}
	return session
}

// sessionFromTokens builds a session straight from redirect-artifact tokens.
// The refresh token may be empty; user and expiry come from the access
// token's claims.
func sessionFromTokens(accessToken, refreshToken string) *Session {
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    expiryFromClaims(accessToken),
		User:         userFromClaims(accessToken),
	}
}

func userFromData(data *backend.UserData) *User {
	return &User{
		ID:        data.ID,
		Email:     data.Email,
		Provider:  data.Provider,
		Name:      data.Name,
		AvatarURL: data.AvatarURL,
	}
}

// userFromClaims extracts the identity from the access token's claims. The
// parse is unverified: signature and expiry enforcement belong to the
// backend, the claims are used for display and cache metadata only.
func userFromClaims(accessToken string) *User {
	claims := parseClaims(accessToken)
	if claims == nil {
		return nil
	}

	user := &User{}
	user.ID, _ = claims["sub"].(string)
	user.Email, _ = claims["email"].(string)

	if appMetadata, ok := claims["app_metadata"].(map[string]any); ok {
		user.Provider, _ = appMetadata["provider"].(string)
		if user.Provider == "" {
			if providers, ok := appMetadata["providers"].([]any); ok {
				if names := utils.ToStringSlice(providers); len(names) > 0 {
					user.Provider = names[0]
				}
			}
		}
	}
	if userMetadata, ok := claims["user_metadata"].(map[string]any); ok {
		user.Name, _ = userMetadata["name"].(string)
		user.AvatarURL, _ = userMetadata["avatar_url"].(string)
	}

	if user.ID == "" && user.Email == "" {
		return nil
	}
	return user
}

func expiryFromClaims(accessToken string) time.Time {
	claims := parseClaims(accessToken)
	if claims == nil {
		return time.Time{}
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}
	}
	return expiry.Time
}

func parseClaims(accessToken string) jwt.MapClaims {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil
	}
	return claims
}
