// Package backend is the client for the hosted auth service. The service is
// the sole source of truth for session validity; everything the rest of the
// SDK caches is advisory.
package backend

import "context"

// UserData is the identity record returned by the service. The SDK never
// constructs one itself.
type UserData struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Provider         string `json:"provider,omitempty"`
	Name             string `json:"name,omitempty"`
	AvatarURL        string `json:"avatar_url,omitempty"`
	EmailConfirmedAt string `json:"email_confirmed_at,omitempty"`
}

// TokenResponse is the service's grant response: a bearer credential pair
// plus the user it belongs to.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	User         *UserData `json:"user,omitempty"`
}

// SignUpResult carries the outcome of account creation. Token is nil when
// the service requires email confirmation before issuing a session.
type SignUpResult struct {
	User  *UserData
	Token *TokenResponse
}

// Service is the set of auth service calls the SDK consumes.
type Service interface {
	// SignUp requests account creation. redirectTo is the email-verification
	// callback URL for the current platform.
	SignUp(ctx context.Context, email, password, redirectTo string) (*SignUpResult, error)

	// SignInWithPassword exchanges email credentials for a session grant.
	SignInWithPassword(ctx context.Context, email, password string) (*TokenResponse, error)

	// SignInWithIDToken exchanges a provider-issued identity token for a
	// session grant.
	SignInWithIDToken(ctx context.Context, provider, idToken string) (*TokenResponse, error)

	// RefreshSession exchanges a refresh token for a fresh grant.
	RefreshSession(ctx context.Context, refreshToken string) (*TokenResponse, error)

	// AuthorizeURL builds the redirect-based OAuth entry point for a
	// provider. The user-agent must navigate to it; the session comes back
	// as a redirect artifact.
	AuthorizeURL(provider, redirectTo string, params map[string]string) (string, error)

	// SignOut invalidates the session behind the access token.
	SignOut(ctx context.Context, accessToken string) error

	// GetUser fetches the identity record behind the access token.
	GetUser(ctx context.Context, accessToken string) (*UserData, error)

	// ResetPasswordForEmail sends a password-recovery email. redirectTo is
	// the recovery callback URL for the current platform.
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error

	// UpdatePassword sets a new password for the authenticated user.
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
}
