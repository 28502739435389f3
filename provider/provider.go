// Package provider defines the identity-provider contract used for native
// federated sign-in.
package provider

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when no provider SDK exists for the
	// current platform.
	ErrUnavailable = errors.New("identity provider unavailable")

	// ErrNoIdentityToken is returned when the provider handshake completed
	// but yielded no identity token to exchange with the backend.
	ErrNoIdentityToken = errors.New("no identity token returned")
)

// Identity is the native sign-in contract: it produces a provider-issued
// identity token that the backend exchanges for a session.
type Identity interface {
	// SignIn runs the provider's sign-in flow and returns the raw identity
	// token.
	SignIn(ctx context.Context) (string, error)

	// SignOut clears the provider's own session. Best-effort; callers log
	// failures and move on.
	SignOut(ctx context.Context) error

	// HasPreviousSignIn reports the provider SDK's own memory of an
	// earlier sign-in on this device.
	HasPreviousSignIn() bool
}
