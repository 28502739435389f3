package auth

import (
	"errors"

	"github.com/jrsteele09/go-auth-client/provider"
)

var (
	ErrNoSession = errors.New("no current session")

	// Aliased so callers can match with errors.Is without importing the
	// provider package.
	ErrProviderUnavailable = provider.ErrUnavailable
	ErrNoIdentityToken     = provider.ErrNoIdentityToken
)
