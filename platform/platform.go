// Package platform selects the per-surface behaviour of the auth client at
// construction time: credential-store routing, callback URLs, and the
// address-bar capability the web redirect flow depends on. There is no
// runtime capability probing; the embedding app picks its adapter once.
package platform

import "github.com/jrsteele09/go-auth-client/credstore"

type Surface string

const (
	SurfaceWeb     Surface = "web"
	SurfaceIOS     Surface = "ios"
	SurfaceAndroid Surface = "android"
)

// Native reports whether the surface is a mobile platform.
func (s Surface) Native() bool {
	return s == SurfaceIOS || s == SurfaceAndroid
}

// Adapter is the per-platform contract shared by Web, NativeIOS and
// NativeAndroid variants.
type Adapter interface {
	Surface() Surface

	// RedirectURL builds the callback URL handed to the backend for email
	// verification and password recovery: an in-app scheme URL on native,
	// an origin-relative URL on web.
	RedirectURL(path string) string

	// CurrentURL and ReplaceURL model the visible address. Only the web
	// adapter has one; native adapters return "" and ignore replacements.
	CurrentURL() string
	ReplaceURL(rawURL string)

	// CredentialStore returns the platform-routed persistence for cached
	// auth metadata.
	CredentialStore() credstore.Store
}
