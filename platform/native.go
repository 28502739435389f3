package platform

import (
	"strings"

	"github.com/jrsteele09/go-auth-client/credstore"
	"github.com/pkg/errors"
)

var _ Adapter = (*Native)(nil)

// Native is a mobile surface. Sensitive keys route to the secure enclave
// store, everything else to general persistent storage; deep links use the
// app's URL scheme.
type Native struct {
	surface Surface
	scheme  string
	store   *credstore.Routing
}

// NewNativeIOS creates the iOS adapter.
func NewNativeIOS(scheme string, secure, general credstore.Store) (*Native, error) {
	return newNative(SurfaceIOS, scheme, secure, general)
}

// NewNativeAndroid creates the Android adapter.
func NewNativeAndroid(scheme string, secure, general credstore.Store) (*Native, error) {
	return newNative(SurfaceAndroid, scheme, secure, general)
}

func newNative(surface Surface, scheme string, secure, general credstore.Store) (*Native, error) {
	if scheme == "" {
		return nil, errors.New("[newNative] app scheme is required")
	}
	routing, err := credstore.NewRouting(secure, general)
	if err != nil {
		return nil, errors.Wrap(err, "[newNative]")
	}
	return &Native{surface: surface, scheme: scheme, store: routing}, nil
}

func (n *Native) Surface() Surface {
	return n.surface
}

func (n *Native) RedirectURL(path string) string {
	return n.scheme + "://" + strings.TrimLeft(path, "/")
}

func (n *Native) CurrentURL() string {
	return ""
}

func (n *Native) ReplaceURL(string) {}

func (n *Native) CredentialStore() credstore.Store {
	return n.store
}
