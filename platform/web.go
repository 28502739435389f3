package platform

import (
	"strings"
	"sync"

	"github.com/jrsteele09/go-auth-client/credstore"
	"github.com/rs/zerolog/log"
)

var _ Adapter = (*Web)(nil)

// Web is the browser surface. The embedding app feeds it the current
// location via SetCurrentURL; the bootstrap flow reads and scrubs it through
// CurrentURL/ReplaceURL.
type Web struct {
	origin string
	store  credstore.Store

	addressLock sync.RWMutex
	address     string
}

// NewWeb creates the web adapter. durable is the browser-local store; when
// nil an in-memory store is used and cached data does not survive a reload.
func NewWeb(origin string, durable credstore.Store) *Web {
	if durable == nil {
		log.Debug().Msg("no durable web storage available, falling back to in-memory store")
		durable = credstore.NewMemory()
	}
	return &Web{
		origin: strings.TrimRight(origin, "/"),
		store:  durable,
	}
}

func (w *Web) Surface() Surface {
	return SurfaceWeb
}

func (w *Web) RedirectURL(path string) string {
	if path == "" {
		return w.origin
	}
	return w.origin + "/" + strings.TrimLeft(path, "/")
}

// SetCurrentURL records the browser's current location.
func (w *Web) SetCurrentURL(rawURL string) {
	w.addressLock.Lock()
	defer w.addressLock.Unlock()
	w.address = rawURL
}

func (w *Web) CurrentURL() string {
	w.addressLock.RLock()
	defer w.addressLock.RUnlock()
	return w.address
}

// ReplaceURL updates the visible address without a reload, mirroring the
// browser history-replacement used to scrub redirect fragments.
func (w *Web) ReplaceURL(rawURL string) {
	w.SetCurrentURL(rawURL)
}

func (w *Web) CredentialStore() credstore.Store {
	return w.store
}
