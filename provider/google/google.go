// Package google implements native Google sign-in through the standard OIDC
// authorization-code flow with a loopback redirect, the desktop analogue of
// the mobile Google sign-in sheet.
package google

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-client/provider"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	issuerURL        = "https://accounts.google.com"
	revocationURL    = "https://oauth2.googleapis.com/revoke"
	handshakeTimeout = 3 * time.Minute
)

var _ provider.Identity = (*Google)(nil)

// Google runs the Google OIDC flow and hands back the raw ID token for the
// backend to exchange. Token validation stays with the backend.
type Google struct {
	oauthConfig *oauth2.Config
	openURL     func(authURL string) error
	httpClient  *http.Client

	lock      sync.Mutex
	lastToken *oauth2.Token
	signedIn  bool
}

// Option modifies a Google instance.
type Option func(*Google)

// WithOpenURL sets the function that presents the consent URL to the user.
// The default prints it to the log for the user to open manually.
func WithOpenURL(openURL func(authURL string) error) Option {
	return func(g *Google) {
		g.openURL = openURL
	}
}

// WithHTTPClient replaces the client used for token revocation.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(g *Google) {
		g.httpClient = httpClient
	}
}

// New discovers Google's OIDC endpoints and prepares the loopback flow.
// redirectURL must be a loopback address such as "http://127.0.0.1:8499/callback".
func New(ctx context.Context, clientID, clientSecret, redirectURL string, options ...Option) (*Google, error) {
	if clientID == "" {
		return nil, errors.New("[google.New] clientID is required")
	}
	if redirectURL == "" {
		return nil, errors.New("[google.New] redirectURL is required")
	}

	oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "[google.New] oidc.NewProvider")
	}

	g := &Google{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oidcProvider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		openURL: func(authURL string) error {
			log.Info().Str("url", authURL).Msg("open this URL to continue Google sign-in")
			return nil
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// SignIn runs the authorization-code handshake on the loopback redirect and
// returns the raw ID token.
func (g *Google) SignIn(ctx context.Context) (string, error) {
	state, err := randomToken()
	if err != nil {
		return "", errors.Wrap(err, "[Google.SignIn] state")
	}

	redirect, err := url.Parse(g.oauthConfig.RedirectURL)
	if err != nil {
		return "", errors.Wrap(err, "[Google.SignIn] parse redirect URL")
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", errors.Wrap(err, "[Google.SignIn] listen on loopback redirect")
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			http.Error(w, "Sign-in failed: "+errParam, http.StatusBadRequest)
			errCh <- errors.Errorf("[Google.SignIn] authorization error: %s", errParam)
			return
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state", http.StatusBadRequest)
			errCh <- errors.New("[Google.SignIn] state mismatch")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing code", http.StatusBadRequest)
			errCh <- errors.New("[Google.SignIn] missing authorization code")
			return
		}
		_, _ = w.Write([]byte("Signed in. You can return to the app."))
		codeCh <- code
	})

	server := &http.Server{Handler: mux}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- errors.Wrap(serveErr, "[Google.SignIn] loopback server")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := g.oauthConfig.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
	if err := g.openURL(authURL); err != nil {
		return "", errors.Wrap(err, "[Google.SignIn] open consent URL")
	}

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return "", err
	case <-time.After(handshakeTimeout):
		return "", errors.New("[Google.SignIn] handshake timed out")
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "[Google.SignIn]")
	}

	oauth2Token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return "", errors.Wrap(err, "[Google.SignIn] code exchange")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", provider.ErrNoIdentityToken
	}

	g.lock.Lock()
	g.lastToken = oauth2Token
	g.signedIn = true
	g.lock.Unlock()

	return rawIDToken, nil
}

// SignOut revokes the cached Google token and clears the provider session.
func (g *Google) SignOut(ctx context.Context) error {
	g.lock.Lock()
	token := g.lastToken
	g.lastToken = nil
	g.signedIn = false
	g.lock.Unlock()

	if token == nil {
		return nil
	}

	form := url.Values{"token": {token.AccessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "[Google.SignOut] build revocation request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Google.SignOut] revoke token")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("[Google.SignOut] revocation failed with status %d", resp.StatusCode)
	}
	return nil
}

func (g *Google) HasPreviousSignIn() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.signedIn
}

func randomToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
