// Package backendfake provides an in-memory auth service for tests.
package backendfake

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/backend"
)

var _ backend.Service = (*FakeService)(nil)

type account struct {
	user     backend.UserData
	password string
}

// FakeService is a scriptable stand-in for the hosted auth service. Accounts
// are registered up front or via SignUp; issued tokens are signed JWTs so
// the SDK's claims parsing sees realistic input.
type FakeService struct {
	lock sync.Mutex

	accounts      map[string]*account // keyed by email
	idTokens      map[string]backend.UserData
	refreshTokens map[string]string // refresh token -> email
	revoked       map[string]bool   // access tokens invalidated by SignOut

	nextUserID int
	nextGrant  int

	// ConfirmEmail makes SignUp return a user without a session, modelling
	// a service that requires email verification.
	ConfirmEmail bool

	// Forced errors, returned verbatim when non-nil.
	SignUpErr   error
	SignInErr   error
	SignOutErr  error
	RefreshErr  error
	RecoverErr  error
	PasswordErr error

	// Call records.
	SignOutCalls     int
	RecoverRequests  []string // emails
	RecoverRedirects []string
	SignUpRedirects  []string
	PasswordUpdates  []string // new passwords
	IDTokenExchanges []string // provider:idToken
	RefreshedTokens  []string
}

func NewFakeService() *FakeService {
	return &FakeService{
		accounts:      make(map[string]*account),
		idTokens:      make(map[string]backend.UserData),
		refreshTokens: make(map[string]string),
		revoked:       make(map[string]bool),
	}
}

// AddAccount registers an email/password account and returns its user record.
func (f *FakeService) AddAccount(email, password string) backend.UserData {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.addAccountLocked(email, password, "email")
}

// AddIDToken registers a provider identity token that SignInWithIDToken will
// accept for the given email.
func (f *FakeService) AddIDToken(idToken, email string) backend.UserData {
	f.lock.Lock()
	defer f.lock.Unlock()

	acct, ok := f.accounts[email]
	if !ok {
		f.addAccountLocked(email, "", "google")
		acct = f.accounts[email]
	}
	user := acct.user
	user.Provider = "google"
	f.idTokens[idToken] = user
	return user
}

func (f *FakeService) addAccountLocked(email, password, provider string) backend.UserData {
	f.nextUserID++
	user := backend.UserData{
		ID:       fmt.Sprintf("user-%d", f.nextUserID),
		Email:    email,
		Provider: provider,
	}
	f.accounts[email] = &account{user: user, password: password}
	return user
}

func (f *FakeService) SignUp(ctx context.Context, email, password, redirectTo string) (*backend.SignUpResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	if _, exists := f.accounts[email]; exists {
		return nil, &backend.APIError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}

	f.SignUpRedirects = append(f.SignUpRedirects, redirectTo)
	user := f.addAccountLocked(email, password, "email")
	if f.ConfirmEmail {
		return &backend.SignUpResult{User: &user}, nil
	}

	token := f.grantLocked(user)
	return &backend.SignUpResult{User: &user, Token: token}, nil
}

func (f *FakeService) SignInWithPassword(ctx context.Context, email, password string) (*backend.TokenResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		return nil, &backend.APIError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	return f.grantLocked(acct.user), nil
}

func (f *FakeService) SignInWithIDToken(ctx context.Context, provider, idToken string) (*backend.TokenResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	f.IDTokenExchanges = append(f.IDTokenExchanges, provider+":"+idToken)
	user, ok := f.idTokens[idToken]
	if !ok {
		return nil, &backend.APIError{Status: http.StatusBadRequest, Code: "invalid_id_token", Message: "Invalid identity token"}
	}
	return f.grantLocked(user), nil
}

func (f *FakeService) RefreshSession(ctx context.Context, refreshToken string) (*backend.TokenResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	f.RefreshedTokens = append(f.RefreshedTokens, refreshToken)
	email, ok := f.refreshTokens[refreshToken]
	if !ok {
		return nil, &backend.APIError{Status: http.StatusBadRequest, Code: "refresh_token_not_found", Message: "Invalid refresh token"}
	}
	delete(f.refreshTokens, refreshToken)
	return f.grantLocked(f.accounts[email].user), nil
}

func (f *FakeService) AuthorizeURL(provider, redirectTo string, params map[string]string) (string, error) {
	query := url.Values{}
	query.Set("provider", provider)
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}
	for key, value := range params {
		query.Set(key, value)
	}
	return "https://auth.fake.test/authorize?" + query.Encode(), nil
}

func (f *FakeService) SignOut(ctx context.Context, accessToken string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.SignOutCalls++
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.revoked[accessToken] = true
	return nil
}

func (f *FakeService) GetUser(ctx context.Context, accessToken string) (*backend.UserData, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.revoked[accessToken] {
		return nil, &backend.APIError{Status: http.StatusUnauthorized, Code: "session_not_found", Message: "Session not found"}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, &backend.APIError{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: "Invalid token"}
	}
	email, _ := claims["email"].(string)
	acct, ok := f.accounts[email]
	if !ok {
		return nil, &backend.APIError{Status: http.StatusNotFound, Code: "user_not_found", Message: "User not found"}
	}
	user := acct.user
	return &user, nil
}

func (f *FakeService) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.RecoverErr != nil {
		return f.RecoverErr
	}
	f.RecoverRequests = append(f.RecoverRequests, email)
	f.RecoverRedirects = append(f.RecoverRedirects, redirectTo)
	return nil
}

func (f *FakeService) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.PasswordErr != nil {
		return f.PasswordErr
	}
	f.PasswordUpdates = append(f.PasswordUpdates, newPassword)
	return nil
}

// IssueGrant mints a grant outside any operation, for seeding tests with a
// pre-existing session.
func (f *FakeService) IssueGrant(email string) *backend.TokenResponse {
	f.lock.Lock()
	defer f.lock.Unlock()

	acct, ok := f.accounts[email]
	if !ok {
		f.addAccountLocked(email, "", "email")
		acct = f.accounts[email]
	}
	return f.grantLocked(acct.user)
}

var fakeSigningKey = []byte("backendfake-signing-key")

func (f *FakeService) grantLocked(user backend.UserData) *backend.TokenResponse {
	f.nextGrant++
	refresh := fmt.Sprintf("refresh-%s-%d", user.ID, f.nextGrant)
	f.refreshTokens[refresh] = user.Email

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"app_metadata": map[string]any{
			"provider": user.Provider,
		},
		"user_metadata": map[string]any{
			"name":       user.Name,
			"avatar_url": user.AvatarURL,
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fakeSigningKey)
	if err != nil {
		panic(err) // static key and claims, cannot fail
	}

	userCopy := user
	return &backend.TokenResponse{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		RefreshToken: refresh,
		User:         &userCopy,
	}
}
