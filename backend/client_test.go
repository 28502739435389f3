package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jrsteele09/go-auth-client/backend"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "public-anon-key"

func newTestClient(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := backend.NewClient(server.URL, testAPIKey)
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	_, err := backend.NewClient("", "key")
	require.Error(t, err)
	_, err = backend.NewClient("https://auth.example.com", "")
	require.Error(t, err)
}

func TestSignInWithPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, testAPIKey, r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@x.com", body["email"])
		require.Equal(t, "pw123456", body["password"])

		_ = json.NewEncoder(w).Encode(backend.TokenResponse{
			AccessToken:  "access-1",
			TokenType:    "bearer",
			ExpiresIn:    3600,
			RefreshToken: "refresh-1",
			User:         &backend.UserData{ID: "user-1", Email: "a@x.com"},
		})
	})

	resp, err := client.SignInWithPassword(context.Background(), "a@x.com", "pw123456")
	require.NoError(t, err)
	require.Equal(t, "access-1", resp.AccessToken)
	require.Equal(t, "refresh-1", resp.RefreshToken)
	require.Equal(t, "a@x.com", resp.User.Email)
}

func TestSignInWithPasswordRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"invalid_credentials","msg":"Invalid login credentials"}`))
	})

	_, err := client.SignInWithPassword(context.Background(), "a@x.com", "wrong")
	require.Error(t, err)

	apiErr, ok := backend.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "invalid_credentials", apiErr.Code)
}

func TestSignUpWithConfirmationRequired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/signup", r.URL.Path)
		require.Equal(t, "myapp://verify-email", r.URL.Query().Get("redirect_to"))
		_ = json.NewEncoder(w).Encode(backend.UserData{ID: "user-2", Email: "b@x.com"})
	})

	result, err := client.SignUp(context.Background(), "b@x.com", "pw123456", "myapp://verify-email")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	require.Equal(t, "b@x.com", result.User.Email)
	require.Nil(t, result.Token)
}

func TestSignUpWithImmediateSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(backend.TokenResponse{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			User:         &backend.UserData{ID: "user-3", Email: "c@x.com"},
		})
	})

	result, err := client.SignUp(context.Background(), "c@x.com", "pw123456", "")
	require.NoError(t, err)
	require.NotNil(t, result.Token)
	require.Equal(t, "access-2", result.Token.AccessToken)
	require.Equal(t, "c@x.com", result.User.Email)
}

func TestSignInWithIDToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "id_token", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "google", body["provider"])
		require.Equal(t, "gid-token", body["id_token"])
		_ = json.NewEncoder(w).Encode(backend.TokenResponse{AccessToken: "access-3"})
	})

	resp, err := client.SignInWithIDToken(context.Background(), "google", "gid-token")
	require.NoError(t, err)
	require.Equal(t, "access-3", resp.AccessToken)
}

func TestSignOutSendsBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/logout", r.URL.Path)
		require.Equal(t, "Bearer access-4", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.SignOut(context.Background(), "access-4"))
}

func TestResetPasswordForEmail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/recover", r.URL.Path)
		require.Equal(t, "https://app.example.com/reset-password", r.URL.Query().Get("redirect_to"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})

	err := client.ResetPasswordForEmail(context.Background(), "a@x.com", "https://app.example.com/reset-password")
	require.NoError(t, err)
}

func TestUpdatePassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/user", r.URL.Path)
		require.Equal(t, "Bearer access-5", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "newpw12345", body["password"])
		_, _ = w.Write([]byte(`{}`))
	})

	require.NoError(t, client.UpdatePassword(context.Background(), "access-5", "newpw12345"))
}

func TestAuthorizeURL(t *testing.T) {
	client, err := backend.NewClient("https://auth.example.com/", testAPIKey)
	require.NoError(t, err)

	raw, err := client.AuthorizeURL("google", "https://app.example.com", map[string]string{"prompt": "consent"})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "/authorize", parsed.Path)
	require.Equal(t, "google", parsed.Query().Get("provider"))
	require.Equal(t, "https://app.example.com", parsed.Query().Get("redirect_to"))
	require.Equal(t, "consent", parsed.Query().Get("prompt"))

	_, err = client.AuthorizeURL("", "", nil)
	require.Error(t, err)
}
