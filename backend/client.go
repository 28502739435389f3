package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var _ Service = (*Client)(nil)

// Client talks to the auth service's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing
// and custom transports).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a REST client for the auth service at baseURL. apiKey is
// the publishable key sent with every request.
func NewClient(baseURL, apiKey string, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[NewClient] baseURL is required")
	}
	if apiKey == "" {
		return nil, errors.New("[NewClient] apiKey is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) (*SignUpResult, error) {
	path := "/signup"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	body := map[string]string{"email": email, "password": password}
	var resp struct {
		TokenResponse
		UserData
	}
	if err := c.do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.SignUp]")
	}

	// With email confirmation enabled the service returns the bare user
	// record; otherwise it returns a full grant with the user embedded.
	if resp.AccessToken == "" {
		return &SignUpResult{User: &resp.UserData}, nil
	}
	token := resp.TokenResponse
	return &SignUpResult{User: token.User, Token: &token}, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.SignInWithPassword]")
	}
	return &resp, nil
}

func (c *Client) SignInWithIDToken(ctx context.Context, provider, idToken string) (*TokenResponse, error) {
	body := map[string]string{"provider": provider, "id_token": idToken}
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=id_token", "", body, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.SignInWithIDToken]")
	}
	return &resp, nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &resp); err != nil {
		return nil, errors.Wrap(err, "[Client.RefreshSession]")
	}
	return &resp, nil
}

func (c *Client) AuthorizeURL(provider, redirectTo string, params map[string]string) (string, error) {
	if provider == "" {
		return "", errors.New("[Client.AuthorizeURL] provider is required")
	}
	query := url.Values{}
	query.Set("provider", provider)
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}
	for key, value := range params {
		query.Set(key, value)
	}
	return c.baseURL + "/authorize?" + query.Encode(), nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil); err != nil {
		return errors.Wrap(err, "[Client.SignOut]")
	}
	return nil
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*UserData, error) {
	var user UserData
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, errors.Wrap(err, "[Client.GetUser]")
	}
	return &user, nil
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	body := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, path, "", body, nil); err != nil {
		return errors.Wrap(err, "[Client.ResetPasswordForEmail]")
	}
	return nil
}

func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	body := map[string]string{"password": newPassword}
	if err := c.do(ctx, http.MethodPut, "/user", accessToken, body, nil); err != nil {
		return errors.Wrap(err, "[Client.UpdatePassword]")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("apikey", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "round trip")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
