package auth

import (
	"net/url"
	"strings"
)

// LinkType identifies the operation a redirect artifact belongs to, taken
// from its "type" parameter.
type LinkType string

const (
	LinkNone     LinkType = ""
	LinkSignUp   LinkType = "signup"   // email verification
	LinkRecovery LinkType = "recovery" // password reset
)

// Deep-link paths recognised by HandleDeepLink; also the callback paths
// handed to the backend for email flows.
const (
	verifyEmailPath   = "verify-email"
	resetPasswordPath = "reset-password"
)

// redirectArtifact is the transient token data extracted from a URL. It
// lives for a single reconciliation pass and is then discarded.
type redirectArtifact struct {
	accessToken  string
	refreshToken string
	errorCode    string
	linkType     LinkType
}

// parseFragmentArtifact extracts tokens from a web redirect URL's fragment.
// Returns nil when the fragment carries neither an access token nor an
// error: nothing actionable, not a fault.
func parseFragmentArtifact(rawURL string) *redirectArtifact {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Fragment == "" {
		return nil
	}
	values, err := url.ParseQuery(parsed.Fragment)
	if err != nil {
		return nil
	}

	artifact := &redirectArtifact{
		accessToken:  values.Get("access_token"),
		refreshToken: values.Get("refresh_token"),
		errorCode:    values.Get("error"),
		linkType:     LinkType(values.Get("type")),
	}
	if artifact.accessToken == "" && artifact.errorCode == "" {
		return nil
	}
	return artifact
}

// stripFragment removes the fragment from a URL so a refresh cannot
// reprocess stale tokens.
func stripFragment(rawURL string) string {
	if idx := strings.IndexByte(rawURL, '#'); idx >= 0 {
		return rawURL[:idx]
	}
	return rawURL
}

// parseDeepLinkArtifact extracts tokens from a native deep link. Only
// verify-email and reset-password links are recognised; anything else, or a
// link missing its parameters, yields nil.
func parseDeepLinkArtifact(rawURL string) *redirectArtifact {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	// For scheme URLs like myapp://verify-email the path segment lands in
	// Host; https universal links carry it in Path.
	location := parsed.Host + "/" + strings.Trim(parsed.Path, "/")
	if !strings.Contains(location, verifyEmailPath) && !strings.Contains(location, resetPasswordPath) {
		return nil
	}

	values := parsed.Query()
	return &redirectArtifact{
		accessToken:  values.Get("access_token"),
		refreshToken: values.Get("refresh_token"),
		linkType:     LinkType(values.Get("type")),
	}
}
