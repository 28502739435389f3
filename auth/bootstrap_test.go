package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/credstore"
	"github.com/stretchr/testify/require"
)

func TestBootstrapInstallsSessionFromRedirectFragment(t *testing.T) {
	ctx := context.Background()
	f := setupWebFixture(t)

	f.web.SetCurrentURL(testOrigin + "/#access_token=T1&refresh_token=T2")

	session, err := f.client.Bootstrap(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, "T1", session.AccessToken)
	require.Equal(t, "T2", session.RefreshToken)

	// The fragment is scrubbed so a refresh cannot reprocess it
	require.Equal(t, testOrigin+"/", f.web.CurrentURL())

	require.Equal(t, []auth.Event{auth.EventInitialSession}, f.events.Events())
	require.Equal(t, session, f.events.Last())
}

func TestBootstrapFragmentWithoutRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := setupWebFixture(t)

	f.web.SetCurrentURL(testOrigin + "/#access_token=T1")

	session, err := f.client.Bootstrap(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, "T1", session.AccessToken)
	require.Empty(t, session.RefreshToken)
}

func TestBootstrapErrorOnlyFragmentFallsThrough(t *testing.T) {
	ctx := context.Background()
	f := setupWebFixture(t)

	f.web.SetCurrentURL(testOrigin + "/#error=access_denied")

	session, err := f.client.Bootstrap(ctx)
	require.NoError(t, err)
	require.Nil(t, session)
	require.Nil(t, f.client.CurrentSession())

	// Still scrubbed, still exactly one initial notification
	require.Equal(t, testOrigin+"/", f.web.CurrentURL())
	require.Equal(t, []auth.Event{auth.EventInitialSession}, f.events.Events())
	require.Nil(t, f.events.Last())
}

func TestBootstrapWithNoArtifactResolvesNoSession(t *testing.T) {
	ctx := context.Background()
	f := setupWebFixture(t)

	f.web.SetCurrentURL(testOrigin + "/dashboard")

	session, err := f.client.Bootstrap(ctx)
	require.NoError(t, err)
	require.Nil(t, session)
	require.Equal(t, []auth.Event{auth.EventInitialSession}, f.events.Events())
}

func TestBootstrapRestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	f := setupWebFixture(t)

	token := mintToken(t, "user-1", testUserEmail, testNow.Add(time.Hour))
	cached := `{"access_token":"` + token + `","refresh_token":"R1","expires_at":"` +
		testNow.Add(time.Hour).Format(time.RFC3339) + `"}`
	require.NoError(t, f.general.Set(credstore.KeySession, cached))

	session, err := f.client.Bootstrap(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, token, session.AccessToken)
	require.Equal(t, "R1", session.RefreshToken)
}

func TestBootstrapRefreshesExpiredPersistedSession(t *testing.T) {
	ctx := context.Background()
	f := setupWebFixture(t)

	f.service.AddAccount(testUserEmail, testPassword)
	grant := f.service.IssueGrant(testUserEmail)

	cached := `{"access_token":"stale","refresh_token":"` + grant.RefreshToken +
		`","expires_at":"` + testNow.Add(-time.Hour).Format(time.RFC3339) + `"}`
	require.NoError(t, f.general.Set(credstore.KeySession, cached))

	session, err := f.client.Bootstrap(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.NotEqual(t, "stale", session.AccessToken)
	require.Equal(t, []string{grant.RefreshToken}, f.service.RefreshedTokens)
}

func TestBootstrapDropsSessionWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	f := setupWebFixture(t)

	cached := `{"access_token":"stale","refresh_token":"unknown","expires_at":"` +
		testNow.Add(-time.Hour).Format(time.RFC3339) + `"}`
	require.NoError(t, f.general.Set(credstore.KeySession, cached))

	session, err := f.client.Bootstrap(ctx)
	require.NoError(t, err)
	require.Nil(t, session)

	value, err := f.general.Get(credstore.KeySession)
	require.NoError(t, err)
	require.Empty(t, value)
}

func TestBootstrapDropsUnreadableCachedSession(t *testing.T) {
	ctx := context.Background()
	f := setupWebFixture(t)

	require.NoError(t, f.general.Set(credstore.KeySession, "not json"))

	session, err := f.client.Bootstrap(ctx)
	require.NoError(t, err)
	require.Nil(t, session)

	value, err := f.general.Get(credstore.KeySession)
	require.NoError(t, err)
	require.Empty(t, value)
}

func TestHandleDeepLinkRecovery(t *testing.T) {
	ctx := context.Background()
	f := setupNativeFixture(t, nil)

	token := mintToken(t, "user-2", testUserEmail, testNow.Add(time.Hour))
	link := testScheme + "://reset-password?access_token=" + token + "&refresh_token=R2&type=recovery"

	linkType, err := f.client.HandleDeepLink(ctx, link)
	require.NoError(t, err)
	require.Equal(t, auth.LinkRecovery, linkType)

	session := f.client.CurrentSession()
	require.NotNil(t, session)
	require.Equal(t, token, session.AccessToken)
	require.Equal(t, "R2", session.RefreshToken)
	require.Equal(t, []auth.Event{auth.EventPasswordRecovery}, f.events.Events())
}

func TestHandleDeepLinkIgnoresUnrecognisedPaths(t *testing.T) {
	ctx := context.Background()
	f := setupNativeFixture(t, nil)

	linkType, err := f.client.HandleDeepLink(ctx, testScheme+"://settings?access_token=T1&type=recovery")
	require.NoError(t, err)
	require.Equal(t, auth.LinkNone, linkType)
	require.Nil(t, f.client.CurrentSession())
	require.Empty(t, f.events.Events())
}

func TestHandleDeepLinkMissingParametersIsNotAnError(t *testing.T) {
	ctx := context.Background()
	f := setupNativeFixture(t, nil)

	// Missing type
	linkType, err := f.client.HandleDeepLink(ctx, testScheme+"://verify-email?access_token=T1")
	require.NoError(t, err)
	require.Equal(t, auth.LinkNone, linkType)

	// Missing access token
	linkType, err = f.client.HandleDeepLink(ctx, testScheme+"://verify-email?type=signup")
	require.NoError(t, err)
	require.Equal(t, auth.LinkNone, linkType)

	// Not a URL at all
	linkType, err = f.client.HandleDeepLink(ctx, "::not a url::")
	require.NoError(t, err)
	require.Equal(t, auth.LinkNone, linkType)

	require.Nil(t, f.client.CurrentSession())
}

func TestDeepLinkSessionPersistsToSecureStore(t *testing.T) {
	ctx := context.Background()
	f := setupNativeFixture(t, nil)

	token := mintToken(t, "user-3", testUserEmail, testNow.Add(time.Hour))
	_, err := f.client.HandleDeepLink(ctx, testScheme+"://verify-email?access_token="+token+"&type=signup")
	require.NoError(t, err)

	// The cached session is a sensitive key: it must land in the secure store
	value, err := f.secure.Get(credstore.KeySession)
	require.NoError(t, err)
	require.NotEmpty(t, value)
	require.Zero(t, f.general.Len())
}
