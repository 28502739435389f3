package platform_test

import (
	"testing"

	"github.com/jrsteele09/go-auth-client/credstore"
	"github.com/jrsteele09/go-auth-client/platform"
	"github.com/stretchr/testify/require"
)

func TestWebRedirectURL(t *testing.T) {
	web := platform.NewWeb("https://app.example.com/", credstore.NewMemory())

	require.Equal(t, platform.SurfaceWeb, web.Surface())
	require.False(t, web.Surface().Native())
	require.Equal(t, "https://app.example.com", web.RedirectURL(""))
	require.Equal(t, "https://app.example.com/verify-email", web.RedirectURL("/verify-email"))
	require.Equal(t, "https://app.example.com/reset-password", web.RedirectURL("reset-password"))
}

func TestWebAddressBar(t *testing.T) {
	web := platform.NewWeb("https://app.example.com", credstore.NewMemory())

	require.Empty(t, web.CurrentURL())
	web.SetCurrentURL("https://app.example.com/#access_token=T1")
	require.Equal(t, "https://app.example.com/#access_token=T1", web.CurrentURL())
	web.ReplaceURL("https://app.example.com/")
	require.Equal(t, "https://app.example.com/", web.CurrentURL())
}

func TestWebFallsBackToMemoryStore(t *testing.T) {
	web := platform.NewWeb("https://app.example.com", nil)

	store := web.CredentialStore()
	require.NotNil(t, store)
	require.NoError(t, store.Set("lastSignIn", "now"))
	value, err := store.Get("lastSignIn")
	require.NoError(t, err)
	require.Equal(t, "now", value)
}

func TestNativeAdapters(t *testing.T) {
	secure := credstore.NewMemory()
	general := credstore.NewMemory()

	ios, err := platform.NewNativeIOS("myapp", secure, general)
	require.NoError(t, err)
	require.Equal(t, platform.SurfaceIOS, ios.Surface())
	require.True(t, ios.Surface().Native())
	require.Equal(t, "myapp://verify-email", ios.RedirectURL("verify-email"))
	require.Empty(t, ios.CurrentURL())

	android, err := platform.NewNativeAndroid("myapp", secure, general)
	require.NoError(t, err)
	require.Equal(t, platform.SurfaceAndroid, android.Surface())

	// Sensitive keys land in the secure store
	require.NoError(t, ios.CredentialStore().Set("authSession", "tokens"))
	value, err := secure.Get("authSession")
	require.NoError(t, err)
	require.Equal(t, "tokens", value)
}

func TestNativeRequiresScheme(t *testing.T) {
	_, err := platform.NewNativeIOS("", credstore.NewMemory(), credstore.NewMemory())
	require.Error(t, err)
}
