package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/backend"
	"github.com/jrsteele09/go-auth-client/credstore"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/platform"
	"github.com/jrsteele09/go-auth-client/provider"
	"github.com/jrsteele09/go-auth-client/provider/google"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("authcli failed")
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 {
		usage()
		return nil
	}

	c := config.New()
	displayAppname("Auth CLI")

	ctx := context.Background()
	client, err := buildClient(ctx, c)
	if err != nil {
		return errors.Wrap(err, "[run] buildClient")
	}

	subscription := client.OnAuthStateChange(func(event auth.Event, session *auth.Session) {
		entry := log.Info().Str("event", string(event))
		if session != nil && session.User != nil {
			entry = entry.Str("email", session.User.Email)
		}
		entry.Msg("auth state changed")
	})
	defer subscription.Unsubscribe()

	if _, err := client.Bootstrap(ctx); err != nil {
		return errors.Wrap(err, "[run] bootstrap")
	}

	return dispatch(ctx, client, args)
}

func dispatch(ctx context.Context, client *auth.Client, args []string) error {
	command, rest := args[0], args[1:]

	switch command {
	case "signup":
		email, password, err := credentialArgs(rest)
		if err != nil {
			return err
		}
		result, err := client.SignUpWithEmail(ctx, email, password)
		if err != nil {
			return err
		}
		if result.Session == nil {
			log.Info().Str("email", result.User.Email).Msg("signed up, check your email to verify the account")
		} else {
			log.Info().Str("email", result.User.Email).Msg("signed up and signed in")
		}
		return nil

	case "signin":
		email, password, err := credentialArgs(rest)
		if err != nil {
			return err
		}
		_, err = client.SignInWithEmail(ctx, email, password)
		return err

	case "signin-google":
		result, err := client.SignInWithGoogle(ctx)
		if err != nil {
			return err
		}
		if result.RedirectURL != "" {
			fmt.Println("Open this URL to continue sign-in:")
			fmt.Println(result.RedirectURL)
		}
		return nil

	case "signout":
		return client.SignOut(ctx)

	case "whoami":
		user, err := client.GetUser(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s, via %s)\n", user.Email, user.ID, user.Provider)
		return nil

	case "reset-password":
		if len(rest) != 1 {
			return errors.New("usage: authcli reset-password <email>")
		}
		return client.ResetPassword(ctx, rest[0])

	default:
		usage()
		return errors.Errorf("unknown command %q", command)
	}
}

func credentialArgs(args []string) (email, password string, err error) {
	if len(args) != 2 {
		return "", "", errors.New("expected <email> <password>")
	}
	return args[0], args[1], nil
}

func buildClient(ctx context.Context, c config.Config) (*auth.Client, error) {
	backendClient, err := backend.NewClient(c.GetBackendURL(), c.GetAPIKey())
	if err != nil {
		return nil, errors.Wrap(err, "[buildClient] backend client")
	}

	folder := c.GetDataFolder()
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[buildClient] data folder")
	}

	adapter, err := buildAdapter(c, folder)
	if err != nil {
		return nil, err
	}

	var identity provider.Identity
	if adapter.Surface().Native() && c.GetGoogleClientID() != "" {
		identity, err = google.New(ctx, c.GetGoogleClientID(), c.GetGoogleClientSecret(), c.GetGoogleRedirectURL())
		if err != nil {
			return nil, errors.Wrap(err, "[buildClient] google provider")
		}
	}

	return auth.New(auth.Deps{
		Backend:  backendClient,
		Platform: adapter,
		Provider: identity,
	})
}

func buildAdapter(c config.Config, folder string) (platform.Adapter, error) {
	switch c.GetSurface() {
	case "web":
		durable, err := credstore.NewFile(filepath.Join(folder, "store.json"))
		if err != nil {
			return nil, errors.Wrap(err, "[buildAdapter] durable store")
		}
		return platform.NewWeb(c.GetWebOrigin(), durable), nil

	case "ios", "android":
		general, err := credstore.NewFile(filepath.Join(folder, "store.json"))
		if err != nil {
			return nil, errors.Wrap(err, "[buildAdapter] general store")
		}
		key, err := loadSecureKey(filepath.Join(folder, "secure.key"))
		if err != nil {
			return nil, errors.Wrap(err, "[buildAdapter] secure key")
		}
		secure, err := credstore.NewSecure(filepath.Join(folder, "secure.bin"), key)
		if err != nil {
			return nil, errors.Wrap(err, "[buildAdapter] secure store")
		}
		if c.GetSurface() == "ios" {
			return platform.NewNativeIOS(c.GetAppScheme(), secure, general)
		}
		return platform.NewNativeAndroid(c.GetAppScheme(), secure, general)

	default:
		return nil, errors.Errorf("[buildAdapter] unknown surface %q", c.GetSurface())
	}
}

// loadSecureKey reads the encryption key for the secure store, generating
// one on first use.
func loadSecureKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil && len(key) == 32 {
		return key, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

func usage() {
	fmt.Println("usage: authcli <command>")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  signup <email> <password>   create an account")
	fmt.Println("  signin <email> <password>   sign in with email")
	fmt.Println("  signin-google               sign in with Google")
	fmt.Println("  signout                     sign out")
	fmt.Println("  whoami                      show the signed-in user")
	fmt.Println("  reset-password <email>      send a recovery email")
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
