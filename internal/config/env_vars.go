package config

import "os"

const (
	backendURLVar = "AUTH_BACKEND_URL"
	apiKeyVar     = "AUTH_API_KEY"
	surfaceVar    = "AUTH_SURFACE"
	appSchemeVar  = "AUTH_APP_SCHEME"
	webOriginVar  = "AUTH_WEB_ORIGIN"
	folderEnvVar  = "AUTH_DATA_FOLDER"
)

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetBackendURL() string {
	return GetEnv(backendURLVar, "http://localhost:9999")
}

func (EnvVars) GetAPIKey() string {
	return GetEnv(apiKeyVar, "")
}

// GetSurface selects the platform adapter: "web", "ios" or "android".
func (EnvVars) GetSurface() string {
	return GetEnv(surfaceVar, "web")
}

func (EnvVars) GetAppScheme() string {
	return GetEnv(appSchemeVar, "authcli")
}

func (EnvVars) GetWebOrigin() string {
	return GetEnv(webOriginVar, "http://localhost:3000")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (EnvVars) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (EnvVars) GetGoogleRedirectURL() string {
	return GetEnv("GOOGLE_REDIRECT_URL", "http://127.0.0.1:8499/callback")
}

func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
