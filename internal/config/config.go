package config

type Config interface {
	BackendConfig
	PlatformConfig
	GoogleConfig
}

type BackendConfig interface {
	GetBackendURL() string
	GetAPIKey() string
}

type PlatformConfig interface {
	GetSurface() string
	GetAppScheme() string
	GetWebOrigin() string
	GetDataFolder() string
}

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
