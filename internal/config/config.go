package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	TokenConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetJWTSecret() string
}

type ClientConfig interface {
	GetAPIHost() string
	GetAPIScheme() string
	GetTenant() string
	GetConnectAddress() string
	GetCredentialsFile() string
	GetRefreshMode() RefreshMode
	GetRequestTimeout() time.Duration
	GetRateLimit() float64
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Client
	Tokens
	Cors
}

// New returns the configuration. The profile may be nil, in which case only
// environment variables and defaults apply.
func New(profile *Profile) Config {
	return mainConfig{
		Client: Client{profile: profile},
	}
}
