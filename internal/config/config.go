package config

import "time"

type Config interface {
	EnvConfig
	APIConfig
	MockAPIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// APIConfig describes the platform backend the gateway talks to.
type APIConfig interface {
	GetBaseURL() string
	GetRequestTimeout() time.Duration
}

// MockAPIConfig configures the in-memory backend used for local development.
type MockAPIConfig interface {
	GetPort() string
	GetJWTSecret() string
	GetAccessTokenTTL() time.Duration
	GetSeedEmail() string
	GetSeedPassword() string
}

type mainConfig struct {
	EnvVars
}

// New loads the configuration from CONFIG_PATH (if set or ./config.yaml exists)
// and the environment.
func New() (Config, error) {
	vars, err := Load()
	if err != nil {
		return nil, err
	}
	return mainConfig{EnvVars: *vars}, nil
}
