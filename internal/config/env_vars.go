package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const configPathVar = "CONFIG_PATH"

// EnvVars holds every setting, populated from YAML and/or the environment.
type EnvVars struct {
	AppName        string        `yaml:"app_name"         env:"APP_NAME"           env-default:"Learn Admin"`
	Env            string        `yaml:"env"              env:"ENV"                env-default:"DEV"`
	LogLevel       string        `yaml:"log_level"        env:"LOG_LEVEL"          env-default:"info"`
	BaseURL        string        `yaml:"base_url"         env:"API_BASE_URL"       env-default:"http://localhost:8081/api"`
	RequestTimeout time.Duration `yaml:"request_timeout"  env:"API_TIMEOUT"        env-default:"30s"`
	Port           string        `yaml:"mockapi_port"     env:"MOCKAPI_PORT"       env-default:"8081"`
	JWTSecret      string        `yaml:"mockapi_secret"   env:"MOCKAPI_JWT_SECRET" env-default:"dev-secret-change-me"`
	AccessTokenTTL time.Duration `yaml:"mockapi_ttl"      env:"MOCKAPI_ACCESS_TTL" env-default:"5m"`
	SeedEmail      string        `yaml:"seed_email"       env:"MOCKAPI_SEED_EMAIL" env-default:"admin@example.com"`
	SeedPassword   string        `yaml:"seed_password"    env:"MOCKAPI_SEED_PASSWORD" env-default:"Admin12345"`
}

var (
	_ EnvConfig     = EnvVars{}
	_ APIConfig     = EnvVars{}
	_ MockAPIConfig = EnvVars{}
)

// Load reads configuration with priority ENV > YAML > defaults.
// A missing ./config.yaml is not an error; a missing explicit CONFIG_PATH is.
func Load() (*EnvVars, error) {
	var vars EnvVars

	path := os.Getenv(configPathVar)
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &vars); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&vars); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := vars.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &vars, nil
}

// Validate checks the values cleanenv cannot.
func (e EnvVars) Validate() error {
	if !strings.HasPrefix(e.BaseURL, "http://") && !strings.HasPrefix(e.BaseURL, "https://") {
		return fmt.Errorf("base url %q must use http or https", e.BaseURL)
	}
	if e.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	if e.AccessTokenTTL <= 0 {
		return fmt.Errorf("mock api access token ttl must be positive")
	}
	return nil
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetBaseURL returns the API root without a trailing slash, e.g. "https://api.example.com/api".
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.BaseURL, "/")
}

func (e EnvVars) GetRequestTimeout() time.Duration {
	return e.RequestTimeout
}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8081"
	}
	if port[0] != ':' {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetJWTSecret() string {
	return e.JWTSecret
}

func (e EnvVars) GetAccessTokenTTL() time.Duration {
	return e.AccessTokenTTL
}

func (e EnvVars) GetSeedEmail() string {
	return e.SeedEmail
}

func (e EnvVars) GetSeedPassword() string {
	return e.SeedPassword
}
