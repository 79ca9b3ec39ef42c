package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	TokenConfig
	StoreConfig
	SecurityConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	IsDev() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Tokens
	Store
	Security
	Cors
}

// New reads .env from the working directory if present. Environment variables
// always win over the file.
func New() Config {
	return NewFromFile(".env")
}

// NewFromFile is New with an explicit dotenv path. A missing file is ignored.
func NewFromFile(envFile string) Config {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	setDefaults(v)

	return mainConfig{
		EnvVars:  EnvVars{v: v},
		Tokens:   Tokens{v: v},
		Store:    Store{v: v},
		Security: Security{v: v},
		Cors:     Cors{v: v},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(portEnvVar, "8080")
	v.SetDefault(appNameVar, "Go Task Server")
	v.SetDefault(envVar, "DEV")
	v.SetDefault(logLevelVar, "info")
	v.SetDefault(accessTTLVar, "15m")
	v.SetDefault(refreshTTLVar, "8760h")
	v.SetDefault(issuerVar, "go-task-server")
	v.SetDefault(storeDriverVar, StoreDriverMemory)
	v.SetDefault(sqlitePathVar, "./data/sessions.db")
	v.SetDefault(rateLimitRPSVar, 5.0)
	v.SetDefault(rateLimitBurstVar, 10)
	v.SetDefault(allowedOriginsVar, "http://localhost:3000")
}

// Validate reports settings that would stop the server from starting.
func Validate(c Config) error {
	var errs []error

	switch c.GetStoreDriver() {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.GetDatabaseURL() == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", databaseURLVar, storeDriverVar, StoreDriverPostgres))
		}
	case StoreDriverSQLite:
		if c.GetSQLitePath() == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", sqlitePathVar, storeDriverVar, StoreDriverSQLite))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be one of %s, %s, %s; got %q",
			storeDriverVar, StoreDriverMemory, StoreDriverPostgres, StoreDriverSQLite, c.GetStoreDriver()))
	}

	if c.GetAccessTokenTTL() >= c.GetRefreshTokenTTL() {
		errs = append(errs, fmt.Errorf("%s must be shorter than %s", accessTTLVar, refreshTTLVar))
	}
	if c.GetRateLimitBurst() < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", rateLimitBurstVar))
	}

	return errors.Join(errs...)
}
