package config

import "github.com/spf13/viper"

const (
	rateLimitRPSVar     = "RATE_LIMIT_RPS"
	rateLimitBurstVar   = "RATE_LIMIT_BURST"
	seedUserEmailVar    = "SEED_USER_EMAIL"
	seedUserPasswordVar = "SEED_USER_PASSWORD"
)

type SecurityConfig interface {
	// GetRateLimitRPS is the per-client request rate allowed on the login and refresh endpoints
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
	GetEnableRateLimiting() bool

	// Seed user created at startup when both values are set
	GetSeedUserEmail() string
	GetSeedUserPassword() string
}

type Security struct {
	v *viper.Viper
}

var _ SecurityConfig = Security{}

func (s Security) GetRateLimitRPS() float64 {
	return s.v.GetFloat64(rateLimitRPSVar)
}

func (s Security) GetRateLimitBurst() int {
	return s.v.GetInt(rateLimitBurstVar)
}

// GetEnableRateLimiting is false when RATE_LIMIT_RPS is zero or negative.
func (s Security) GetEnableRateLimiting() bool {
	return s.GetRateLimitRPS() > 0
}

func (s Security) GetSeedUserEmail() string {
	return s.v.GetString(seedUserEmailVar)
}

func (s Security) GetSeedUserPassword() string {
	return s.v.GetString(seedUserPasswordVar)
}
