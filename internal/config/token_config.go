package config

import (
	"time"

	"github.com/jrsteele09/go-task-server/token/keys"
	"github.com/spf13/viper"
)

const (
	accessPrivateKeyVar  = "ACCESS_TOKEN_PRIVATE_KEY"
	accessPublicKeyVar   = "ACCESS_TOKEN_PUBLIC_KEY"
	refreshPrivateKeyVar = "REFRESH_TOKEN_PRIVATE_KEY"
	refreshPublicKeyVar  = "REFRESH_TOKEN_PUBLIC_KEY"
	accessTTLVar         = "ACCESS_TOKEN_TTL"
	refreshTTLVar        = "REFRESH_TOKEN_TTL"
	issuerVar            = "TOKEN_ISSUER"

	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 8760 * time.Hour
)

type TokenConfig interface {
	// GetKeyMaterialSource returns the four PEM secrets (raw or base64)
	GetKeyMaterialSource() keys.MaterialSource
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetTokenIssuer() string
}

type Tokens struct {
	v *viper.Viper
}

var _ TokenConfig = Tokens{}

func (t Tokens) GetKeyMaterialSource() keys.MaterialSource {
	return keys.MaterialSource{
		AccessPrivateKey:  t.v.GetString(accessPrivateKeyVar),
		AccessPublicKey:   t.v.GetString(accessPublicKeyVar),
		RefreshPrivateKey: t.v.GetString(refreshPrivateKeyVar),
		RefreshPublicKey:  t.v.GetString(refreshPublicKeyVar),
	}
}

// GetAccessTokenTTL falls back to 15m when the value is missing or unparseable.
func (t Tokens) GetAccessTokenTTL() time.Duration {
	return t.duration(accessTTLVar, defaultAccessTTL)
}

// GetRefreshTokenTTL falls back to one year when the value is missing or unparseable.
func (t Tokens) GetRefreshTokenTTL() time.Duration {
	return t.duration(refreshTTLVar, defaultRefreshTTL)
}

func (t Tokens) GetTokenIssuer() string {
	return t.v.GetString(issuerVar)
}

func (t Tokens) duration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(t.v.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
