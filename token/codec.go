package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-task-server/token/keys"
	"github.com/jrsteele09/go-task-server/users"
)

// Outcome classifies the result of verifying a token.
type Outcome int

const (
	Invalid Outcome = iota // Bad signature, malformed, wrong role or wrong issuer
	Valid
	Expired
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "invalid"
	}
}

// Codec signs and verifies RS256 tokens with the access and refresh key pairs.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	signers map[keys.Role]*keys.KeyPairSigner
	issuer  string
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// WithIssuer stamps iss on signed tokens and requires it on verification.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func NewCodec(material *keys.Material, opts ...CodecOption) (*Codec, error) {
	if material == nil {
		return nil, fmt.Errorf("%w: key material is required", keys.ErrInvalidKey)
	}

	c := &Codec{
		signers: make(map[keys.Role]*keys.KeyPairSigner, 2),
		nowFunc: time.Now,
	}
	for _, role := range []keys.Role{keys.RoleAccess, keys.RoleRefresh} {
		signer, err := material.Signer(role)
		if err != nil {
			return nil, err
		}
		c.signers[role] = signer
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Sign fills in the registered claims and token_use, then signs claims with the
// private key for role.
func (c *Codec) Sign(claims Claims, role keys.Role, ttl time.Duration) (string, error) {
	signer, ok := c.signers[role]
	if !ok {
		return "", fmt.Errorf("unknown key role %q", role)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	now := c.nowFunc()
	b := claims.base()
	b.TokenUse = role
	b.ID = uuid.NewString()
	b.IssuedAt = jwt.NewNumericDate(now)
	b.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if c.issuer != "" {
		b.Issuer = c.issuer
	}

	signed, err := signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", role, err)
	}
	return signed, nil
}

// Verify checks raw against the public key for role and decodes it into claims.
// claims is only meaningful when the outcome is Valid. Verify never panics on
// malformed input.
func (c *Codec) Verify(raw string, role keys.Role, claims Claims) Outcome {
	signer, ok := c.signers[role]
	if !ok || strings.TrimSpace(raw) == "" {
		return Invalid
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{keys.RS256}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}

	_, err := jwt.NewParser(parserOpts...).ParseWithClaims(raw, claims, signer.GetVerificationKey)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired) &&
		!errors.Is(err, jwt.ErrTokenInvalidIssuer) &&
		!errors.Is(err, jwt.ErrTokenNotValidYet):
		// The signature is checked before the claims, so an expired token
		// was still signed by this role's key.
		if claims.base().TokenUse != role {
			return Invalid
		}
		return Expired
	default:
		return Invalid
	}

	if claims.base().TokenUse != role {
		return Invalid
	}
	return Valid
}

// SignAccess issues an access token for user bound to sessionID.
func (c *Codec) SignAccess(user users.Snapshot, sessionID string, ttl time.Duration) (string, error) {
	claims := &AccessClaims{
		User:      user,
		SessionID: sessionID,
	}
	claims.Subject = user.ID
	return c.Sign(claims, keys.RoleAccess, ttl)
}

// SignRefresh issues a refresh token bound to sessionID.
func (c *Codec) SignRefresh(sessionID string, ttl time.Duration) (string, error) {
	return c.Sign(&RefreshClaims{SessionID: sessionID}, keys.RoleRefresh, ttl)
}

func (c *Codec) VerifyAccess(raw string) (*AccessClaims, Outcome) {
	claims := &AccessClaims{}
	outcome := c.Verify(raw, keys.RoleAccess, claims)
	if outcome != Valid {
		return nil, outcome
	}
	return claims, outcome
}

func (c *Codec) VerifyRefresh(raw string) (*RefreshClaims, Outcome) {
	claims := &RefreshClaims{}
	outcome := c.Verify(raw, keys.RoleRefresh, claims)
	if outcome != Valid {
		return nil, outcome
	}
	return claims, outcome
}

// JWKS publishes the access-token verification key.
func (c *Codec) JWKS() (*keys.JWKS, error) {
	return c.signers[keys.RoleAccess].GetJWKS()
}
