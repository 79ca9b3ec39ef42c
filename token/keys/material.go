package keys

import (
	"fmt"
	"strings"
)

// Role identifies which key pair a token is signed and verified with.
type Role string

const (
	RoleAccess  Role = "access"
	RoleRefresh Role = "refresh"
)

func (r Role) Valid() bool {
	return r == RoleAccess || r == RoleRefresh
}

// MaterialSource carries the four PEM secrets as read from configuration.
// Each value may be raw PEM or base64-encoded PEM.
type MaterialSource struct {
	AccessPrivateKey  string
	AccessPublicKey   string
	RefreshPrivateKey string
	RefreshPublicKey  string
}

// Material holds the access and refresh key pairs. It is built once at startup
// and never modified afterwards.
type Material struct {
	access  *KeyPair
	refresh *KeyPair
}

// NewMaterial wraps two already-loaded key pairs.
func NewMaterial(access, refresh *KeyPair) (*Material, error) {
	if access == nil || refresh == nil {
		return nil, fmt.Errorf("%w: both access and refresh key pairs are required", ErrInvalidKey)
	}
	return &Material{access: access, refresh: refresh}, nil
}

// LoadMaterial parses both key pairs. Any missing or malformed secret is an error;
// callers treat this as fatal.
func LoadMaterial(src MaterialSource) (*Material, error) {
	if strings.TrimSpace(src.AccessPrivateKey) == "" {
		return nil, fmt.Errorf("%w: access private key is not configured", ErrInvalidKey)
	}
	if strings.TrimSpace(src.RefreshPrivateKey) == "" {
		return nil, fmt.Errorf("%w: refresh private key is not configured", ErrInvalidKey)
	}

	access, err := LoadKeyPairFromPEM(string(RoleAccess), src.AccessPrivateKey, src.AccessPublicKey)
	if err != nil {
		return nil, fmt.Errorf("access key pair: %w", err)
	}
	refresh, err := LoadKeyPairFromPEM(string(RoleRefresh), src.RefreshPrivateKey, src.RefreshPublicKey)
	if err != nil {
		return nil, fmt.Errorf("refresh key pair: %w", err)
	}
	return NewMaterial(access, refresh)
}

// GenerateMaterial creates fresh access and refresh RSA key pairs.
func GenerateMaterial(bits int) (*Material, error) {
	access, err := GenerateRSAKeyPair(string(RoleAccess), bits)
	if err != nil {
		return nil, fmt.Errorf("access key pair: %w", err)
	}
	refresh, err := GenerateRSAKeyPair(string(RoleRefresh), bits)
	if err != nil {
		return nil, fmt.Errorf("refresh key pair: %w", err)
	}
	return NewMaterial(access, refresh)
}

// Pair returns the key pair for role.
func (m *Material) Pair(role Role) (*KeyPair, error) {
	switch role {
	case RoleAccess:
		return m.access, nil
	case RoleRefresh:
		return m.refresh, nil
	default:
		return nil, fmt.Errorf("unknown key role %q", role)
	}
}

// Signer returns a signer for role.
func (m *Material) Signer(role Role) (*KeyPairSigner, error) {
	kp, err := m.Pair(role)
	if err != nil {
		return nil, err
	}
	return NewKeyPairSigner(kp), nil
}
