package auth

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/haguru/notedly/config"
)

const (
	// DefaultTokenTTL applies when auth.token_ttl is zero.
	DefaultTokenTTL = 24 * time.Hour
	// minSecretLength is the shortest HS256 secret accepted.
	minSecretLength = 16
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user id under "id" next to the registered claims.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies identity tokens with either HS256 or ES256.
type JWTManager struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewHMACManager signs tokens with a shared secret (HS256).
func NewHMACManager(secret, issuer string, ttl time.Duration) (*JWTManager, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	key := []byte(secret)
	return newManager(jwt.SigningMethodHS256, key, key, issuer, ttl), nil
}

// NewECDSAManager signs tokens with an EC P-256 private key (ES256).
func NewECDSAManager(privateKey *ecdsa.PrivateKey, issuer string, ttl time.Duration) (*JWTManager, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	return newManager(jwt.SigningMethodES256, privateKey, &privateKey.PublicKey, issuer, ttl), nil
}

// NewTokenManager picks ES256 when a private key path is configured and HS256 otherwise.
func NewTokenManager(cfg config.AuthConfig) (*JWTManager, error) {
	if cfg.PrivateKeyPath != "" {
		key, err := LoadECDSAPrivateKey(cfg.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		return NewECDSAManager(key, cfg.Issuer, cfg.TokenTTL)
	}
	return NewHMACManager(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL)
}

func newManager(method jwt.SigningMethod, signKey, verifyKey interface{}, issuer string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTManager{
		method:    method,
		signKey:   signKey,
		verifyKey: verifyKey,
		issuer:    issuer,
		ttl:       ttl,
		now:       time.Now,
	}
}

// CreateToken issues a token for userID.
func (m *JWTManager) CreateToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id cannot be empty")
	}
	now := m.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature, algorithm, issuer and expiry and returns the user id.
func (m *JWTManager) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.verifyKey, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
