package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/identity-server/internal/model"
)

// DefaultTTL is the session token lifetime.
const DefaultTTL = 24 * time.Hour

// Claims represents JWT claims carrying the identity id and role.
type Claims struct {
	jwt.RegisteredClaims
	IdentityID int64  `json:"user_id"`
	Role       string `json:"role"`
}

var _ model.TokenManager = (*JWT)(nil)

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewJWT creates a new JWT token manager with the provided secret key and lifetime.
func NewJWT(secretKey string, ttl time.Duration) *JWT {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWT{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for the identity that expires after the configured TTL.
func (j *JWT) Issue(identityID int64, role model.Role) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		IdentityID: identityID,
		Role:       role.String(),
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks signature and expiry and returns the claims.
// Failures wrap model.ErrTokenExpired or model.ErrTokenInvalid.
func (j *JWT) Verify(tokenString string) (model.Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Claims{}, fmt.Errorf("%w: %w", model.ErrTokenExpired, err)
		}
		return model.Claims{}, fmt.Errorf("%w: %w", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return model.Claims{}, model.ErrTokenInvalid
	}

	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return model.Claims{}, fmt.Errorf("%w: unknown role %q", model.ErrTokenInvalid, claims.Role)
	}
	if claims.IdentityID <= 0 {
		return model.Claims{}, fmt.Errorf("%w: missing identity", model.ErrTokenInvalid)
	}

	return model.Claims{
		IdentityID: claims.IdentityID,
		Role:       role,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
