// Package guard classifies callers before an operation runs.
//
// Guards are evaluated in a fixed order and fail closed at the first unmet
// condition: a missing or unverifiable token is model.ErrUnauthenticated, a
// verified caller lacking the required role is model.ErrForbidden. Guards
// never touch the store.
package guard

import (
	"fmt"
	"strings"

	"github.com/dtroode/identity-server/internal/model"
)

// Verifier validates session tokens.
type Verifier interface {
	Verify(token string) (model.Claims, error)
}

// Authenticated requires a present, well-formed, verifiable, unexpired token.
func Authenticated(v Verifier, token string) (model.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Claims{}, fmt.Errorf("%w: no authentication token provided", model.ErrUnauthenticated)
	}
	claims, err := v.Verify(token)
	if err != nil {
		return model.Claims{}, fmt.Errorf("%w: %w", model.ErrUnauthenticated, err)
	}
	return claims, nil
}

// AdminOnly requires an authenticated admin.
func AdminOnly(v Verifier, token string) (model.Claims, error) {
	claims, err := Authenticated(v, token)
	if err != nil {
		return model.Claims{}, err
	}
	if claims.Role != model.RoleAdmin {
		return model.Claims{}, model.ErrForbidden
	}
	return claims, nil
}

// AdminOrSelf requires an authenticated caller that is either the target
// identity or an admin. Self access never needs the admin role.
func AdminOrSelf(v Verifier, token string, targetID int64) (model.Claims, error) {
	claims, err := Authenticated(v, token)
	if err != nil {
		return model.Claims{}, err
	}
	if claims.IdentityID == targetID {
		return claims, nil
	}
	if claims.Role != model.RoleAdmin {
		return model.Claims{}, model.ErrForbidden
	}
	return claims, nil
}

// IsSelf reports whether claims belong to targetID.
func IsSelf(claims model.Claims, targetID int64) bool {
	return claims.IdentityID == targetID
}
