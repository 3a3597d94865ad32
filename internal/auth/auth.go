// Package auth consumes the identity layer's claims. Tokens are issued
// elsewhere; this package only parses and trusts them.
package auth

import (
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleTenant     Role = "tenant"
	RoleSuperAdmin Role = "super_admin"
	RoleManager    Role = "manager"
	RoleSupport    Role = "support"
	RoleSales      Role = "sales"
)

// Actor is the authenticated caller as seen by the booking service.
type Actor struct {
	UserID uuid.UUID
	Role   Role
	// Token is the raw bearer token, forwarded to downstream service calls.
	Token string
}

func (a Actor) IsTenant() bool {
	return a.Role == RoleTenant
}

// CanManage reports whether the actor holds a staff role.
func (a Actor) CanManage() bool {
	switch a.Role {
	case RoleSuperAdmin, RoleManager, RoleSupport, RoleSales:
		return true
	}
	return false
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid token")

// ParseToken validates an HS256 token and extracts the actor. The subject
// claim must be the caller's user id.
func ParseToken(tokenStr, secret string) (Actor, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Actor{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Actor{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Actor{}, ErrInvalidToken
	}

	return Actor{UserID: userID, Role: Role(claims.Role), Token: tokenStr}, nil
}
