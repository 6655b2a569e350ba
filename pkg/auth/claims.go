package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/zauberjournal/journal-api/pkg/enums"
)

// AccessTokenPayload is the input for MintAccessToken.
type AccessTokenPayload struct {
	Subject string
	Role    enums.Role
	JTI     string
}

// AccessTokenClaims is the admin token: registered claims plus a role.
type AccessTokenClaims struct {
	Role enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token grants the admin surface.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.RoleAdmin
}
