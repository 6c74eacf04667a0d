package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

// AccessTokenPayload is what the auth service knows when it mints a token.
type AccessTokenPayload struct {
	UserID          uint64
	PickerID        string
	Role            enums.Role
	PasswordChanged bool
	JTI             string
}

// AccessTokenClaims is the JWT body. ID (jti) keys the refresh session in
// redis.
type AccessTokenClaims struct {
	UserID          uint64     `json:"user_id"`
	PickerID        string     `json:"picker_id"`
	Role            enums.Role `json:"role"`
	PasswordChanged bool       `json:"password_changed"`
	jwt.RegisteredClaims
}

// Validate checks the application claims. The jwt parser calls it after the
// registered claims pass.
func (c AccessTokenClaims) Validate() error {
	switch {
	case c.UserID == 0:
		return errors.New("user id is required")
	case c.PickerID == "":
		return errors.New("picker id is required")
	case !c.Role.IsValid():
		return fmt.Errorf("invalid role %q", c.Role)
	case c.ID == "":
		return errors.New("token id is required")
	}
	return nil
}
