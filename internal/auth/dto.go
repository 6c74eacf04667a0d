package auth

import (
	"github.com/warehouse-incentives/incentives-backend/internal/users"
)

// LoginRequest captures the credentials sent to either login endpoint.
type LoginRequest struct {
	PickerID string `json:"picker_id" validate:"required,picker_id"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token pair and the signed-in user.
type LoginResponse struct {
	AccessToken        string         `json:"access_token"`
	RefreshToken       string         `json:"refresh_token"`
	MustChangePassword bool           `json:"must_change_password"`
	User               *users.UserDTO `json:"user"`
}

// RefreshInput identifies the session being rotated. AccessID and UserID come
// from the presented (possibly expired) access token.
type RefreshInput struct {
	AccessID     string
	UserID       uint64
	RefreshToken string
}

// TokenPair is returned by a successful refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest is used both for the first-login change and from
// settings. CurrentPassword may be empty only on the first change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}
