package auth

import "github.com/amirasaad/voicepay/webapi/common"

// OTPInput requests a one-time code for a phone number.
type OTPInput struct {
	Phone string `json:"phone" validate:"required,min=10,max=16"`
}

// VerifyInput checks a one-time code.
type VerifyInput struct {
	Phone string `json:"phone" validate:"required,min=10,max=16"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// SignUpInput creates a user for a phone verified in the last few minutes.
type SignUpInput struct {
	Name  string `json:"name" validate:"required,min=2,max=50"`
	Phone string `json:"phone" validate:"required,min=10,max=16"`
}

// OTPResponse describes a sent code. Code is only set in development.
type OTPResponse struct {
	Phone     string `json:"phone"`
	ExpiresAt string `json:"expires_at"`
	Code      string `json:"code,omitempty"`
}

// SessionResponse is returned once the caller is authenticated. IsNewUser
// means the phone is verified but has no account yet; no token is issued.
type SessionResponse struct {
	IsNewUser bool            `json:"is_new_user"`
	Token     string          `json:"token,omitempty"`
	User      *common.UserDTO `json:"user,omitempty"`
	Balance   string          `json:"balance,omitempty"`
}
