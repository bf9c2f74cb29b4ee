package user

import "github.com/amirasaad/voicepay/webapi/common"

// ExistsResponse answers whether a phone number already has an account.
type ExistsResponse struct {
	Phone  string `json:"phone"`
	Exists bool   `json:"exists"`
}

// ProfileResponse is the caller's own profile.
type ProfileResponse struct {
	User    *common.UserDTO `json:"user"`
	Balance string          `json:"balance"`
}
