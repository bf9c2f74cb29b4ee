package common

import "github.com/amirasaad/voicepay/pkg/domain/user"

// UserDTO is the public view of a user.
type UserDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Handle string `json:"handle"`
}

func ToUserDTO(u *user.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{ID: u.ID.String(), Name: u.Name, Phone: u.Phone, Handle: u.Handle}
}
