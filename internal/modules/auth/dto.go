package auth

import "imagevault/internal/domain"

type RegisterRequest struct {
	Username string `json:"username" validate:"max=100"`
	Email    string `json:"email" validate:"email,max=255"`
	Password string `json:"password" validate:"max=72"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserPublic struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

type LoginResult struct {
	Token string
	User  *domain.User
}

func toUserPublic(u *domain.User, withRole bool) UserPublic {
	p := UserPublic{ID: u.ID, Username: u.Username, Email: u.Email}
	if withRole {
		p.Role = string(u.Role)
	}
	return p
}
