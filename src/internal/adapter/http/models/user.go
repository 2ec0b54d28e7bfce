package models

import (
	"errors"
	"strings"
)

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (r CreateUserRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.Username) == "" {
		errs = append(errs, "username is required")
	}

	if len(strings.TrimSpace(r.Password)) < 6 {
		errs = append(errs, "password must be at least 6 characters")
	}

	if role := strings.ToUpper(strings.TrimSpace(r.Role)); role != "" {
		if role != "NORMAL" && role != "VIP" && role != "ADMIN" {
			errs = append(errs, "role must be one of NORMAL, VIP, ADMIN")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type CreateUserResponse struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type GetUserResponse struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type VerifyPasswordResponse struct {
	Username string `json:"username"`
	IsValid  bool   `json:"isValid"`
}
