package domain

import (
	"errors"
)

var (
	MessageSuccessRegister   = "user registered successfully"
	MessageSuccessLogin      = "login success"
	MessageSuccessGetProfile = "profile retrieved successfully"
	MessageSuccessUpdateUser = "user updated successfully"

	MessageFailedRegister   = "failed to register user"
	MessageFailedLogin      = "failed to login"
	MessageFailedGetProfile = "failed to retrieve profile"
	MessageFailedUpdateUser = "failed to update user"

	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrCredentialsInvalid = errors.New("invalid email or password")
)

type (
	RegisterRequest struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}

	UserResponse struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}

	UpdateUserRequest struct {
		Name     string `json:"name" validate:"omitempty,min=1"`
		Password string `json:"password" validate:"omitempty,min=8"`
	}
)
