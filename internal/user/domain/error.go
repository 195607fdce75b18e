package domain

import "errors"

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidUser  = errors.New("invalid_user")
	ErrUserNotFound = errors.New("user_not_found")
	ErrEmailTaken   = errors.New("email_taken")
)
