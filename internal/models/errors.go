package models

import (
	"errors"
)

var (
	ErrNoRecord           = errors.New("models: no matching record found")
	ErrComplaintNotFound  = errors.New("complaint not found")
	ErrUserNotFound       = errors.New("models: user not found")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicateEmail     = errors.New("models: duplicate email")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrInvalidCategory    = errors.New("invalid category value")
	ErrInvalidMobile      = errors.New("invalid mobile number")
	ErrInvalidName        = errors.New("invalid name")
	ErrEmptyDetails       = errors.New("complaint details are empty")
)
