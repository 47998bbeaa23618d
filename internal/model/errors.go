package model

import "errors"

var (
	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")

	// Profile related errors
	ErrChannelNotFound = errors.New("channel not found")
	ErrVideoNotFound   = errors.New("video not found")

	// Tea related errors
	ErrTeaNotFound = errors.New("tea not found")

	// Media related errors
	ErrMediaNotFound = errors.New("media not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
