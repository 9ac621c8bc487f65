package api

import "errors"

var (
	// -- Authentication --
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")

	// -- Payload shape --
	ErrUnexpectedListShape = errors.New("unexpected list payload shape")

	// -- Transport --
	ErrBadStatus = errors.New("unexpected response status")
)
