package user

import "github.com/go-faster/errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNoToken           = errors.New("No token found")
)
