package session

import "github.com/go-faster/errors"

var ErrNotFound = errors.New("key not found")
