package core

import (
	"errors"
)

// Domain errors - centralized error definitions
var (
	ErrMalformedData = errors.New("malformed tabular data")
)
