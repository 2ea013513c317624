package boundary

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when the boundary function to install on does
	// not exist or is not callable.
	ErrNotFound = errors.New("boundary function not found")

	// ErrNotCallback is returned when a declared callback position does not
	// hold a func-typed parameter.
	ErrNotCallback = errors.New("argument is not a callback")
)
