package domain

import "errors"

var (
	// ErrInvalidParameter marks a caller-supplied parameter outside its valid range.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrMissingColumns marks an input table without one or more required columns.
	ErrMissingColumns = errors.New("missing required columns")

	// ErrNoPoints marks a render call that was given nothing to draw.
	ErrNoPoints = errors.New("no points supplied")

	// ErrColorOutOfRange marks a cluster label with no slot in the color palette.
	ErrColorOutOfRange = errors.New("cluster label outside color palette")
)
