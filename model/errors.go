package model

import "errors"

var (
	// ErrNotFitted is returned when Transform or Predict runs before the
	// corresponding Fit established parameters.
	ErrNotFitted = errors.New("model is not fitted")

	// ErrAlreadyFitted is returned on a second Fit of a Standardizer; the
	// parameters are fixed for the lifetime of the instance.
	ErrAlreadyFitted = errors.New("standardizer is already fitted")

	// ErrDimensionMismatch is returned when a vector's width disagrees with
	// the fitted parameter width.
	ErrDimensionMismatch = errors.New("feature vector dimension mismatch")
)
