package ml

import (
	"errors"
	"fmt"
)

var (
	ErrIO                = errors.New("io failure")
	ErrMalformedRow      = errors.New("malformed row")
	ErrSerialization     = errors.New("serialization failure")
	ErrDeserialization   = errors.New("deserialization failure")
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// DimensionMismatchError reports two vectors that were required to share a length.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: want %d values, got %d", e.Want, e.Got)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

func checkDims(want, got int) error {
	if want != got {
		return &DimensionMismatchError{Want: want, Got: got}
	}
	return nil
}
