package expreplay

import "errors"

var (
	errEmptyBuffer         = errors.New("buffer contains no samples")
	errInsufficientSamples = errors.New("buffer contains insufficient " +
		"samples to sample")
)

// ExpReplayError describes an error that occurred during an operation
// on an ExperienceReplayer
type ExpReplayError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error of the ExpReplayError
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

// IsEmptyBuffer returns whether err was caused by sampling from an
// empty experience replay buffer
func IsEmptyBuffer(err error) bool {
	var expErr *ExpReplayError
	if errors.As(err, &expErr) {
		return expErr.Err == errEmptyBuffer
	}
	return false
}

// IsInsufficientSamples returns whether err was caused by sampling
// from a buffer holding fewer samples than required for sampling
func IsInsufficientSamples(err error) bool {
	var expErr *ExpReplayError
	if errors.As(err, &expErr) {
		return expErr.Err == errInsufficientSamples
	}
	return false
}
