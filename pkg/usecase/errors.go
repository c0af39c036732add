package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// ErrInvalidRequest marks caller input that cannot be served
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAdvisorFailed marks a failure of the advisory text generator
	ErrAdvisorFailed = errors.New("advisor failed")
)

// Context keys for error values
const (
	CropKey     = "crop"
	LocationKey = "location"
)
