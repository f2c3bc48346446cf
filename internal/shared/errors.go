package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Listing errors. Both are fatal for the command that triggered them.
	ErrAuth   = fmt.Errorf("authentication failed")
	ErrRemote = fmt.Errorf("remote API error")

	// Per-item errors, isolated to a single emoji
	ErrFetch            = fmt.Errorf("download failed")
	ErrPublishTransient = fmt.Errorf("upload failed (retryable)")
	ErrPublishFatal     = fmt.Errorf("upload rejected")

	// Local artifact errors
	ErrArtifact = fmt.Errorf("invalid emoji list artifact")

	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("record not found")

	// Input validation errors
	ErrMissingCommand  = fmt.Errorf("missing command")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
