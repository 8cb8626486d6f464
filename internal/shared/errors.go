package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Track and streaming errors
	ErrTrackNotFound       = fmt.Errorf("track not found")
	ErrTrackFileNotFound   = fmt.Errorf("track file not found")
	ErrRangeNotSatisfiable = fmt.Errorf("range not satisfiable")
	ErrStreamingFailed     = fmt.Errorf("streaming failed")

	// External source errors
	ErrSourceUnreachable = fmt.Errorf("external source unreachable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
