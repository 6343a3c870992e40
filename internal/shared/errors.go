package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrTokenExpired        = fmt.Errorf("session token expired")
	ErrInvalidToken        = fmt.Errorf("invalid session token")
	ErrUnsupportedProvider = fmt.Errorf("unsupported auth provider")
	ErrTimeout             = fmt.Errorf("operation timed out")

	// Store and service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrBookmarkNotFound   = fmt.Errorf("bookmark not found")
	ErrAccountNotFound    = fmt.Errorf("account not found")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrSubscriptionClosed = fmt.Errorf("subscription closed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotEditing      = fmt.Errorf("no bookmark is being edited")
)
