package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrUnknownKey         = fmt.Errorf("unknown configuration key")

	// Authentication errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")

	// Reconciliation errors
	ErrBridgeEvaluation = fmt.Errorf("bridge evaluation failed")
	ErrNoTrack          = fmt.Errorf("no track loaded")
	ErrCatalogLookup    = fmt.Errorf("catalog lookup failed")
	ErrAlbumLookup      = fmt.Errorf("album lookup failed")
	ErrArtworkLookup    = fmt.Errorf("artwork lookup failed")
	ErrSinkDelivery     = fmt.Errorf("sink delivery failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotConnected       = fmt.Errorf("not connected")

	// Persistence errors
	ErrNotFound     = fmt.Errorf("record not found")
	ErrNoMigrations = fmt.Errorf("no migrations applied")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
