/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system errors both inside the
server and in HTTP responses to API callers.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after the JSON document.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Catalog and User Business Logic Errors
const (
	// ErrCosmeticNotFound indicates that no cosmetic with the given id exists.
	ErrCosmeticNotFound = 2001

	// ErrUserNotFound indicates that the referenced user record does not exist.
	ErrUserNotFound = 2002
)

// 3xxx: Authorization Errors
const (
	// ErrUnauthorized indicates a missing or invalid API secret.
	ErrUnauthorized = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000
)
