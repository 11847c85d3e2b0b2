/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template, standardizing
messages and HTTP status codes across the API surface.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Request body is not valid JSON."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Catalog and User Business Logic Errors
	ErrCosmeticNotFound: {Code: ErrCosmeticNotFound, Message: "Cosmetic %d not found.", Status: http.StatusNotFound},
	ErrUserNotFound:     {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},

	// 3xxx: Authorization Errors
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Invalid API secret.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
