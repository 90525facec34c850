package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx
	ErrWorldNotFound: {Code: ErrWorldNotFound, Message: "World not found.", Status: http.StatusNotFound},
	ErrDumpMissing:   {Code: ErrDumpMissing, Message: "Dump file %s is missing.", Status: http.StatusNotFound},
	ErrDumpMalformed: {Code: ErrDumpMalformed, Message: "Dumps of world %s are malformed."},
	ErrImportFailed:  {Code: ErrImportFailed, Message: "World import failed.", Status: http.StatusInternalServerError},

	// 3xxx
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	// 5xxx
	ErrUnknown:       {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageFailed: {Code: ErrStorageFailed, Message: "World storage is unavailable.", Status: http.StatusServiceUnavailable},
}
