/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: World Data Errors
const (
	// ErrWorldNotFound indicates that the requested world id or name does not exist.
	ErrWorldNotFound = 2101

	// ErrDumpMissing indicates that a required dump file could not be found in the dump store.
	ErrDumpMissing = 2201

	// ErrDumpMalformed indicates that a dump file could not be parsed; nothing was written.
	ErrDumpMalformed = 2202

	// ErrImportFailed indicates that the storage transaction for an import was rolled back.
	ErrImportFailed = 2203
)

// 3xxx: Session and Security Errors
const (
	// ErrUnauthorized indicates that no valid identity accompanies the request.
	ErrUnauthorized = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorageFailed indicates a failure talking to the relational store.
	ErrStorageFailed = 5001
)
