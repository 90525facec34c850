/*
Package req provides helper functions for HTTP request parsing and data binding.
*/
package req

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"lemuria/internal/pkg/errs"
)

// MaxJSONBodySize caps JSON request bodies; session payloads are tiny.
const MaxJSONBodySize int64 = 64 << 10

var integerPattern = regexp.MustCompile(`^-?[0-9]+$`)

// BindJSON decodes the JSON request body into dst. Unknown fields and trailing data are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBodySize))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// OptionalInt parses a query value made only of an optional minus sign and decimal digits.
// Anything else, including an empty value or an out-of-range number, reports ok=false.
func OptionalInt(raw string) (value int, ok bool) {
	if !integerPattern.MatchString(raw) {
		return 0, false
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return v, true
}

// IntOrDefault is OptionalInt with a fallback for unusable input.
func IntOrDefault(raw string, def int) int {
	if v, ok := OptionalInt(raw); ok {
		return v
	}
	return def
}
