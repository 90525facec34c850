/*
Package randx generates session identities and fallback display names.
*/
package randx

import (
	"strings"

	"github.com/google/uuid"
)

// IdentityLength is the number of characters of a session identity.
const IdentityLength = 8

// AnonymousPrefix prefixes the display name of users who log in without a name.
const AnonymousPrefix = "Anonymous"

// Identity returns a fresh 8-character session identity taken from a random UUID.
func Identity() string {
	return uuid.NewString()[:IdentityLength]
}

// DisplayName returns login trimmed, or "Anonymous<id>" when login is blank.
func DisplayName(login, id string) string {
	if name := strings.TrimSpace(login); name != "" {
		return name
	}
	return AnonymousPrefix + id
}
