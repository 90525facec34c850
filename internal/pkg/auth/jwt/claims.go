package jwt

import "github.com/golang-jwt/jwt"

// Token kinds carried in the Kind claim.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Payload defines the JWT claims issued at login. The ID is the session identity the
// presence registry is keyed by.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the session identity assigned at login.
	ID string `json:"id"`

	// Name is the display name chosen at login, used to re-register the identity after a restart.
	Name string `json:"name"`

	// Kind tells access tokens from refresh tokens so one cannot stand in for the other.
	Kind string `json:"kind"`
}
