package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// AccessExpiration is the lifetime of access tokens.
	AccessExpiration = 15 * time.Minute

	// RefreshExpiration is the lifetime of refresh tokens.
	RefreshExpiration = 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "Lemuria-Server"
)

// ErrWrongKind is returned when a refresh token is presented where an access token is expected, or vice versa.
var ErrWrongKind = errors.New("token kind mismatch")

// GenerateToken signs a token of the given kind for identity id.
func GenerateToken(id, name, kind, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload := &Payload{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
		},
		ID:   id,
		Name: name,
		Kind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken validates tokenString and checks that it is of the expected kind.
func ParseToken(tokenString, kind, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if claims.Kind != kind {
		return nil, ErrWrongKind
	}

	return claims, nil
}
