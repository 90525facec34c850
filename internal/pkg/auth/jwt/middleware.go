package jwt

import (
	"context"
	"net/http"
	"strings"
	"time"

	"lemuria/internal/pkg/logx"
)

type contextKey string

const (
	// ContextAuthPayloadKey stores the parsed access Payload in the request context.
	ContextAuthPayloadKey contextKey = "auth_payload"

	// AccessCookieName carries the access token for browsers and websocket upgrades.
	AccessCookieName = "lemuria_token_access"

	// RefreshCookieName carries the refresh token.
	RefreshCookieName = "lemuria_token_renew"
)

// TokenFromRequest returns the raw token from the "Bearer" Authorization header or,
// failing that, from the named cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// IdentityExtractorMiddleware validates the access token if one is present and injects the
// Payload into the context. It never rejects: handlers decide what anonymous callers may do.
func IdentityExtractorMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := TokenFromRequest(r, AccessCookieName)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			payload, err := ParseToken(tokenString, KindAccess, secretKey)
			if err != nil {
				logx.Warn("Invalid or expired access token, treating as anonymous", "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext returns the access Payload, or nil for anonymous requests.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)
	if !ok {
		return nil
	}
	return payload
}

// SetCookie writes token as an HTTP-only cookie that expires together with the token.
func SetCookie(w http.ResponseWriter, name, token string, lifetime time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(lifetime.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the named cookie.
func ClearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
