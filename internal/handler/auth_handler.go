/*
Package handler provides HTTP handler functions for session login, logout and token renewal.
*/
package handler

import (
	"net/http"

	"lemuria/internal/pkg/auth/jwt"
	"lemuria/internal/pkg/errs"
	"lemuria/internal/pkg/logx"
	"lemuria/internal/pkg/randx"
	"lemuria/internal/pkg/req"
	"lemuria/internal/pkg/resp"
)

type LoginInput struct {
	Login string `json:"login"`

	// Password is accepted for client compatibility; sessions are not backed by accounts.
	Password string `json:"password"`
}

// SessionView is the identity returned by the session endpoints.
type SessionView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleLogin registers a fresh identity in the presence registry and issues its
// access and refresh cookies.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		id := randx.Identity()
		name := randx.DisplayName(input.Login, id)

		if err := issueTokens(w, deps, id, name, true); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown).WithCause(err))
			return
		}

		deps.Presence.Register(id, name)

		logx.Info("User logged in.", "user_id", id, "name", name)

		resp.RespondSuccess(w, r, SessionView{ID: id, Name: name})
	}
}

// HandleLogout removes the caller from the registry, if known, and clears its cookies.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed := false
		if identity := jwt.GetPayloadFromContext(r); identity != nil {
			removed = deps.Presence.Remove(identity.ID)
			logx.Info("User logged out.", "user_id", identity.ID, "removed", removed)
		}

		jwt.ClearCookie(w, jwt.AccessCookieName)
		jwt.ClearCookie(w, jwt.RefreshCookieName)

		resp.RespondSuccess(w, r, map[string]bool{"removed": removed})
	}
}

// HandleSession returns the caller's identity. A valid token whose user is no longer in the
// registry, e.g. after a restart, is registered again with default state.
func HandleSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		u := deps.Presence.Register(identity.ID, identity.Name)

		resp.RespondSuccess(w, r, SessionView{ID: u.ID(), Name: u.Name()})
	}
}

// HandleRenew exchanges a valid refresh token for a new access cookie.
func HandleRenew(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := jwt.TokenFromRequest(r, jwt.RefreshCookieName)
		if token == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		identity, err := jwt.ParseToken(token, jwt.KindRefresh, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("Renew rejected: invalid refresh token.", "error", err.Error())
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if err := issueTokens(w, deps, identity.ID, identity.Name, false); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown).WithCause(err))
			return
		}

		u := deps.Presence.Register(identity.ID, identity.Name)

		resp.RespondSuccess(w, r, SessionView{ID: u.ID(), Name: u.Name()})
	}
}

// issueTokens sets the access cookie and, when withRefresh is set, the refresh cookie.
func issueTokens(w http.ResponseWriter, deps *AppDeps, id, name string, withRefresh bool) error {
	secret := deps.Config.JWTSecret
	secure := !deps.Config.IsDevelopment()

	access, err := jwt.GenerateToken(id, name, jwt.KindAccess, secret, jwt.AccessExpiration)
	if err != nil {
		return err
	}

	var refresh string
	if withRefresh {
		if refresh, err = jwt.GenerateToken(id, name, jwt.KindRefresh, secret, jwt.RefreshExpiration); err != nil {
			return err
		}
	}

	jwt.SetCookie(w, jwt.AccessCookieName, access, jwt.AccessExpiration, secure)
	if withRefresh {
		jwt.SetCookie(w, jwt.RefreshCookieName, refresh, jwt.RefreshExpiration, secure)
	}
	return nil
}
