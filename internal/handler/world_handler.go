/*
Package handler provides HTTP handler functions for the world read model: world list and
descriptor, prop queries and terrain pages. These answer with their payload as is.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"lemuria/internal/app/world"
	"lemuria/internal/pkg/auth/jwt"
	"lemuria/internal/pkg/errs"
	"lemuria/internal/pkg/req"
	"lemuria/internal/pkg/resp"
)

// HandleListWorlds lists every world with its number of connected users.
func HandleListWorlds(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := deps.Worlds.List(r.Context())
		if err != nil {
			resp.RespondError(w, r, worldError(err))
			return
		}
		resp.RespondJSON(w, r, http.StatusOK, list)
	}
}

// HandleGetWorld returns the world descriptor. An identified caller is moved into the
// world, which rebroadcasts the user list.
func HandleGetWorld(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := worldID(w, r)
		if !ok {
			return
		}

		desc, err := deps.Worlds.Get(r.Context(), id)
		if err != nil {
			resp.RespondError(w, r, worldError(err))
			return
		}

		if identity := jwt.GetPayloadFromContext(r); identity != nil {
			deps.Presence.SetWorld(identity.ID, id)
		}

		resp.RespondJSON(w, r, http.StatusOK, desc)
	}
}

// HandleGetProps returns the props inside the min_/max_ bounds of the query string.
func HandleGetProps(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := worldID(w, r)
		if !ok {
			return
		}

		props, err := deps.Worlds.Props(r.Context(), id, world.ParseBounds(r.URL.Query()))
		if err != nil {
			resp.RespondError(w, r, worldError(err))
			return
		}
		resp.RespondJSON(w, r, http.StatusOK, props)
	}
}

// HandleGetTerrain returns terrain page (page_x, page_z); missing coordinates read as 0.
func HandleGetTerrain(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := worldID(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		pageX := req.IntOrDefault(q.Get("page_x"), 0)
		pageZ := req.IntOrDefault(q.Get("page_z"), 0)

		page, err := deps.Worlds.TerrainPage(r.Context(), id, pageX, pageZ)
		if err != nil {
			resp.RespondError(w, r, worldError(err))
			return
		}
		resp.RespondJSON(w, r, http.StatusOK, page)
	}
}

func worldID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := world.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
		return 0, false
	}
	return id, true
}

func worldError(err error) *errs.CustomError {
	if world.IsNotFound(err) {
		return errs.NewError(errs.ErrWorldNotFound)
	}
	return errs.NewError(errs.ErrStorageFailed).WithCause(err)
}
