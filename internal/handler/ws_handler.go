/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"lemuria/internal/app/presence"
	"lemuria/internal/pkg/auth/jwt"
	"lemuria/internal/pkg/errs"
	"lemuria/internal/pkg/logx"
	"lemuria/internal/pkg/resp"
)

// HandleWebSocket upgrades an identified request and attaches the socket to the caller's
// registry entry, creating the entry when the session outlived it.
func HandleWebSocket(manager *presence.Manager, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			logx.Warn("WebSocket request rejected: no identity")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		manager.Register(identity.ID, identity.Name)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket", "user_id", identity.ID)
			return
		}

		client := presence.NewClient(conn, identity.ID)

		go client.WritePump()

		u, err := manager.Attach(identity.ID, client)
		if err != nil {
			logx.Warn("WebSocket closed: user left the registry during upgrade.", "user_id", identity.ID)
			client.Close()
			return
		}

		logx.Info("WebSocket connection established", "user_id", identity.ID)

		client.ReadPump(manager, u)
	}
}
