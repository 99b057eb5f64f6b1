package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vkazakov/fifteen-server/internal/config"
	"github.com/vkazakov/fifteen-server/internal/middleware"
	"github.com/vkazakov/fifteen-server/internal/session"
)

// WatchUpdate is one websocket frame of the live game feed.
type WatchUpdate struct {
	Status        string `json:"status"`
	Moves         int    `json:"moves"`
	TimeRemaining int    `json:"timeRemaining"`
}

// Watch streams the player's active session over a websocket: one
// update per second plus a final one when the game goes terminal.
func (g GameHandler) Watch(ws *config.WebSocket) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.PlayerClaims(r)
		if !ok {
			sendError(w, g.logger, errNotAuthorized)
			return
		}

		snap, err := g.sessions.Current(r.Context(), claims.PlayerID)
		if errors.Is(err, session.ErrSessionNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			g.logger.Error("unable to load session for watch", "error", err)
			return
		}

		c, err := ws.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			g.logger.Error("websocket upgrade failed", "error", err)
			return
		}
		defer c.Close()

		// the read pump only serves to detect the peer going away
		go func() {
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			update := WatchUpdate{
				Status:        string(snap.Status),
				Moves:         snap.Moves,
				TimeRemaining: snap.Remaining,
			}
			if err := c.WriteJSON(update); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					g.logger.Debug("watch write failed", "error", err)
				}
				return
			}
			if snap.Status.Terminal() {
				return
			}

			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}

			snap, err = g.sessions.Current(r.Context(), claims.PlayerID)
			if err != nil {
				return
			}
		}
	}
}
