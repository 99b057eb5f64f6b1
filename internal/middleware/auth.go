package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vkazakov/fifteen-server/internal/config"
)

type CtxKey int

const (
	CtxPlayerClaims CtxKey = iota
)

// PlayerClaims extracts the claims the auth middleware attached to the
// request, if any.
func PlayerClaims(r *http.Request) (*config.PlayerClaims, bool) {
	claims, ok := r.Context().Value(CtxPlayerClaims).(*config.PlayerClaims)
	return claims, ok
}

// Auth parses the JWT cookie pair and attaches player claims to the
// request context. Requests with missing or invalid cookies proceed
// anonymously with the cookies cleared. onSeen, when set, is invoked
// with the player id of every authenticated request; it backs the
// leaderboard online markers.
func Auth(
	log *slog.Logger,
	cookies *config.Cookies,
	onSeen func(ctx context.Context, playerID int64),
) Middleware {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := cookies.ParsePlayerClaims(r)
			if err != nil {
				cookies.Clear(w)
				h.ServeHTTP(w, r)
				return
			}
			if onSeen != nil {
				onSeen(r.Context(), claims.PlayerID)
			}
			ctx := context.WithValue(r.Context(), CtxPlayerClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
