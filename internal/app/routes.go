package app

import (
	"net/http"

	"github.com/vkazakov/fifteen-server/internal/config"
	"github.com/vkazakov/fifteen-server/internal/handlers"
)

func (a *App) loadRoutes() {
	base := config.BasePath()

	auth := handlers.NewAuth(a.logger, a.repo, a.cookies, a.jwt)
	game := handlers.NewGameHandler(a.logger, a.repo, a.sessions)

	routes := http.NewServeMux()
	routes.HandleFunc("POST /api/auth/register", auth.Register)
	routes.HandleFunc("POST /api/auth/login", auth.Login)
	routes.HandleFunc("POST /api/auth/logout", auth.Logout)
	routes.HandleFunc("GET /api/auth/status", auth.Status)

	routes.HandleFunc("POST /api/action", game.Action)
	routes.HandleFunc("GET /api/leaderboards", game.Leaderboards)
	routes.HandleFunc("GET /api/records", game.Records)
	routes.HandleFunc("POST /api/upload-image", game.Upload)
	routes.HandleFunc("GET /api/image/{id}", game.ServeImage)
	routes.HandleFunc("GET /api/game/watch", game.Watch(a.ws))

	if base == "" {
		a.router.Handle("/", routes)
	} else {
		a.router.Handle(base+"/", http.StripPrefix(base, routes))
	}
}
