package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/vkazakov/fifteen-server/internal/config"
	"github.com/vkazakov/fifteen-server/internal/database"
	"github.com/vkazakov/fifteen-server/internal/middleware"
	"github.com/vkazakov/fifteen-server/internal/repository"
	"github.com/vkazakov/fifteen-server/internal/session"
)

type App struct {
	logger     *slog.Logger
	router     *http.ServeMux
	db         *pgxpool.Pool
	repo       *repository.Queries
	sessions   *session.Manager
	cookies    *config.Cookies
	jwt        *config.JWT
	ws         *config.WebSocket
	migrations fs.FS
}

func New(logger *slog.Logger, migrations fs.FS) *App {
	return &App{
		logger:     logger,
		router:     http.NewServeMux(),
		migrations: migrations,
	}
}

func (a *App) Start(ctx context.Context) error {
	db, err := database.ConnectAndMigrate(ctx, a.migrations)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	defer db.Close()
	a.db = db
	a.repo = repository.New(db)

	jwt, err := config.NewJWT()
	if err != nil {
		return err
	}
	a.jwt = jwt

	cookies, err := config.NewCookies(jwt)
	if err != nil {
		return err
	}
	a.cookies = cookies

	ws, err := config.NewWebSocket()
	if err != nil {
		return err
	}
	a.ws = ws

	a.sessions = session.NewManager(a.logger, a.repo, config.DailySalt())

	a.loadRoutes()

	addr := config.Port()
	server := &http.Server{
		Addr: addr,
		Handler: middleware.Wrap(
			a.router,
			middleware.Cors(),
			middleware.Auth(a.logger, cookies, a.touchPlayer),
			middleware.Logging(a.logger),
		),
	}

	a.logger.Info("server listening", slog.String("addr", addr))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe()
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// touchPlayer refreshes last_seen_at on every authenticated request.
// Failures only cost the online marker, so they are logged and
// swallowed.
func (a *App) touchPlayer(ctx context.Context, playerID int64) {
	if err := a.repo.TouchPlayer(ctx, playerID); err != nil {
		a.logger.Warn("unable to touch player",
			slog.Int64("player_id", playerID),
			slog.Any("error", err),
		)
	}
}
