package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/vkazakov/fifteen-server/internal/config"
	"github.com/vkazakov/fifteen-server/internal/middleware"
	"github.com/vkazakov/fifteen-server/internal/repository"
)

type Auth struct {
	logger  *slog.Logger
	repo    *repository.Queries
	cookies *config.Cookies
	jwt     *config.JWT
}

func NewAuth(
	logger *slog.Logger,
	repo *repository.Queries,
	cookies *config.Cookies,
	jwt *config.JWT,
) *Auth {
	return &Auth{
		logger:  logger,
		repo:    repo,
		cookies: cookies,
		jwt:     jwt,
	}
}

// Credentials is the register/login body. The client sends a sha256 of
// the password; the server bcrypts that digest before storing it.
type Credentials struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
}

var (
	ErrBadAuthBody   = fmt.Errorf("request body must contain username and passwordHash")
	ErrUsernameTaken = fmt.Errorf("username taken")
	ErrBadLogin      = fmt.Errorf("invalid username or password")
)

func parseCredentials(r *http.Request) (*Credentials, error) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		return nil, ErrBadAuthBody
	}
	if creds.Username == "" || creds.PasswordHash == "" {
		return nil, ErrBadAuthBody
	}
	if len(creds.Username) > 32 || len(creds.PasswordHash) > 72 {
		return nil, ErrBadAuthBody
	}
	return &creds, nil
}

func (a Auth) Register(w http.ResponseWriter, r *http.Request) {
	creds, err := parseCredentials(r)
	if err != nil {
		sendValidationError(w, a.logger, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.PasswordHash), bcrypt.DefaultCost)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to hash password", "error", err)
		return
	}

	player, err := a.repo.CreatePlayer(r.Context(), creds.Username, hash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		w.WriteHeader(http.StatusConflict)
		sendJSONOrLog(w, a.logger, ErrorBody{
			Code:  "username_taken",
			Error: ErrUsernameTaken.Error(),
		})
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to insert player", "error", err)
		return
	}

	a.issueCookies(w, player)
}

func (a Auth) Login(w http.ResponseWriter, r *http.Request) {
	creds, err := parseCredentials(r)
	if err != nil {
		sendValidationError(w, a.logger, err)
		return
	}

	player, err := a.repo.FetchPlayer(r.Context(), creds.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		w.WriteHeader(http.StatusUnauthorized)
		sendJSONOrLog(w, a.logger, ErrorBody{
			Code:  "not_authorized",
			Error: ErrBadLogin.Error(),
		})
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to fetch player", "error", err)
		return
	}

	err = bcrypt.CompareHashAndPassword(player.PasswordHash, []byte(creds.PasswordHash))
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		sendJSONOrLog(w, a.logger, ErrorBody{
			Code:  "not_authorized",
			Error: ErrBadLogin.Error(),
		})
		return
	}

	a.issueCookies(w, player)
}

func (a Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.cookies.Clear(w)
	sendJSONOrLog(w, a.logger, map[string]bool{"loggedIn": false})
}

type PlayerInfo struct {
	PlayerId int64  `json:"player_id"`
	Username string `json:"username"`
}

type Status struct {
	LoggedIn bool        `json:"logged_in"`
	Player   *PlayerInfo `json:"player,omitempty"`
}

func (a Auth) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r)
	if !ok {
		a.cookies.Clear(w)
		sendJSONOrLog(w, a.logger, Status{LoggedIn: false})
		return
	}

	token, err := a.jwt.Sign(config.NewPlayerClaims(claims.PlayerID, claims.Username))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to tokenize checked claims", "error", err)
		return
	}
	if err = a.cookies.Refresh(w, token); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to refresh cookies", "error", err)
		return
	}

	sendJSONOrLog(w, a.logger, Status{
		LoggedIn: true,
		Player:   &PlayerInfo{claims.PlayerID, claims.Username},
	})
}

func (a Auth) issueCookies(w http.ResponseWriter, player *repository.Player) {
	token, err := a.jwt.Sign(
		config.NewPlayerClaims(player.PlayerID, player.Username),
	)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to create a jwt token", "error", err)
		return
	}
	if err = a.cookies.Refresh(w, token); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		a.logger.Error("unable to set cookies", "error", err)
		return
	}
	sendJSONOrLog(w, a.logger, Status{
		LoggedIn: true,
		Player:   &PlayerInfo{player.PlayerID, player.Username},
	})
}
