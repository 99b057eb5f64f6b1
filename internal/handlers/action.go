package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vkazakov/fifteen-server/internal/fifteen"
	"github.com/vkazakov/fifteen-server/internal/middleware"
	"github.com/vkazakov/fifteen-server/internal/repository"
	"github.com/vkazakov/fifteen-server/internal/session"
)

// GameHandler serves the /api/action RPC surface plus its read-only
// mirrors and the websocket feed.
type GameHandler struct {
	logger   *slog.Logger
	repo     *repository.Queries
	sessions *session.Manager
}

func NewGameHandler(
	logger *slog.Logger,
	repo *repository.Queries,
	sessions *session.Manager,
) *GameHandler {
	return &GameHandler{
		logger:   logger,
		repo:     repo,
		sessions: sessions,
	}
}

// actionRequest is the envelope of every game RPC: a discriminator
// plus action-specific params decoded lazily.
type actionRequest struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

type startParams struct {
	Size         int    `json:"size"`
	Difficulty   int    `json:"difficulty"`
	GameMode     string `json:"gameMode"`
	ImageId      *int64 `json:"imageId"`
	Daily        bool   `json:"isDailyChallenge"`
	ForceNew     bool   `json:"forceNew"`
	ReplayGameId *int64 `json:"replayGameId"`
}

type moveParams struct {
	Tile int `json:"tile"`
}

// looseInt decodes a JSON number or a numeric string. The stock client
// sends filter values straight from select boxes, so both shapes occur
// on the wire.
type looseInt int64

func (n *looseInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*n = looseInt(v)
	return nil
}

// filter converts a select-box value to a repository filter: zero
// means "all".
func (n looseInt) filter() *int {
	if n == 0 {
		return nil
	}
	v := int(n)
	return &v
}

type resumeParams struct {
	GameId looseInt `json:"gameId"`
}

type historyParams struct {
	Size       looseInt `json:"size"`
	Difficulty looseInt `json:"difficulty"`
	Result     *string  `json:"result"`
}

type leaderboardParams struct {
	Size       looseInt `json:"size"`
	Difficulty looseInt `json:"difficulty"`
}

type imageParams struct {
	ImageId int64 `json:"imageId"`
}

func (g GameHandler) Action(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r)
	if !ok {
		sendError(w, g.logger, errNotAuthorized)
		return
	}
	playerID := claims.PlayerID

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendValidationError(w, g.logger, fmt.Errorf("malformed request body: %w", err))
		return
	}

	ctx := r.Context()

	var (
		result any
		err    error
	)
	switch req.Action {
	case "start":
		result, err = g.start(ctx, playerID, req.Params)
	case "move":
		var p moveParams
		if err = json.Unmarshal(req.Params, &p); err != nil {
			err = fmt.Errorf("%w: %v", errBadParams, err)
			break
		}
		var snap *session.Snapshot
		snap, err = g.sessions.Move(ctx, playerID, p.Tile)
		result = dtoOrNil(snap)
	case "undo":
		var snap *session.Snapshot
		snap, err = g.sessions.Undo(ctx, playerID)
		result = dtoOrNil(snap)
	case "redo":
		var snap *session.Snapshot
		snap, err = g.sessions.Redo(ctx, playerID)
		result = dtoOrNil(snap)
	case "restart":
		var snap *session.Snapshot
		snap, err = g.sessions.Restart(ctx, playerID)
		result = dtoOrNil(snap)
	case "abandon":
		var snap *session.Snapshot
		snap, err = g.sessions.Abandon(ctx, playerID)
		result = dtoOrNil(snap)
	case "timeout":
		var snap *session.Snapshot
		snap, err = g.sessions.Timeout(ctx, playerID)
		result = dtoOrNil(snap)
	case "hint":
		var tile int
		tile, err = g.sessions.Hint(ctx, playerID)
		result = map[string]int{"hint": tile}
	case "resume_game":
		result, err = g.resume(ctx, playerID, req.Params)
	case "get_user_stats":
		result, err = g.repo.UserStats(ctx, playerID)
	case "get_game_history":
		result, err = g.gameHistory(ctx, playerID, req.Params)
	case "get_leaderboards":
		result, err = g.leaderboards(ctx, req.Params)
	case "get_daily_leaderboard":
		var entries []repository.DailyEntry
		date := time.Now().UTC().Format(time.DateOnly)
		entries, err = g.repo.DailyLeaderboard(ctx, date)
		result = map[string]any{"leaderboard": entries, "date": date}
	case "get_default_images":
		var images []repository.ImageInfo
		images, err = g.repo.ListDefaultImages(ctx)
		result = map[string]any{"images": images}
	case "get_user_images":
		var images []repository.ImageInfo
		images, err = g.repo.ListPlayerImages(ctx, playerID)
		result = map[string]any{"images": images}
	case "delete_image":
		var p imageParams
		if err = json.Unmarshal(req.Params, &p); err != nil {
			err = fmt.Errorf("%w: %v", errBadParams, err)
			break
		}
		err = g.repo.DeleteImage(ctx, playerID, p.ImageId)
		result = map[string]string{"status": "deleted"}
	default:
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, ErrorBody{
			Code:  "unknown_action",
			Error: fmt.Sprintf("unknown action %q", req.Action),
		})
		return
	}

	if errors.Is(err, errBadParams) {
		sendValidationError(w, g.logger, err)
		return
	}
	if err != nil {
		g.logAction(req.Action, playerID, err)
		sendError(w, g.logger, err)
		return
	}

	sendJSONOrLog(w, g.logger, result)
}

var errBadParams = fmt.Errorf("bad action params")

func (g GameHandler) start(
	ctx context.Context, playerID int64, raw json.RawMessage,
) (any, error) {
	var p startParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadParams, err)
		}
	}

	mode, err := session.ParseMode(p.GameMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadParams, err)
	}
	if mode == session.ModeImage && p.ImageId == nil && p.ReplayGameId == nil {
		return nil, fmt.Errorf("%w: gameMode IMAGE requires imageId", errBadParams)
	}
	if !p.Daily && p.ReplayGameId == nil {
		if err := fifteen.ValidateParams(p.Size, p.Difficulty); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadParams, err)
		}
	}
	if mode == session.ModeImage && p.ImageId != nil {
		// the player must actually have access to the image
		if _, err := g.repo.GetImage(ctx, playerID, *p.ImageId); err != nil {
			return nil, err
		}
	}

	snap, activeFound, err := g.sessions.Start(ctx, playerID, session.StartSettings{
		Size:         p.Size,
		Difficulty:   p.Difficulty,
		Mode:         mode,
		ImageID:      p.ImageId,
		Daily:        p.Daily,
		ForceNew:     p.ForceNew,
		ReplayGameID: p.ReplayGameId,
	})
	if err != nil {
		return nil, err
	}
	dto := NewSessionDTO(snap)
	dto.ActiveSessionFound = activeFound
	return dto, nil
}

func (g GameHandler) resume(
	ctx context.Context, playerID int64, raw json.RawMessage,
) (any, error) {
	var p resumeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadParams, err)
		}
	}
	snap, err := g.sessions.Resume(ctx, playerID, int64(p.GameId))
	if err != nil {
		return nil, err
	}
	return NewSessionDTO(snap), nil
}

func (g GameHandler) gameHistory(
	ctx context.Context, playerID int64, raw json.RawMessage,
) (any, error) {
	var p historyParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadParams, err)
		}
	}
	entries, err := g.repo.GameHistory(ctx, playerID, repository.HistoryFilter{
		Size:       p.Size.filter(),
		Difficulty: p.Difficulty.filter(),
		Result:     p.Result,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"games": entries}, nil
}

func (g GameHandler) leaderboards(
	ctx context.Context, raw json.RawMessage,
) (any, error) {
	var p leaderboardParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadParams, err)
		}
	}
	entries, err := g.repo.Leaderboard(ctx, repository.LeaderboardFilter{
		Size:       p.Size.filter(),
		Difficulty: p.Difficulty.filter(),
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"leaderboard": entries}, nil
}

func dtoOrNil(snap *session.Snapshot) any {
	if snap == nil {
		return nil
	}
	return NewSessionDTO(snap)
}

func (g GameHandler) logAction(action string, playerID int64, err error) {
	g.logger.Debug("action failed",
		slog.String("action", action),
		slog.Int64("player_id", playerID),
		slog.Any("error", err),
	)
}
