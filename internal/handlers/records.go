package handlers

import (
	"net/http"

	"github.com/gorilla/schema"

	"github.com/vkazakov/fifteen-server/internal/middleware"
	"github.com/vkazakov/fifteen-server/internal/repository"
)

type LeaderboardQueryDTO struct {
	Size       *int `schema:"size"`
	Difficulty *int `schema:"difficulty"`
}

type RecordsQueryDTO struct {
	Size       *int    `schema:"size"`
	Difficulty *int    `schema:"difficulty"`
	Result     *string `schema:"result"`
}

func parseQuery(dst any, src map[string][]string) error {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return dec.Decode(dst, src)
}

// Leaderboards is the read-only GET mirror of the get_leaderboards
// action.
func (g GameHandler) Leaderboards(w http.ResponseWriter, r *http.Request) {
	var dto LeaderboardQueryDTO
	if err := parseQuery(&dto, r.URL.Query()); err != nil {
		sendValidationError(w, g.logger, err)
		return
	}

	entries, err := g.repo.Leaderboard(r.Context(), repository.LeaderboardFilter{
		Size:       dto.Size,
		Difficulty: dto.Difficulty,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to fetch leaderboard", "error", err)
		return
	}

	sendJSONOrLog(w, g.logger, map[string]any{"leaderboard": entries})
}

// Records serves the authenticated player's game history.
func (g GameHandler) Records(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.PlayerClaims(r)
	if !ok {
		sendError(w, g.logger, errNotAuthorized)
		return
	}

	var dto RecordsQueryDTO
	if err := parseQuery(&dto, r.URL.Query()); err != nil {
		sendValidationError(w, g.logger, err)
		return
	}

	entries, err := g.repo.GameHistory(r.Context(), claims.PlayerID, repository.HistoryFilter{
		Size:       dto.Size,
		Difficulty: dto.Difficulty,
		Result:     dto.Result,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to fetch game history", "error", err)
		return
	}

	sendJSONOrLog(w, g.logger, map[string]any{"games": entries})
}
