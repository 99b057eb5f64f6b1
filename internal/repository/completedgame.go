package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vkazakov/fifteen-server/internal/session"
)

func (q *Queries) SaveCompletedGame(
	ctx context.Context, rec *session.CompletedGame,
) error {
	return q.db.QueryRow(ctx, `
		INSERT INTO completed_game (
			player_id, game_session_id, size, difficulty, game_mode, image_id,
			moves, playtime, status, stars, daily_date, finished_at
		)
		VALUES (
			@player_id, @game_session_id, @size, @difficulty, @game_mode,
			@image_id, @moves, @playtime, @status, @stars, @daily_date,
			@finished_at
		)
		RETURNING completed_game_id;`,
		pgx.NamedArgs{
			"player_id":       rec.PlayerID,
			"game_session_id": rec.SessionID,
			"size":            rec.Size,
			"difficulty":      rec.Difficulty,
			"game_mode":       string(rec.Mode),
			"image_id":        rec.ImageID,
			"moves":           rec.Moves,
			"playtime":        rec.Playtime,
			"status":          string(rec.Status),
			"stars":           rec.Stars,
			"daily_date":      rec.DailyDate,
			"finished_at":     rec.FinishedAt,
		},
	).Scan(&rec.ID)
}

func (q *Queries) FindCompletedGame(
	ctx context.Context, playerID, gameID int64,
) (*session.CompletedGame, error) {
	var (
		rec    session.CompletedGame
		mode   string
		status string
	)
	err := q.db.QueryRow(ctx, `
		SELECT completed_game_id, player_id, game_session_id, size, difficulty,
			game_mode, image_id, moves, playtime, status, stars, daily_date,
			finished_at
		FROM completed_game
		WHERE completed_game_id = $1 AND player_id = $2;`,
		gameID, playerID,
	).Scan(
		&rec.ID, &rec.PlayerID, &rec.SessionID, &rec.Size, &rec.Difficulty,
		&mode, &rec.ImageID, &rec.Moves, &rec.Playtime, &status, &rec.Stars,
		&rec.DailyDate, &rec.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Mode = session.Mode(mode)
	rec.Status = session.Status(status)
	return &rec, nil
}

// HistoryEntry is one line of a player's game history, shaped for the
// client.
type HistoryEntry struct {
	GameID     int64  `json:"gameId"`
	Date       string `json:"date"`
	Size       int    `json:"size"`
	Difficulty int    `json:"difficulty"`
	Moves      int    `json:"moves"`
	Time       int    `json:"time"`
	Status     string `json:"status"`
	Stars      int    `json:"stars"`
}

type HistoryFilter struct {
	Size       *int
	Difficulty *int
	Result     *string // terminal status
}

func (f HistoryFilter) WhereClause() (string, pgx.NamedArgs) {
	clauses := make([]string, 0)
	args := pgx.NamedArgs{}
	if f.Size != nil {
		clauses = append(clauses, "size = @size")
		args["size"] = *f.Size
	}
	if f.Difficulty != nil {
		clauses = append(clauses, "difficulty = @difficulty")
		args["difficulty"] = *f.Difficulty
	}
	if f.Result != nil {
		clauses = append(clauses, "status = @status")
		args["status"] = *f.Result
	}
	return strings.Join(clauses, " AND "), args
}

func (q *Queries) GameHistory(
	ctx context.Context, playerID int64, filter HistoryFilter,
) ([]HistoryEntry, error) {
	query := `
	SELECT
		completed_game_id game_id,
		to_char(finished_at, 'YYYY-MM-DD') date,
		size,
		difficulty,
		moves,
		playtime time,
		status,
		stars
	FROM completed_game
	WHERE player_id = @player_id`

	whereClause, args := filter.WhereClause()
	args["player_id"] = playerID
	if whereClause != "" {
		query += " AND " + whereClause
	}

	query += " ORDER BY finished_at DESC;"

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[HistoryEntry])
}

// UserStats aggregates one player's archive.
type UserStats struct {
	GamesPlayed int  `json:"gamesPlayed"`
	Solved      int  `json:"solved"`
	Abandoned   int  `json:"abandoned"`
	TimedOut    int  `json:"timedOut"`
	TotalStars  int  `json:"totalStars"`
	BestTime    *int `json:"bestTime"`
	BestMoves   *int `json:"bestMoves"`
}

func (q *Queries) UserStats(ctx context.Context, playerID int64) (*UserStats, error) {
	rows, _ := q.db.Query(ctx, `
	SELECT
		count(*)::int games_played,
		count(*) FILTER (WHERE status = 'SOLVED')::int solved,
		count(*) FILTER (WHERE status = 'ABANDONED')::int abandoned,
		count(*) FILTER (WHERE status = 'TIMEOUT')::int timed_out,
		coalesce(sum(stars) FILTER (WHERE status = 'SOLVED'), 0)::int total_stars,
		min(playtime) FILTER (WHERE status = 'SOLVED') best_time,
		min(moves) FILTER (WHERE status = 'SOLVED') best_moves
	FROM completed_game
	WHERE player_id = $1;`,
		playerID,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[UserStats])
}
