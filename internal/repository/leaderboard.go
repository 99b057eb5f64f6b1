// custom queries
package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

// LeaderboardEntry is one ranked row of the global leaderboard.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	Username   string  `json:"user"`
	TotalStars int     `json:"total_stars"`
	Solved     int     `json:"solved"`
	Unfinished int     `json:"unfinished"`
	LastSolved *string `json:"lastSolved"`
	Online     bool    `json:"online"`
}

type LeaderboardFilter struct {
	Size       *int
	Difficulty *int
}

func (f LeaderboardFilter) WhereClause() (string, pgx.NamedArgs) {
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
	return strings.Join(clauses, " AND "), args
}

func (q *Queries) Leaderboard(
	ctx context.Context, filter LeaderboardFilter,
) ([]LeaderboardEntry, error) {
	query := `
	WITH ranked AS (
		SELECT
			player_id,
			coalesce(sum(stars) FILTER (WHERE status = 'SOLVED'), 0)::int total_stars,
			count(*) FILTER (WHERE status = 'SOLVED')::int solved,
			count(*) FILTER (WHERE status IN ('ABANDONED', 'TIMEOUT'))::int unfinished,
			max(finished_at) FILTER (WHERE status = 'SOLVED') last_solved_at
		FROM completed_game`

	whereClause, args := filter.WhereClause()
	if whereClause != "" {
		query += "\n\t\tWHERE " + whereClause
	}

	query += `
		GROUP BY player_id
	)
	SELECT
		row_number() OVER (
			ORDER BY total_stars DESC, unfinished ASC, last_solved_at DESC NULLS LAST
		)::int rank,
		username,
		total_stars,
		solved,
		unfinished,
		to_char(last_solved_at, 'YYYY-MM-DD') last_solved,
		last_seen_at > now() - interval '5 minutes' online
	FROM ranked
		JOIN player USING (player_id)
	ORDER BY rank;`

	rows, err := q.db.Query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[LeaderboardEntry])
}

// DailyEntry is one ranked row of today's daily challenge leaderboard.
type DailyEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"user"`
	Moves    int    `json:"moves"`
	Time     int    `json:"time"`
	Stars    int    `json:"stars"`
	Online   bool   `json:"online"`
}

func (q *Queries) DailyLeaderboard(
	ctx context.Context, date string,
) ([]DailyEntry, error) {
	rows, err := q.db.Query(ctx, `
	SELECT
		row_number() OVER (ORDER BY moves ASC, playtime ASC)::int rank,
		username,
		moves,
		playtime time,
		stars,
		last_seen_at > now() - interval '5 minutes' online
	FROM completed_game
		JOIN player USING (player_id)
	WHERE daily_date = @date AND status = 'SOLVED'
	ORDER BY rank;`,
		pgx.NamedArgs{"date": date},
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[DailyEntry])
}
