package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type Player struct {
	PlayerID     int64
	Username     string
	PasswordHash []byte
	LastSeenAt   pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
}

func (q *Queries) CreatePlayer(
	ctx context.Context, username string, passwordHash []byte,
) (*Player, error) {
	rows, _ := q.db.Query(
		ctx,
		"INSERT INTO player (username, password_hash) VALUES ($1, $2) RETURNING *",
		username,
		passwordHash,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
}

func (q *Queries) FetchPlayer(ctx context.Context, username string) (*Player, error) {
	rows, _ := q.db.Query(
		ctx, "SELECT * FROM player WHERE username = $1", username,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[Player])
}

// TouchPlayer refreshes last_seen_at; this backs the leaderboard
// online markers.
func (q *Queries) TouchPlayer(ctx context.Context, playerID int64) error {
	_, err := q.db.Exec(
		ctx,
		"UPDATE player SET last_seen_at = now() WHERE player_id = $1",
		playerID,
	)
	return err
}
