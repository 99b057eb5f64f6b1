package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vkazakov/fifteen-server/internal/fifteen"
	"github.com/vkazakov/fifteen-server/internal/session"
)

// SaveSession inserts a new session row or updates an existing one.
// The board and history travel as a gob blob in the state column;
// scalar columns are duplicated out of it for querying.
func (q *Queries) SaveSession(ctx context.Context, s *session.Session) error {
	state, err := s.State.Bytes()
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	args := pgx.NamedArgs{
		"player_id":  s.PlayerID,
		"size":       s.State.Size,
		"difficulty": s.Difficulty,
		"game_mode":  string(s.Mode),
		"image_id":   s.ImageID,
		"daily_date": s.DailyDate,
		"replay_of":  s.ReplayOf,
		"status":     string(s.Status),
		"stars":      s.Stars,
		"moves":      s.State.Moves,
		"state":      state,
		"started_at": s.StartedAt,
		"deadline":   s.Deadline,
		"ended_at":   s.EndedAt,
	}

	if s.ID == 0 {
		return q.db.QueryRow(ctx, `
			INSERT INTO game_session (
				player_id, size, difficulty, game_mode, image_id, daily_date,
				replay_of, status, stars, moves, state, started_at, deadline,
				ended_at
			)
			VALUES (
				@player_id, @size, @difficulty, @game_mode, @image_id,
				@daily_date, @replay_of, @status, @stars, @moves, @state,
				@started_at, @deadline, @ended_at
			)
			RETURNING game_session_id;`,
			args,
		).Scan(&s.ID)
	}

	args["game_session_id"] = s.ID
	_, err = q.db.Exec(ctx, `
		UPDATE game_session
		SET status = @status
			, stars = @stars
			, moves = @moves
			, state = @state
			, started_at = @started_at
			, deadline = @deadline
			, ended_at = @ended_at
		WHERE game_session_id = @game_session_id;`,
		args,
	)
	return err
}

// FindActiveSession loads the player's ACTIVE session, or nil when
// there is none. Called once per player after a process restart.
func (q *Queries) FindActiveSession(
	ctx context.Context, playerID int64,
) (*session.Session, error) {
	var (
		s        session.Session
		mode     string
		status   string
		stateBuf []byte
		endedAt  *time.Time
	)
	err := q.db.QueryRow(ctx, `
		SELECT game_session_id, player_id, difficulty, game_mode, image_id,
			daily_date, replay_of, status, stars, state, started_at, deadline,
			ended_at
		FROM game_session
		WHERE player_id = $1 AND status = 'ACTIVE'
		ORDER BY started_at DESC
		LIMIT 1;`,
		playerID,
	).Scan(
		&s.ID, &s.PlayerID, &s.Difficulty, &mode, &s.ImageID,
		&s.DailyDate, &s.ReplayOf, &status, &s.Stars, &stateBuf,
		&s.StartedAt, &s.Deadline, &endedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state, err := fifteen.DecodeGameState(stateBuf)
	if err != nil {
		return nil, fmt.Errorf("db returned invalid game_session.state: %w", err)
	}
	s.Mode = session.Mode(mode)
	s.Status = session.Status(status)
	s.State = state
	s.EndedAt = endedAt
	return &s, nil
}
