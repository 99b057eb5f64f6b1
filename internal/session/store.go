package session

import "context"

// Store is the persistence surface the Manager needs. The pgx-backed
// implementation lives in internal/repository; tests use an in-memory
// fake.
type Store interface {
	// SaveSession inserts or updates a session row, assigning ID on
	// first save.
	SaveSession(ctx context.Context, s *Session) error

	// FindActiveSession returns the player's ACTIVE session, or
	// (nil, nil) when there is none.
	FindActiveSession(ctx context.Context, playerID int64) (*Session, error)

	// SaveCompletedGame archives a terminal game.
	SaveCompletedGame(ctx context.Context, rec *CompletedGame) error

	// FindCompletedGame fetches one of the player's archived games,
	// or (nil, nil) when absent. Used for replays.
	FindCompletedGame(ctx context.Context, playerID, gameID int64) (*CompletedGame, error)
}
