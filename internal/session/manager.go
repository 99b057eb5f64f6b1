package session

import (
	"context"
	"fmt"
	"hash/maphash"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/vkazakov/fifteen-server/internal/fifteen"
)

// Manager owns every live session. Sessions are per-player,
// single-writer resources: one ACTIVE session per player, mutations on
// it serialized through a per-entry mutex. A contended mutation fails
// with ErrSessionBusy instead of queueing.
//
// Expiry is evaluated lazily: every access compares the clock to the
// stored deadline and flips an overdue session to TIMEOUT before the
// requested action is considered. No timers are kept per session.
type Manager struct {
	logger    *slog.Logger
	store     Store
	dailySalt string
	now       func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu      sync.Mutex
	entries map[int64]*entry
}

type entry struct {
	mu     sync.Mutex
	loaded bool
	s      *Session
}

func NewManager(logger *slog.Logger, store Store, dailySalt string) *Manager {
	return &Manager{
		logger:    logger,
		store:     store,
		dailySalt: dailySalt,
		now:       time.Now,
		rnd: rand.New(rand.NewPCG(
			new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
		)),
		entries: make(map[int64]*entry),
	}
}

// SetClock replaces the manager clock. Tests only.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

type StartSettings struct {
	Size         int
	Difficulty   int
	Mode         Mode
	ImageID      *int64
	Daily        bool
	ForceNew     bool
	ReplayGameID *int64
}

// lock acquires the player's entry, loading a persisted ACTIVE session
// on first touch so games survive a process restart.
func (m *Manager) lock(ctx context.Context, playerID int64) (*entry, error) {
	m.mu.Lock()
	e, ok := m.entries[playerID]
	if !ok {
		e = &entry{}
		m.entries[playerID] = e
	}
	m.mu.Unlock()

	if !e.mu.TryLock() {
		return nil, ErrSessionBusy
	}
	if !e.loaded {
		s, err := m.store.FindActiveSession(ctx, playerID)
		if err != nil {
			e.mu.Unlock()
			return nil, fmt.Errorf("load active session: %w", err)
		}
		e.s = s
		e.loaded = true
	}
	return e, nil
}

// finish moves an ACTIVE session into a terminal status, persists it
// and archives the completed game. The sole exit from ACTIVE.
func (m *Manager) finish(ctx context.Context, s *Session, status Status, endedAt time.Time) error {
	s.Status = status
	s.EndedAt = &endedAt
	if status == StatusSolved {
		s.Stars = Stars(
			s.State.Size, s.Difficulty, s.State.Moves, endedAt.Sub(s.StartedAt),
		)
	}
	if err := m.store.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("save finished session: %w", err)
	}
	rec := &CompletedGame{
		PlayerID:   s.PlayerID,
		SessionID:  s.ID,
		Size:       s.State.Size,
		Difficulty: s.Difficulty,
		Mode:       s.Mode,
		ImageID:    s.ImageID,
		Moves:      s.State.Moves,
		Playtime:   int(endedAt.Sub(s.StartedAt).Seconds()),
		Status:     status,
		Stars:      s.Stars,
		DailyDate:  s.DailyDate,
		FinishedAt: endedAt,
	}
	if err := m.store.SaveCompletedGame(ctx, rec); err != nil {
		return fmt.Errorf("archive completed game: %w", err)
	}
	m.logger.Info("session finished",
		slog.Int64("session_id", s.ID),
		slog.String("status", string(status)),
		slog.Int("moves", s.State.Moves),
		slog.Int("stars", s.Stars),
	)
	return nil
}

// expireIfDue flips an overdue ACTIVE session to TIMEOUT. The session
// ends at its deadline, not at the time of the tripping request.
func (m *Manager) expireIfDue(ctx context.Context, s *Session) (bool, error) {
	if s == nil || s.Status != StatusActive {
		return false, nil
	}
	if m.now().Before(s.Deadline) {
		return false, nil
	}
	if err := m.finish(ctx, s, StatusTimeout, s.Deadline); err != nil {
		return false, err
	}
	return true, nil
}

// Start creates a new session for the player. When an ACTIVE session
// already exists and the caller did not force a new one, its snapshot
// is returned with activeFound set so the caller can decide to resume
// or discard.
func (m *Manager) Start(
	ctx context.Context, playerID int64, settings StartSettings,
) (snap *Snapshot, activeFound bool, err error) {
	e, err := m.lock(ctx, playerID)
	if err != nil {
		return nil, false, err
	}
	defer e.mu.Unlock()

	if _, err := m.expireIfDue(ctx, e.s); err != nil {
		return nil, false, err
	}
	if e.s != nil && e.s.Status == StatusActive {
		if !settings.ForceNew {
			return e.s.snapshot(m.now()), true, nil
		}
		if err := m.finish(ctx, e.s, StatusAbandoned, m.now()); err != nil {
			return nil, false, err
		}
	}

	s, err := m.create(ctx, playerID, settings)
	if err != nil {
		return nil, false, err
	}
	e.s = s
	return s.snapshot(m.now()), false, nil
}

func (m *Manager) create(
	ctx context.Context, playerID int64, settings StartSettings,
) (*Session, error) {
	now := m.now()

	size, difficulty := settings.Size, settings.Difficulty
	mode, imageID := settings.Mode, settings.ImageID
	var dailyDate *string

	if settings.ReplayGameID != nil {
		rec, err := m.store.FindCompletedGame(ctx, playerID, *settings.ReplayGameID)
		if err != nil {
			return nil, fmt.Errorf("load replayed game: %w", err)
		}
		if rec == nil {
			return nil, ErrGameNotFound
		}
		size, difficulty = rec.Size, rec.Difficulty
		mode, imageID = rec.Mode, rec.ImageID
	}

	var r *rand.Rand
	if settings.Daily {
		// everyone gets the identical board for a calendar date
		size, difficulty = fifteen.DailySize, fifteen.DailyDifficulty
		mode, imageID = ModeNumbers, nil
		date := now.UTC().Format(time.DateOnly)
		dailyDate = &date
		r = fifteen.DailyRand(now, m.dailySalt)
	}

	var state *fifteen.GameState
	var err error
	if r != nil {
		state, err = fifteen.NewGameState(size, difficulty, r)
	} else {
		m.rndMu.Lock()
		state, err = fifteen.NewGameState(size, difficulty, m.rnd)
		m.rndMu.Unlock()
	}
	if err != nil {
		return nil, err
	}

	s := &Session{
		PlayerID:   playerID,
		Difficulty: difficulty,
		Mode:       mode,
		ImageID:    imageID,
		DailyDate:  dailyDate,
		ReplayOf:   settings.ReplayGameID,
		Status:     StatusActive,
		State:      state,
		StartedAt:  now,
		Deadline:   now.Add(TimeBudget(size)),
	}
	if err := m.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("save new session: %w", err)
	}
	m.logger.Info("session started",
		slog.Int64("session_id", s.ID),
		slog.Int64("player_id", playerID),
		slog.Int("size", size),
		slog.Int("difficulty", difficulty),
		slog.Bool("daily", settings.Daily),
	)
	return s, nil
}

// Resume returns the player's current ACTIVE session. A non-zero
// sessionID must match it.
func (m *Manager) Resume(
	ctx context.Context, playerID, sessionID int64,
) (*Snapshot, error) {
	e, err := m.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	if _, err := m.expireIfDue(ctx, e.s); err != nil {
		return nil, err
	}
	s := e.s
	if s == nil || s.Status != StatusActive {
		return nil, ErrSessionNotFound
	}
	if sessionID != 0 && s.ID != sessionID {
		return nil, ErrSessionNotFound
	}
	return s.snapshot(m.now()), nil
}

// mutate runs fn on the player's ACTIVE session and persists the
// result. If the deadline has passed, the session is redirected into
// its TIMEOUT transition and that view is returned instead; expiry
// is a status, not an error.
func (m *Manager) mutate(
	ctx context.Context, playerID int64,
	fn func(s *Session) error,
) (*Snapshot, error) {
	e, err := m.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	s := e.s
	if s == nil {
		return nil, ErrSessionNotFound
	}
	expired, err := m.expireIfDue(ctx, s)
	if err != nil {
		return nil, err
	}
	if expired {
		return s.snapshot(m.now()), nil
	}
	if s.Status != StatusActive {
		return nil, ErrSessionNotActive
	}

	if err := fn(s); err != nil {
		return nil, err
	}
	if s.State.Solved() {
		if err := m.finish(ctx, s, StatusSolved, m.now()); err != nil {
			return nil, err
		}
	} else if err := m.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.snapshot(m.now()), nil
}

func (m *Manager) Move(ctx context.Context, playerID int64, tile int) (*Snapshot, error) {
	return m.mutate(ctx, playerID, func(s *Session) error {
		return s.State.ApplyMove(tile)
	})
}

func (m *Manager) Undo(ctx context.Context, playerID int64) (*Snapshot, error) {
	return m.mutate(ctx, playerID, func(s *Session) error {
		return s.State.Undo()
	})
}

func (m *Manager) Redo(ctx context.Context, playerID int64) (*Snapshot, error) {
	return m.mutate(ctx, playerID, func(s *Session) error {
		return s.State.Redo()
	})
}

// Restart puts the session back on its original board with a fresh
// time budget.
func (m *Manager) Restart(ctx context.Context, playerID int64) (*Snapshot, error) {
	return m.mutate(ctx, playerID, func(s *Session) error {
		s.State.Restart()
		now := m.now()
		s.StartedAt = now
		s.Deadline = now.Add(TimeBudget(s.State.Size))
		return nil
	})
}

// Hint suggests a tile without consuming a move or mutating state.
func (m *Manager) Hint(ctx context.Context, playerID int64) (int, error) {
	e, err := m.lock(ctx, playerID)
	if err != nil {
		return 0, err
	}
	defer e.mu.Unlock()

	s := e.s
	if s == nil {
		return 0, ErrSessionNotFound
	}
	if _, err := m.expireIfDue(ctx, s); err != nil {
		return 0, err
	}
	if s.Status != StatusActive {
		return 0, ErrSessionNotActive
	}
	return s.State.Hint()
}

// terminate drives an ACTIVE session into a terminal status.
// Idempotent: a session already terminal is a no-op, since the client
// and the server clock can race.
func (m *Manager) terminate(
	ctx context.Context, playerID int64, status Status,
) (*Snapshot, error) {
	e, err := m.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	s := e.s
	if s == nil {
		return nil, ErrSessionNotFound
	}
	expired, err := m.expireIfDue(ctx, s)
	if err != nil {
		return nil, err
	}
	if expired || s.Status.Terminal() {
		return s.snapshot(m.now()), nil
	}
	if err := m.finish(ctx, s, status, m.now()); err != nil {
		return nil, err
	}
	return s.snapshot(m.now()), nil
}

func (m *Manager) Abandon(ctx context.Context, playerID int64) (*Snapshot, error) {
	return m.terminate(ctx, playerID, StatusAbandoned)
}

func (m *Manager) Timeout(ctx context.Context, playerID int64) (*Snapshot, error) {
	return m.terminate(ctx, playerID, StatusTimeout)
}

// Current returns a snapshot of the player's latest session, whatever
// its status. Used by the live watch feed.
func (m *Manager) Current(ctx context.Context, playerID int64) (*Snapshot, error) {
	e, err := m.lock(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	if e.s == nil {
		return nil, ErrSessionNotFound
	}
	if _, err := m.expireIfDue(ctx, e.s); err != nil {
		return nil, err
	}
	return e.s.snapshot(m.now()), nil
}
