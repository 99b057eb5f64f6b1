package session

import (
	"errors"
	"time"

	"github.com/vkazakov/fifteen-server/internal/fifteen"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSolved    Status = "SOLVED"
	StatusAbandoned Status = "ABANDONED"
	StatusTimeout   Status = "TIMEOUT"
)

func (s Status) Terminal() bool {
	return s == StatusSolved || s == StatusAbandoned || s == StatusTimeout
}

type Mode string

const (
	ModeNumbers Mode = "NUMBERS"
	ModeImage   Mode = "IMAGE"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNumbers, ModeImage:
		return Mode(s), nil
	case "":
		return ModeNumbers, nil
	}
	return "", errors.New("unknown game mode")
}

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not active")
	ErrSessionBusy      = errors.New("session is busy")
	ErrGameNotFound     = errors.New("game record not found")
)

// Session is one player's puzzle instance. Owned by the Manager and
// mutated only while the owning entry is locked.
type Session struct {
	ID         int64
	PlayerID   int64
	Difficulty int
	Mode       Mode
	ImageID    *int64
	DailyDate  *string // UTC YYYY-MM-DD, set iff a daily challenge
	ReplayOf   *int64
	Status     Status
	Stars      int // set when the session ends SOLVED
	State      *fifteen.GameState
	StartedAt  time.Time
	Deadline   time.Time
	EndedAt    *time.Time
}

// CompletedGame is the immutable archive row written when a session
// reaches a terminal status.
type CompletedGame struct {
	ID         int64
	PlayerID   int64
	SessionID  int64
	Size       int
	Difficulty int
	Mode       Mode
	ImageID    *int64
	Moves      int
	Playtime   int // seconds
	Status     Status
	Stars      int
	DailyDate  *string
	FinishedAt time.Time
}

// TimeBudget is the total allotted play time for a board size:
// ceil(10 * size/4) minutes, so larger boards get proportionally more.
func TimeBudget(size int) time.Duration {
	minutes := (10*size + 3) / 4
	return time.Duration(minutes) * time.Minute
}

// Snapshot is a copy of session state safe to read outside the
// session lock.
type Snapshot struct {
	SessionID  int64
	Size       int
	Difficulty int
	Board      fifteen.Board
	Moves      int
	Status     Status
	Mode       Mode
	ImageID    *int64
	Daily      bool
	Stars      int
	Elapsed    int // seconds, set on terminal sessions
	Remaining  int // seconds, set while active
	Progress   int
	StartedAt  time.Time
}

func (s *Session) snapshot(now time.Time) *Snapshot {
	snap := &Snapshot{
		SessionID:  s.ID,
		Size:       s.State.Size,
		Difficulty: s.Difficulty,
		Board:      s.State.Board.Clone(),
		Moves:      s.State.Moves,
		Status:     s.Status,
		Mode:       s.Mode,
		ImageID:    s.ImageID,
		Daily:      s.DailyDate != nil,
		Stars:      s.Stars,
		Progress:   s.State.Progress(),
		StartedAt:  s.StartedAt,
	}
	if s.Status == StatusActive {
		if remaining := int(s.Deadline.Sub(now).Seconds()); remaining > 0 {
			snap.Remaining = remaining
		}
	} else if s.EndedAt != nil {
		snap.Elapsed = int(s.EndedAt.Sub(s.StartedAt).Seconds())
	}
	return snap
}
