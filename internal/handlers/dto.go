package handlers

import (
	"fmt"
	"time"

	"github.com/vkazakov/fifteen-server/internal/session"
)

// SessionDTO is the client-facing view of a puzzle session.
type SessionDTO struct {
	SessionId        string  `json:"sessionId"`
	BoardSize        int     `json:"boardSize"`
	BoardState       []int   `json:"boardState"`
	Moves            int     `json:"moves"`
	Status           string  `json:"status"`
	GameMode         string  `json:"gameMode"`
	ImageUrl         *string `json:"imageUrl,omitempty"`
	Stars            int     `json:"stars,omitempty"`
	TimeElapsed      int     `json:"timeElapsed,omitempty"`
	TimeRemaining    int     `json:"timeRemaining,omitempty"`
	Progress         int     `json:"progress"`
	StartTime        string  `json:"startTime"`
	IsDailyChallenge bool    `json:"isDailyChallenge"`

	// set only in start responses, when an unfinished session
	// preempted the requested one
	ActiveSessionFound bool `json:"active_session_found,omitempty"`
}

func NewSessionDTO(snap *session.Snapshot) *SessionDTO {
	dto := &SessionDTO{
		SessionId:        fmt.Sprintf("%d", snap.SessionID),
		BoardSize:        snap.Size,
		BoardState:       snap.Board,
		Moves:            snap.Moves,
		Status:           string(snap.Status),
		GameMode:         string(snap.Mode),
		Stars:            snap.Stars,
		TimeElapsed:      snap.Elapsed,
		TimeRemaining:    snap.Remaining,
		Progress:         snap.Progress,
		StartTime:        snap.StartedAt.UTC().Format(time.RFC3339),
		IsDailyChallenge: snap.Daily,
	}
	if snap.ImageID != nil {
		url := fmt.Sprintf("/api/image/%d", *snap.ImageID)
		dto.ImageUrl = &url
	}
	return dto
}
