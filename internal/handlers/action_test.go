package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkazakov/fifteen-server/internal/config"
	"github.com/vkazakov/fifteen-server/internal/middleware"
	"github.com/vkazakov/fifteen-server/internal/session"
)

// fakeStore keeps sessions in memory so handler tests never need a
// database.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	sessions  map[int64]*session.Session
	completed []*session.CompletedGame
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[int64]*session.Session{}}
}

func (st *fakeStore) SaveSession(_ context.Context, s *session.Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s.ID == 0 {
		st.nextID++
		s.ID = st.nextID
	}
	cp := *s
	st.sessions[s.ID] = &cp
	return nil
}

func (st *fakeStore) FindActiveSession(
	_ context.Context, playerID int64,
) (*session.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, s := range st.sessions {
		if s.PlayerID == playerID && s.Status == session.StatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (st *fakeStore) SaveCompletedGame(
	_ context.Context, rec *session.CompletedGame,
) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	rec.ID = int64(len(st.completed) + 1)
	st.completed = append(st.completed, rec)
	return nil
}

func (st *fakeStore) FindCompletedGame(
	_ context.Context, playerID, gameID int64,
) (*session.CompletedGame, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, rec := range st.completed {
		if rec.PlayerID == playerID && rec.ID == gameID {
			return rec, nil
		}
	}
	return nil, nil
}

func newTestHandler() GameHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := session.NewManager(logger, newFakeStore(), "test-salt")
	return GameHandler{logger: logger, sessions: sessions}
}

func doAction(
	t *testing.T, g GameHandler, playerID int64, body string,
) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(
		http.MethodPost, "/api/action", strings.NewReader(body),
	)
	if playerID != 0 {
		claims := config.NewPlayerClaims(playerID, "tester")
		ctx := context.WithValue(r.Context(), middleware.CtxPlayerClaims, claims)
		r = r.WithContext(ctx)
	}
	w := httptest.NewRecorder()
	g.Action(w, r)
	return w
}

func TestActionRequiresAuth(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 0, `{"action":"start","params":{"size":4,"difficulty":50}}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not_authorized", body.Code)
}

func TestActionUnknown(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1, `{"action":"explode"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unknown_action", body.Code)
}

func TestActionStart(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1, `{"action":"start","params":{"size":4,"difficulty":50}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var dto SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, 4, dto.BoardSize)
	assert.Len(t, dto.BoardState, 16)
	assert.Equal(t, "ACTIVE", dto.Status)
	assert.Equal(t, "NUMBERS", dto.GameMode)
	assert.False(t, dto.ActiveSessionFound)
	assert.Positive(t, dto.TimeRemaining)
}

func TestActionStartBadParams(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1, `{"action":"start","params":{"size":17,"difficulty":50}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Code)
}

func TestActionStartFindsActiveSession(t *testing.T) {
	g := newTestHandler()

	first := doAction(t, g, 1, `{"action":"start","params":{"size":4,"difficulty":50}}`)
	require.Equal(t, http.StatusOK, first.Code)

	second := doAction(t, g, 1, `{"action":"start","params":{"size":3,"difficulty":10}}`)
	require.Equal(t, http.StatusOK, second.Code)

	var dto SessionDTO
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &dto))
	assert.True(t, dto.ActiveSessionFound)
	assert.Equal(t, 4, dto.BoardSize)
}

func TestActionMoveFlow(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1, `{"action":"start","params":{"size":4,"difficulty":50}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var started SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))

	// a hint always names a legal tile
	w = doAction(t, g, 1, `{"action":"hint"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var hint map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hint))

	w = doAction(t, g, 1, `{"action":"move","params":{"tile":`+
		strconv.Itoa(hint["hint"])+`}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var moved SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &moved))
	assert.Equal(t, started.Moves+1, moved.Moves)

	w = doAction(t, g, 1, `{"action":"undo"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var undone SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &undone))
	assert.Equal(t, started.Moves, undone.Moves)
	assert.Equal(t, started.BoardState, undone.BoardState)
}

func TestActionMoveIllegalTile(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1, `{"action":"start","params":{"size":4,"difficulty":50}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doAction(t, g, 1, `{"action":"move","params":{"tile":99}}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid_move", body.Code)
}

func TestActionUndoFreshSession(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1, `{"action":"start","params":{"size":4,"difficulty":50}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doAction(t, g, 1, `{"action":"undo"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "nothing_to_undo", body.Code)
}

func TestActionMoveWithoutSession(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1, `{"action":"move","params":{"tile":5}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "session_not_found", body.Code)
}

func TestActionAbandon(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1, `{"action":"start","params":{"size":4,"difficulty":50}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doAction(t, g, 1, `{"action":"abandon"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var dto SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.Equal(t, "ABANDONED", dto.Status)

	// abandoning twice is a no-op, not an error
	w = doAction(t, g, 1, `{"action":"abandon"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestActionDaily(t *testing.T) {
	g := newTestHandler()

	// the client sends only the flag, no size or difficulty
	w := doAction(t, g, 1, `{"action":"start","params":{"isDailyChallenge":true}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var dto SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dto))
	assert.True(t, dto.IsDailyChallenge)
	assert.Equal(t, 4, dto.BoardSize)
	assert.Equal(t, "ACTIVE", dto.Status)
}

func TestActionStartImageModeRequiresImage(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1,
		`{"action":"start","params":{"size":4,"difficulty":50,"gameMode":"IMAGE"}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation_error", body.Code)
}

func TestActionResumeGame(t *testing.T) {
	g := newTestHandler()

	w := doAction(t, g, 1, `{"action":"start","params":{"size":4,"difficulty":50}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var started SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))

	w = doAction(t, g, 1, `{"action":"resume_game","params":{"gameId":`+started.SessionId+`}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resumed SessionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resumed))
	assert.Equal(t, started.SessionId, resumed.SessionId)
	assert.Equal(t, started.BoardState, resumed.BoardState)

	// a stale id does not resolve to the live session
	w = doAction(t, g, 1, `{"action":"resume_game","params":{"gameId":"999"}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "session_not_found", body.Code)
}

func TestLooseIntFilter(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *int
		bad  bool
	}{
		{name: "number", raw: `4`, want: ptr(4)},
		{name: "numeric string", raw: `"4"`, want: ptr(4)},
		{name: "zero means all", raw: `0`, want: nil},
		{name: "zero string means all", raw: `"0"`, want: nil},
		{name: "empty string means all", raw: `""`, want: nil},
		{name: "null means all", raw: `null`, want: nil},
		{name: "garbage", raw: `"big"`, bad: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n looseInt
			err := json.Unmarshal([]byte(tt.raw), &n)
			if tt.bad {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.filter())
		})
	}
}

func ptr(v int) *int { return &v }
