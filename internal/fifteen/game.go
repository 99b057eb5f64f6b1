package fifteen

import (
	"bytes"
	"encoding/gob"
	"errors"
	"log/slog"
	"math/rand/v2"
)

var Log *slog.Logger = slog.Default()

var (
	ErrInvalidMove   = errors.New("tile is not adjacent to the empty cell")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrAlreadySolved = errors.New("board is already solved")
)

// MoveRecord is one applied move. Replaying records in order from the
// initial board reproduces the current board exactly.
type MoveRecord struct {
	Tile     int
	From, To int // tile positions before and after the swap
}

// GameState holds one puzzle instance: the live board, the board it
// was generated with, and the undo/redo stacks. Serialized with gob
// for storage.
type GameState struct {
	Size    int
	Board   Board
	Initial Board
	Moves   int
	Past    []MoveRecord
	Future  []MoveRecord
}

func NewGameState(size, difficulty int, r *rand.Rand) (*GameState, error) {
	board, err := Generate(size, difficulty, r)
	if err != nil {
		return nil, err
	}
	return &GameState{
		Size:    size,
		Board:   board,
		Initial: board.Clone(),
	}, nil
}

func DecodeGameState(buf []byte) (*GameState, error) {
	var g GameState
	if err := gob.NewDecoder(bytes.NewBuffer(buf)).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (g GameState) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *GameState) Solved() bool {
	return g.Board.IsSolved()
}

func (g *GameState) Progress() int {
	return g.Board.Progress()
}

// ApplyMove slides the named tile into the empty cell. A new move
// always clears the redo stack.
func (g *GameState) ApplyMove(tile int) error {
	from := g.Board.IndexOf(tile)
	if from < 0 {
		return ErrInvalidMove
	}
	to := g.Board.EmptyIndex()
	if !IsAdjacent(from, to, g.Size) {
		return ErrInvalidMove
	}
	g.Board.Swap(from, to)
	g.Moves++
	g.Past = append(g.Past, MoveRecord{Tile: tile, From: from, To: to})
	g.Future = nil
	return nil
}

func (g *GameState) Undo() error {
	if len(g.Past) == 0 {
		return ErrNothingToUndo
	}
	rec := g.Past[len(g.Past)-1]
	g.Past = g.Past[:len(g.Past)-1]
	g.Board.Swap(rec.To, rec.From)
	g.Moves--
	g.Future = append(g.Future, rec)
	return nil
}

func (g *GameState) Redo() error {
	if len(g.Future) == 0 {
		return ErrNothingToRedo
	}
	rec := g.Future[len(g.Future)-1]
	g.Future = g.Future[:len(g.Future)-1]
	g.Board.Swap(rec.From, rec.To)
	g.Moves++
	g.Past = append(g.Past, rec)
	return nil
}

// Restart puts the session back on its original generated board with
// empty history.
func (g *GameState) Restart() {
	g.Board = g.Initial.Clone()
	g.Moves = 0
	g.Past = nil
	g.Future = nil
}
