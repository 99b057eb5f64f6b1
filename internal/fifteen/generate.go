package fifteen

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	MinSize = 3
	MaxSize = 6

	MinDifficulty = 1
	MaxDifficulty = 100

	// Daily challenges are pinned so every player gets the same board.
	DailySize       = 4
	DailyDifficulty = 60
)

func ValidateParams(size, difficulty int) error {
	if size < MinSize || size > MaxSize {
		return fmt.Errorf("size %d out of range %d..%d", size, MinSize, MaxSize)
	}
	if difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return fmt.Errorf(
			"difficulty %d out of range %d..%d",
			difficulty, MinDifficulty, MaxDifficulty,
		)
	}
	return nil
}

// ScrambleMoves maps difficulty 1..100 to the number of random legal
// moves applied to the goal board. Floored so low difficulties are not
// trivially near-solved, capped to bound generation time.
func ScrambleMoves(size, difficulty int) int {
	n := difficulty * size * size / 16
	if floor := 2 * size; n < floor {
		n = floor
	}
	if cap := 10 * size * size; n > cap {
		n = cap
	}
	return n
}

// Generate scrambles the goal board with legal moves, never taking
// back the immediately previous move. Every intermediate state is
// reachable from the goal, so the result is solvable by construction.
func Generate(size, difficulty int, r *rand.Rand) (Board, error) {
	if err := ValidateParams(size, difficulty); err != nil {
		return nil, err
	}

	b := Goal(size)
	empty := len(b) - 1
	prev := -1

	for range ScrambleMoves(size, difficulty) {
		candidates := make([]int, 0, 4)
		for _, n := range neighbors(empty, size) {
			if n != prev {
				candidates = append(candidates, n)
			}
		}
		next := candidates[r.IntN(len(candidates))]
		b.Swap(empty, next)
		prev = empty
		empty = next
	}
	if !b.IsSolvable(size) {
		Log.Error("assertion failed: scramble produced unsolvable board", "board", b)
	}
	return b, nil
}

// neighbors lists cell indices orthogonally adjacent to i.
func neighbors(i, size int) []int {
	ns := make([]int, 0, 4)
	row, col := i/size, i%size
	if row > 0 {
		ns = append(ns, i-size)
	}
	if row < size-1 {
		ns = append(ns, i+size)
	}
	if col > 0 {
		ns = append(ns, i-1)
	}
	if col < size-1 {
		ns = append(ns, i+1)
	}
	return ns
}

// DailyRand builds the shared deterministic source for a calendar
// date: HMAC-SHA256 of the UTC date keyed with salt, first 16 bytes
// split into the two PCG seeds.
func DailyRand(date time.Time, salt string) *rand.Rand {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(date.UTC().Format(time.DateOnly)))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
}
