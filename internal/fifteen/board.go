package fifteen

import (
	"fmt"
	"strconv"
	"strings"
)

// Board is a permutation of 0..size²-1 laid out row-major on a square
// grid. 0 marks the empty cell.
type Board []int

// Goal returns the canonical solved board for a given size: tiles in
// ascending order with the empty cell in the bottom-right corner.
func Goal(size int) Board {
	b := make(Board, size*size)
	for i := range b[:len(b)-1] {
		b[i] = i + 1
	}
	return b
}

func (b Board) Clone() Board {
	c := make(Board, len(b))
	copy(c, b)
	return c
}

// Validate reports malformed input: wrong length or not a permutation
// of 0..size²-1. These are programming errors, not game states.
func (b Board) Validate(size int) error {
	if len(b) != size*size {
		return fmt.Errorf("board has %d cells, want %d", len(b), size*size)
	}
	seen := make([]bool, len(b))
	for _, v := range b {
		if v < 0 || v >= len(b) || seen[v] {
			return fmt.Errorf("board is not a permutation of 0..%d", len(b)-1)
		}
		seen[v] = true
	}
	return nil
}

func (b Board) IsSolved() bool {
	for i, v := range b[:len(b)-1] {
		if v != i+1 {
			return false
		}
	}
	return b[len(b)-1] == 0
}

func (b Board) EmptyIndex() int {
	for i, v := range b {
		if v == 0 {
			return i
		}
	}
	return -1
}

func (b Board) IndexOf(tile int) int {
	for i, v := range b {
		if v == tile {
			return i
		}
	}
	return -1
}

// IsAdjacent reports whether cells a and b share an edge on the
// size×size grid. No wraparound.
func IsAdjacent(a, b, size int) bool {
	if a < 0 || b < 0 || a >= size*size || b >= size*size {
		return false
	}
	ar, ac := a/size, a%size
	br, bc := b/size, b%size
	if ar == br {
		return ac-bc == 1 || bc-ac == 1
	}
	if ac == bc {
		return ar-br == 1 || br-ar == 1
	}
	return false
}

func (b Board) Swap(i, j int) {
	b[i], b[j] = b[j], b[i]
}

// IsSolvable implements the classical 15-puzzle solvability law for
// the bottom-right goal: for odd sizes the permutation must have an
// even number of inversions; for even sizes inversion parity must
// match the parity of the blank's row distance from the bottom row.
func (b Board) IsSolvable(size int) bool {
	inversions := 0
	for i := 0; i < len(b); i++ {
		if b[i] == 0 {
			continue
		}
		for j := i + 1; j < len(b); j++ {
			if b[j] != 0 && b[j] < b[i] {
				inversions++
			}
		}
	}
	if size%2 == 1 {
		return inversions%2 == 0
	}
	blankRowFromBottom := size - 1 - b.EmptyIndex()/size
	return inversions%2 == blankRowFromBottom%2
}

// Misplaced counts non-blank tiles away from their goal position.
func (b Board) Misplaced() int {
	n := 0
	for i, v := range b {
		if v != 0 && v != i+1 {
			n++
		}
	}
	return n
}

// ManhattanSum is the total grid distance of every non-blank tile from
// its goal position. Zero iff solved.
func (b Board) ManhattanSum(size int) int {
	sum := 0
	for i, v := range b {
		if v == 0 {
			continue
		}
		goal := v - 1
		dr := i/size - goal/size
		dc := i%size - goal%size
		if dr < 0 {
			dr = -dr
		}
		if dc < 0 {
			dc = -dc
		}
		sum += dr + dc
	}
	return sum
}

// Progress is the share of non-blank tiles already in goal position,
// as an integer percentage. Informational only.
func (b Board) Progress() int {
	total := len(b) - 1
	return (total - b.Misplaced()) * 100 / total
}

func (b Board) String() string {
	var sb strings.Builder
	size := 1
	for size*size < len(b) {
		size++
	}
	for i, v := range b {
		if v == 0 {
			sb.WriteString("_")
		} else {
			sb.WriteString(strconv.Itoa(v))
		}
		if (i+1)%size == 0 {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}
