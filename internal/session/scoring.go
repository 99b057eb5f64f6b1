package session

import (
	"time"

	"github.com/vkazakov/fifteen-server/internal/fifteen"
)

// Stars grades a solved game 0..3 against the scramble depth and the
// session time budget. Each axis is graded separately and the final
// rating is the worse of the two, so fewer moves or less time never
// lowers the result.
//
// Moves: within 2x scramble depth = 3, 4x = 2, 8x = 1, beyond = 0.
// Time: within a third of the budget = 3, two thirds = 2, within = 1.
func Stars(size, difficulty, moves int, elapsed time.Duration) int {
	par := fifteen.ScrambleMoves(size, difficulty)
	budget := TimeBudget(size)

	moveStars := 0
	switch {
	case moves <= 2*par:
		moveStars = 3
	case moves <= 4*par:
		moveStars = 2
	case moves <= 8*par:
		moveStars = 1
	}

	timeStars := 0
	switch {
	case elapsed*3 <= budget:
		timeStars = 3
	case elapsed*3 <= budget*2:
		timeStars = 2
	case elapsed <= budget:
		timeStars = 1
	}

	if moveStars < timeStars {
		return moveStars
	}
	return timeStars
}
