package session

import (
	"testing"
	"time"
)

func TestStarsRange(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		difficulty int
		moves      int
		elapsed    time.Duration
		want       int
	}{
		{"fast and tight", 4, 60, 80, 2 * time.Minute, 3},
		{"slow but tight", 4, 60, 80, 9 * time.Minute, 1},
		{"fast but sloppy", 4, 60, 200, 2 * time.Minute, 2},
		{"barely made it", 4, 60, 1000, 10 * time.Minute, 0},
		{"mid everything", 3, 50, 100, 4 * time.Minute, 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Stars(test.size, test.difficulty, test.moves, test.elapsed)
			if got != test.want {
				t.Errorf("Stars(%d, %d, %d, %s) = %d, want %d",
					test.size, test.difficulty, test.moves, test.elapsed, got, test.want)
			}
		})
	}
}

// Fewer moves or less time must never yield fewer stars.
func TestStarsMonotonic(t *testing.T) {
	const size, difficulty = 4, 60

	for _, elapsed := range []time.Duration{
		time.Minute, 3 * time.Minute, 5 * time.Minute, 9 * time.Minute,
	} {
		prev := 4
		for moves := 10; moves <= 1200; moves += 10 {
			s := Stars(size, difficulty, moves, elapsed)
			if s > prev {
				t.Fatalf("stars increased with more moves: %d moves @ %s -> %d (was %d)",
					moves, elapsed, s, prev)
			}
			prev = s
		}
	}

	for _, moves := range []int{50, 150, 300, 600} {
		prev := 4
		for elapsed := time.Minute; elapsed <= 11*time.Minute; elapsed += 30 * time.Second {
			s := Stars(size, difficulty, moves, elapsed)
			if s > prev {
				t.Fatalf("stars increased with more time: %d moves @ %s -> %d (was %d)",
					moves, elapsed, s, prev)
			}
			prev = s
		}
	}
}

func TestStarsDeterministic(t *testing.T) {
	a := Stars(4, 60, 120, 5*time.Minute)
	b := Stars(4, 60, 120, 5*time.Minute)
	if a != b {
		t.Errorf("identical inputs scored %d then %d", a, b)
	}
}
