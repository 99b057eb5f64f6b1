package fifteen

import (
	"math/rand/v2"
	"testing"
	"time"
)

func TestGenerateAlwaysSolvable(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(1, 2))
	for size := MinSize; size <= MaxSize; size++ {
		for _, difficulty := range []int{MinDifficulty, 25, 50, 75, MaxDifficulty} {
			for range 20 {
				b, err := Generate(size, difficulty, r)
				if err != nil {
					t.Fatalf("Generate(%d, %d) failed: %v", size, difficulty, err)
				}
				if err := b.Validate(size); err != nil {
					t.Fatalf("Generate(%d, %d) produced malformed board: %v",
						size, difficulty, err)
				}
				if !b.IsSolvable(size) {
					t.Fatalf("Generate(%d, %d) produced unsolvable board:\n%s",
						size, difficulty, b)
				}
			}
		}
	}
}

func TestGenerateRejectsBadParams(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	tests := []struct {
		name             string
		size, difficulty int
	}{
		{"size too small", 2, 50},
		{"size too large", 7, 50},
		{"difficulty too low", 4, 0},
		{"difficulty too high", 4, 101},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Generate(test.size, test.difficulty, r); err == nil {
				t.Errorf("Generate(%d, %d) succeeded, want error",
					test.size, test.difficulty)
			}
		})
	}
}

func TestGenerateNotTrivial(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for range 50 {
		b, err := Generate(4, MinDifficulty, r)
		if err != nil {
			t.Fatal(err)
		}
		if b.IsSolved() {
			t.Fatal("minimum difficulty board came out solved")
		}
	}
}

func TestScrambleMoves(t *testing.T) {
	tests := []struct {
		size, difficulty, want int
	}{
		{4, 60, 60},          // 60*16/16
		{4, 1, 8},            // floored at 2*size
		{3, 100, 56},         // 100*9/16
		{6, 100, 225},        // 100*36/16
	}
	for _, test := range tests {
		if got := ScrambleMoves(test.size, test.difficulty); got != test.want {
			t.Errorf("ScrambleMoves(%d, %d) = %d, want %d",
				test.size, test.difficulty, got, test.want)
		}
	}
}

func TestDailyRandDeterministic(t *testing.T) {
	day := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)
	sameDayLater := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)

	b1, err := Generate(DailySize, DailyDifficulty, DailyRand(day, "salt"))
	if err != nil {
		t.Fatal(err)
	}
	b2, err := Generate(DailySize, DailyDifficulty, DailyRand(sameDayLater, "salt"))
	if err != nil {
		t.Fatal(err)
	}
	b3, err := Generate(DailySize, DailyDifficulty, DailyRand(nextDay, "salt"))
	if err != nil {
		t.Fatal(err)
	}

	if b1.String() != b2.String() {
		t.Errorf("same-day boards differ:\n%s\n%s", b1, b2)
	}
	if b1.String() == b3.String() {
		t.Error("boards for consecutive days are identical")
	}
}
