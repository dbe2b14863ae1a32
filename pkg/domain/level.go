package domain

import "fmt"

// Level is the competency level a candidate certifies at.
// Invariant: levels run from 1 (basic) to 5 (expert).
type Level int

const (
	MinLevel Level = 1
	MaxLevel Level = 5
)

// ParseLevel validates and returns a Level.
func ParseLevel(n int) (Level, error) {
	l := Level(n)
	if l < MinLevel || l > MaxLevel {
		return 0, fmt.Errorf("level must be between %d and %d, got %d", MinLevel, MaxLevel, n)
	}
	return l, nil
}

func (l Level) Int() int {
	return int(l)
}
