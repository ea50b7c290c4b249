package shape

import (
	"errors"
	"strings"
)

// Sentinel errors for shape resolution.
var (
	ErrUnknownLevel = errors.New("shape: unknown detail level")
)

// Level selects how much of an operation's payload a caller wants.
type Level string

const (
	// LevelBasic returns identifying fields only.
	LevelBasic Level = "basic"

	// LevelBalance returns identifying fields plus balance data.
	LevelBalance Level = "balance"

	// LevelFull returns the complete upstream payload.
	LevelFull Level = "full"
)

// ParseLevel parses a detail level string. The empty string defaults to
// LevelFull.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelBasic:
		return LevelBasic, nil
	case LevelBalance:
		return LevelBalance, nil
	case LevelFull, Level(""):
		return LevelFull, nil
	default:
		return "", ErrUnknownLevel
	}
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	switch l {
	case LevelBasic, LevelBalance, LevelFull:
		return true
	default:
		return false
	}
}

// String returns the string representation of the level.
func (l Level) String() string {
	return string(l)
}
