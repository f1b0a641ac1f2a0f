package trace

import (
	"fmt"
	"strings"
)

// Level is the --trace-level verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // nothing is emitted; a ring is still dumped on panic
	LevelPhase        // commands and reparses
	LevelDetail       // plus the stages of a reparse
	LevelDebug        // plus directives and includes
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

// deepest is the finest scope each level lets through; 0 means none.
var deepest = [...]Scope{0, 0, ScopePass, ScopeFile, ScopeNode}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a flag value, ignoring case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope pass at level l.
func (l Level) ShouldEmit(scope Scope) bool {
	return int(l) < len(deepest) && scope <= deepest[l] && scope > 0
}
