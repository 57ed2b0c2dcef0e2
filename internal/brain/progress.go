package brain

import (
	"fmt"
	"strconv"
	"time"
)

// Level tags a progress entry for display
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelSuccess Level = "SUCCESS"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Entry is one line of the user-visible progress log of a run
type Entry struct {
	Seq        int       `json:"seq"`
	Time       time.Time `json:"time"`
	Level      Level     `json:"level"`
	Phase      State     `json:"phase"`
	Message    string    `json:"message"`
	RunID      string    `json:"run_id"`
	Generation uint64    `json:"generation"`
}

// String renders the entry as plain terminal text
func (e Entry) String() string {
	return e.Message
}

// Listener receives every entry as it is appended.
// It is called with the session lock held: it must not block or call back into the Session.
type Listener func(Entry)

type line struct {
	level Level
	text  string
}

func info(format string, args ...interface{}) line {
	return line{LevelInfo, fmt.Sprintf(format, args...)}
}

func success(format string, args ...interface{}) line {
	return line{LevelSuccess, fmt.Sprintf(format, args...)}
}

func warning(format string, args ...interface{}) line {
	return line{LevelWarning, fmt.Sprintf(format, args...)}
}

func failure(format string, args ...interface{}) line {
	return line{LevelError, fmt.Sprintf(format, args...)}
}

// pct prints a score the way the terminal shows it: 60, 81.6, 66.67
func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
