package console

import "fmt"

// Level of logging
type Level int

const (
	SpamLevel Level = iota
	DebugLevel
	VerboseLevel
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

func (l Level) String() string {
	switch l {
	case SpamLevel:
		return "spam"
	case DebugLevel:
		return "debug"
	case VerboseLevel:
		return "verbose"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// LevelFromVerbosity maps the number of -v flags to a level: none is info, then verbose, debug and spam.
func LevelFromVerbosity(count int) Level {
	switch {
	case count <= 0:
		return InfoLevel
	case count == 1:
		return VerboseLevel
	case count == 2:
		return DebugLevel
	default:
		return SpamLevel
	}
}
