package reactor

import (
	"log/slog"

	"github.com/joeycumines/logiface"
	slogadapter "github.com/joeycumines/logiface-slog"
)

// NewSlogLogger adapts a log/slog.Handler into this package's Logger
// interface via logiface, the same fluent builder the rest of the
// joeycumines stack standardises on. Each call is translated to a
// logiface.Builder chain rather than fmt.Sprintf, so key/value pairs
// stay structured all the way to the slog.Handler.
func NewSlogLogger(handler slog.Handler) Logger {
	base := logiface.New[*slogadapter.Event](slogadapter.NewLogger(handler))
	return &slogLogger{base: base}
}

type slogLogger struct {
	base *logiface.Logger[*slogadapter.Event]
}

func toLogifaceLevel(level LogLevel) logiface.Level {
	switch level {
	case LevelTrace:
		return logiface.LevelTrace
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func (l *slogLogger) Enabled(level LogLevel) bool {
	return l.base.Level() >= toLogifaceLevel(level)
}

// Log builds one event at level, attaching category as a string field
// and the supplied keyValues as fields of any type (an odd trailing key,
// or a key that is not a non-empty string, is dropped), then
// emits msg. keyValues are expected in (key, value) pairs, matching the
// Logger interface's calling convention throughout this package.
func (l *slogLogger) Log(level LogLevel, category, msg string, keyValues ...any) {
	var b *logiface.Builder[*slogadapter.Event]
	switch level {
	case LevelTrace:
		b = l.base.Trace()
	case LevelDebug:
		b = l.base.Debug()
	case LevelInfo:
		b = l.base.Info()
	case LevelWarn:
		b = l.base.Warning()
	case LevelError:
		b = l.base.Err()
	default:
		b = l.base.Info()
	}
	if b == nil || !b.Enabled() {
		return
	}
	if category != "" {
		b = b.Str("category", category)
	}
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, _ := keyValues[i].(string)
		if key == "" {
			continue
		}
		b = b.Any(key, keyValues[i+1])
	}
	b.Log(msg)
}
