package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/precinctdesk/go-auth"
)

// Options controls how the process logger is built
type Options struct {
	Level   string
	Format  string // console or json
	NoColor bool
	Out     io.Writer
}

// New builds a zerolog logger from opts. Unknown levels fall back to info.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opts.NoColor,
			TimeFormat: time.RFC3339,
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

var _ auth.Logger = ZLogger{}

// ZLogger adapts zerolog to auth.Logger. The trailing args are key value
// pairs and become structured fields.
type ZLogger struct {
	ZLog zerolog.Logger
}

func NewZLogger(zlog zerolog.Logger) ZLogger {
	return ZLogger{ZLog: zlog}
}

// Named returns a child logger tagged with component=name
func (l ZLogger) Named(name string) ZLogger {
	return ZLogger{ZLog: l.ZLog.With().Str("component", name).Logger()}
}

func (l ZLogger) Debug(msg string, args ...any) {
	l.ZLog.Debug().Fields(fields(args)).Msg(msg)
}

func (l ZLogger) Info(msg string, args ...any) {
	l.ZLog.Info().Fields(fields(args)).Msg(msg)
}

func (l ZLogger) Warn(msg string, args ...any) {
	l.ZLog.Warn().Fields(fields(args)).Msg(msg)
}

func (l ZLogger) Error(msg string, args ...any) {
	l.ZLog.Error().Fields(fields(args)).Msg(msg)
}

// fields turns key value pairs into a map. A dangling value is kept under
// "extra" and non string keys are stringified.
func fields(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out["extra"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = toString(args[i])
		}
		val := args[i+1]
		if err, ok := val.(error); ok {
			val = err.Error()
		}
		out[key] = val
	}
	return out
}

func toString(v any) string {
	return fmt.Sprint(v)
}
