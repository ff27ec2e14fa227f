package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger with fluxmux's field conventions. The zero
// value is not usable; build one with New, NewWriter or NewNop.
type Logger struct {
	zl zerolog.Logger
}

// New builds a logger writing to the stream named by cfg.Output.
func New(cfg *Config, service string) *Logger {
	w := io.Writer(os.Stderr)
	if strings.EqualFold(cfg.Output, "stdout") {
		w = os.Stdout
	}
	return NewWriter(w, cfg, service)
}

// NewWriter builds a logger writing to w. An unknown level means info.
func NewWriter(w io.Writer, cfg *Config, service string) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var zc zerolog.Context
	if strings.EqualFold(cfg.Format, FormatConsole) {
		zc = zerolog.New(consoleWriter(w, service, cfg.NoColor)).With()
	} else {
		zc = zerolog.New(w).With()
		if service != "" {
			zc = zc.Str(FieldService, service)
		}
	}
	zc = zc.Timestamp()
	if cfg.Caller {
		zc = zc.Caller()
	}
	return &Logger{zl: zc.Logger().Level(level)}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

type runIDKey struct{}

// ContextWithRunID stores the id of the current run.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run id stored by ContextWithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// WithContext tags the logger with the run id carried by ctx. Without one
// the receiver is returned as is.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := RunIDFromContext(ctx); id != "" {
		return l.with(FieldRunID, id)
	}
	return l
}

// WithComponent tags every line with the emitting component.
func (l *Logger) WithComponent(name string) *Logger {
	return l.with(FieldComponent, name)
}

// With attaches alternating key/value pairs to every line.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{zl: l.zl.With().Fields(Fields(kv...)).Logger()}
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Enabled reports whether lines at level would be written.
func (l *Logger) Enabled(level zerolog.Level) bool {
	return l.zl.GetLevel() <= level && level != zerolog.Disabled
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { emit(l.zl.Error(), msg, fields) }

func emit(ev *zerolog.Event, msg string, fields []map[string]any) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		ev.Fields(f)
	}
	ev.Msg(msg)
}

var levelColors = map[string]int{
	"trace": 90,
	"debug": 36,
	"info":  32,
	"warn":  33,
	"error": 31,
}

// consoleWriter renders "15:04:05 [FLU][INF] message key:value". The
// service tag is the first three letters of the service name.
func consoleWriter(w io.Writer, service string, noColor bool) zerolog.ConsoleWriter {
	tag := strings.ToUpper(service)
	if len(tag) > 3 {
		tag = tag[:3]
	}
	paint := func(code int, s string) string {
		if noColor || code == 0 {
			return s
		}
		return fmt.Sprintf("\x1b[%dm%s\x1b[0m", code, s)
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    noColor,
		TimeFormat: "15:04:05",
		FormatLevel: func(i any) string {
			name, _ := i.(string)
			short := strings.ToUpper(name)
			if len(short) > 3 {
				short = short[:3]
			}
			lvl := paint(levelColors[name], "["+short+"]")
			if tag == "" {
				return lvl
			}
			return paint(34, "["+tag+"]") + lvl
		},
		FormatFieldName: func(i any) string { return fmt.Sprint(i) + ":" },
	}
}
