// Package alert writes timestamped, severity tagged, optionally coloured
// status lines to a terminal stream.
//
//	20261019-14:03:55 [  error] Could not load file "in.tsv". EXIT.
package alert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelSuccess
	LevelWarning
	LevelError
)

var levelNames = [...]string{
	LevelDebug:   "debug",
	LevelInfo:    "info",
	LevelSuccess: "success",
	LevelWarning: "warning",
	LevelError:   "error",
}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel accepts the level names in any case, and "warn".
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warn" {
		return LevelWarning, nil
	}

	for l, n := range levelNames {
		if n == name {
			return Level(l), nil
		}
	}

	return 0, fmt.Errorf("%w: %q (want one of DEBUG, INFO, SUCCESS, WARNING, ERROR)", ErrInvalidLevel, s)
}

const timeLayout = "20060102-15:04:05"

// Logger writes alert lines to w. The zero value is not usable; use New.
type Logger struct {
	w      io.Writer
	level  Level
	now    func() time.Time
	colors map[Level]*color.Color
}

type Option func(*Logger)

// WithLevel drops messages below l. The default is LevelInfo.
func WithLevel(l Level) Option {
	return func(lg *Logger) { lg.level = l }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(lg *Logger) { lg.now = now }
}

// WithColor forces colours on or off. By default colours are used only when
// w is a terminal.
func WithColor(enabled bool) Option {
	return func(lg *Logger) {
		for _, c := range lg.colors {
			if enabled {
				c.EnableColor()
			} else {
				c.DisableColor()
			}
		}
	}
}

func New(w io.Writer, opts ...Option) *Logger {
	lg := &Logger{
		w:     w,
		level: LevelInfo,
		now:   time.Now,
		colors: map[Level]*color.Color{
			LevelSuccess: color.New(color.FgGreen),
			LevelWarning: color.New(color.FgYellow),
			LevelError:   color.New(color.FgRed),
		},
	}

	WithColor(isTerminal(w))(lg)

	for _, opt := range opts {
		opt(lg)
	}

	return lg
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetLevel changes the threshold.
func (lg *Logger) SetLevel(l Level) {
	lg.level = l
}

func (lg *Logger) Level() Level {
	return lg.level
}

func (lg *Logger) Enabled(l Level) bool {
	return l >= lg.level
}

func (lg *Logger) alert(l Level, end, format string, args ...any) {
	if !lg.Enabled(l) {
		return
	}

	line := fmt.Sprintf("%s [%7s] %s", lg.now().Format(timeLayout), l, fmt.Sprintf(format, args...))
	if c, ok := lg.colors[l]; ok {
		line = c.Sprint(line)
	}

	_, _ = io.WriteString(lg.w, line+end)
}

func (lg *Logger) Debug(format string, args ...any) {
	lg.alert(LevelDebug, "\n", format, args...)
}

func (lg *Logger) Info(format string, args ...any) {
	lg.alert(LevelInfo, "\n", format, args...)
}

// Progress is an info line ending in a carriage return, so the next line
// overwrites it on a terminal.
func (lg *Logger) Progress(format string, args ...any) {
	lg.alert(LevelInfo, "\r", format, args...)
}

func (lg *Logger) Success(format string, args ...any) {
	lg.alert(LevelSuccess, "\n", format, args...)
}

func (lg *Logger) Warning(format string, args ...any) {
	lg.alert(LevelWarning, "\n", format, args...)
}

func (lg *Logger) Error(format string, args ...any) {
	lg.alert(LevelError, "\n", format, args...)
}
