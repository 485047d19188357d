package logger

import (
	"fmt"
	slogmulti "github.com/samber/slog-multi"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog logger writing text to stderr and, once SetOutputFile is
// called, JSON lines to a rotated file as well.
type Logger struct {
	*slog.Logger
	console  io.Writer
	level    *slog.LevelVar
	zapLevel zap.AtomicLevel
	file     *lumberjack.Logger
}

func New() *Logger {
	return NewWriter(os.Stderr)
}

// NewWriter is New with console output going to w.
func NewWriter(w io.Writer) *Logger {
	l := &Logger{
		console:  w,
		level:    new(slog.LevelVar),
		zapLevel: zap.NewAtomicLevelAt(zapcore.WarnLevel),
	}
	l.level.Set(slog.LevelWarn)
	l.Logger = slog.New(l.consoleHandler())
	return l
}

func (l *Logger) consoleHandler() slog.Handler {
	return slog.NewTextHandler(l.console, &slog.HandlerOptions{Level: l.level})
}

// SetLogLevel accepts debug, info, warn or error. Unknown values keep the
// current level.
func (l *Logger) SetLogLevel(level string) {
	var sl slog.Level
	if err := sl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		l.Warn("unknown log level, keeping current", slog.String("level", level))
		return
	}
	l.level.Set(sl)
	l.zapLevel.SetLevel(zapLevel(sl))
}

// SetOutputFile adds a size-rotated JSON log file next to the console
// output. It must be called before the logger is shared between goroutines.
func (l *Logger) SetOutputFile(path string) {
	if path == "" {
		return
	}
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(l.file),
		l.zapLevel,
	)
	l.Logger = slog.New(slogmulti.Fanout(
		l.consoleHandler(),
		zapslog.NewHandler(core),
	))
}

// Error logs msg at error level with err attached under the "error" key.
func (l *Logger) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	l.Logger.Error(msg, args...)
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
