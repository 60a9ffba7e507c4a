package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     *zap.SugaredLogger
	loggerOnce sync.Once
	level      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// initLogger builds the global logger: JSON lines on stderr with ISO8601
// timestamps. The level is shared and can be changed at runtime.
func initLogger() {
	loggerOnce.Do(func() {
		logger = newLogger(false)
	})
}

func newLogger(development bool) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if development {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return zap.New(core).Sugar()
}

// SetLevel changes the minimum level. Unknown values fall back to INFO.
func SetLevel(l Level) {
	initLogger()
	level.SetLevel(ParseLevel(string(l)))
}

// ParseLevel maps a config string such as "debug" to a zap level.
func ParseLevel(s string) zapcore.Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetDevelopment switches to a human-readable console encoder.
func SetDevelopment(on bool) {
	initLogger()
	old := logger
	logger = newLogger(on)
	_ = old.Sync()
}

// Sync flushes buffered entries. Call before exit.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.Infow(msg, kv...)
}

func Warn(msg string, kv ...any) {
	initLogger()
	logger.Warnw(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	extended := append([]any{"err", err}, kv...)
	logger.Errorw(msg, extended...)
}
