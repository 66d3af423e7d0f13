// Package log provides structured logging for wie using zap.
package log

import (
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with wie-specific helpers.
type Logger struct {
	*zap.Logger
	onTrace func(pc uint64, category, name, detail string) // trace callback for events
}

var (
	// L is the global logger instance.
	L    *Logger
	once sync.Once
)

// Init initializes the global logger from the WIE_LOG environment variable
// (or the given debug flag, whichever asks for more verbosity). Safe to
// call multiple times; only the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug || envWantsDebug())
	})
}

func envWantsDebug() bool {
	switch strings.ToLower(os.Getenv("WIE_LOG")) {
	case "debug", "trace":
		return true
	default:
		return false
	}
}

// New creates a new Logger instance.
func New(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(levelFromEnv())
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}

	return &Logger{Logger: logger}
}

func levelFromEnv() zapcore.Level {
	switch strings.ToLower(os.Getenv("WIE_LOG")) {
	case "info":
		return zap.InfoLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.WarnLevel
	}
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// SetOnTrace sets the trace callback for stub/event events.
func (l *Logger) SetOnTrace(fn func(pc uint64, category, name, detail string)) {
	l.onTrace = fn
}

// WithSession returns a logger with the emulator run's session id preset,
// so concurrent or sequential runs can be told apart in aggregated logs.
func (l *Logger) WithSession(session uuid.UUID) *Logger {
	return &Logger{
		Logger:  l.Logger.With(zap.String("session", session.String())),
		onTrace: l.onTrace,
	}
}

// Trace logs a stub/native-call event and invokes the trace callback if set.
func (l *Logger) Trace(pc uint64, category, name, detail string) {
	if l.onTrace != nil {
		l.onTrace(pc, category, name, detail)
	}

	l.Debug("trace",
		zap.String("cat", category),
		zap.String("fn", name),
		zap.String("detail", detail),
		zap.Uint64("pc", pc),
	)
}

// StubInstall logs when a native/WIPI-C stub is installed at a trampoline.
func (l *Logger) StubInstall(category, name string, addr uint64) {
	l.Debug("installed",
		zap.String("cat", category),
		zap.String("fn", name),
		zap.Uint64("addr", addr),
	)
}

// ClassResolve logs KTF class resolution through the JVM bridge.
func (l *Logger) ClassResolve(name string, ptrClass uint64, cached bool) {
	l.Debug("class resolved",
		zap.String("class", name),
		zap.Uint64("ptr", ptrClass),
		zap.Bool("cached", cached),
	)
}

// MethodDispatch logs a virtual or static method dispatch through the bridge.
func (l *Logger) MethodDispatch(class, method string, vtableIndex int) {
	l.Debug("method dispatch",
		zap.String("class", class),
		zap.String("method", method),
		zap.Int("vtable_index", vtableIndex),
	)
}

// WithCategory returns a logger with the category field preset.
func (l *Logger) WithCategory(category string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(zap.String("cat", category)),
		onTrace: l.onTrace,
	}
}

// Hex formats a uint64 as a hex string for logging.
func Hex(addr uint64) string {
	return "0x" + hexString(addr)
}

func hexString(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	buf := make([]byte, 16)
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

// Field helpers for common patterns.

// Addr creates an address field.
func Addr(addr uint64) zap.Field {
	return zap.String("addr", Hex(addr))
}

// Size creates a size field.
func Size(size uint64) zap.Field {
	return zap.Uint64("size", size)
}

// Ptr creates a pointer field.
func Ptr(name string, ptr uint64) zap.Field {
	return zap.String(name, Hex(ptr))
}

// Fn creates a function name field.
func Fn(name string) zap.Field {
	return zap.String("fn", name)
}
