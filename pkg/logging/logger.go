package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red           = "\033[31m"
	Green         = "\033[32m"
	Blue          = "\033[34m"
	Cyan          = "\033[36m"
	White         = "\033[37m"
	Gray          = "\033[90m"
	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightWhite   = "\033[97m"
)

// Component represents different parts of the client for color coding
type Component string

const (
	ComponentClient    Component = "CLIENT"
	ComponentPublish   Component = "PUBLISH"
	ComponentSubscribe Component = "SUBSCRIBE"
	ComponentTransport Component = "TRANSPORT"
	ComponentMockBus   Component = "MOCKBUS"
	ComponentGeneral   Component = "GENERAL"
)

// Options controls how a logger is built. The zero value logs at info level
// to stdout in plain console format.
type Options struct {
	Level        string    // debug, info, warn, error
	Format       string    // console, json
	OutputFile   string    // empty for Output
	Output       io.Writer // nil for stdout
	EnableColors bool
}

// ColoredLogger wraps zap.Logger with colored component prefixes
type ColoredLogger struct {
	*zap.Logger
	enableColors bool
}

func getComponentColor(component Component) string {
	switch component {
	case ComponentClient:
		return Blue
	case ComponentPublish:
		return BrightGreen
	case ComponentSubscribe:
		return BrightMagenta
	case ComponentTransport:
		return Cyan
	case ComponentMockBus:
		return BrightYellow
	case ComponentGeneral:
		return Green
	default:
		return White
	}
}

func getLevelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return Gray
	case zapcore.InfoLevel:
		return BrightWhite
	case zapcore.WarnLevel:
		return BrightYellow
	case zapcore.ErrorLevel:
		return BrightRed
	default:
		return Red
	}
}

// coloredConsoleEncoder creates a compact console encoder: HH:MM:SS, one
// letter level, bare file name as caller.
func coloredConsoleEncoder(enableColors bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		timeStr := t.Format("15:04:05")
		if enableColors {
			timeStr = Dim + timeStr + Reset
		}
		enc.AppendString(timeStr)
	}

	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		levelStr := "?"
		switch level {
		case zapcore.DebugLevel:
			levelStr = "D"
		case zapcore.InfoLevel:
			levelStr = "I"
		case zapcore.WarnLevel:
			levelStr = "W"
		case zapcore.ErrorLevel:
			levelStr = "E"
		}
		if enableColors {
			levelStr = getLevelColor(level) + Bold + levelStr + Reset
		}
		enc.AppendString(levelStr)
	}

	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		file = strings.TrimSuffix(file, ".go")
		if enableColors {
			file = Dim + file + Reset
		}
		enc.AppendString(file)
	}

	return zapcore.NewConsoleEncoder(config)
}

// ParseLevel maps a config level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "", "info":
		return zapcore.InfoLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds a ColoredLogger from Options.
func NewLogger(opts Options) (*ColoredLogger, error) {
	var encoder zapcore.Encoder
	colors := opts.EnableColors
	switch strings.ToLower(opts.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		colors = false
	case "", "console":
		encoder = coloredConsoleEncoder(colors)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	sink := zapcore.AddSync(os.Stdout)
	if opts.Output != nil {
		sink = zapcore.AddSync(opts.Output)
	}
	if opts.OutputFile != "" {
		file, err := os.OpenFile(opts.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.OutputFile, err)
		}
		sink = zapcore.AddSync(file)
		colors = false
		if opts.Format == "" || strings.EqualFold(opts.Format, "console") {
			encoder = coloredConsoleEncoder(false)
		}
	}

	core := zapcore.NewCore(encoder, sink, ParseLevel(opts.Level))
	logger := zap.New(core, zap.AddCaller())

	return &ColoredLogger{
		Logger:       logger,
		enableColors: colors,
	}, nil
}

// NewDefaultLogger creates a colored debug-level console logger on stdout.
func NewDefaultLogger() (*ColoredLogger, error) {
	return NewLogger(Options{Level: "debug", EnableColors: true})
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *ColoredLogger {
	return &ColoredLogger{Logger: zap.NewNop()}
}

// For returns a plain *zap.Logger whose messages carry the component prefix.
// Library packages take *zap.Logger, so this is how the CLI hands them one.
func (l *ColoredLogger) For(component Component) *zap.Logger {
	prefix := fmt.Sprintf("[%s] ", component)
	if l.enableColors {
		prefix = fmt.Sprintf("%s[%s]%s ", getComponentColor(component), component, Reset)
	}
	return l.Logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return &prefixCore{Core: c, prefix: prefix}
	}))
}

func (l *ColoredLogger) decorate(component Component, msg string) string {
	if l.enableColors {
		return fmt.Sprintf("%s[%s]%s %s", getComponentColor(component), component, Reset, msg)
	}
	return fmt.Sprintf("[%s] %s", component, msg)
}

// Component-specific logging methods
func (l *ColoredLogger) ComponentInfo(component Component, msg string, fields ...zap.Field) {
	l.WithOptions(zap.AddCallerSkip(1)).Info(l.decorate(component, msg), fields...)
}

func (l *ColoredLogger) ComponentWarn(component Component, msg string, fields ...zap.Field) {
	l.WithOptions(zap.AddCallerSkip(1)).Warn(l.decorate(component, msg), fields...)
}

func (l *ColoredLogger) ComponentError(component Component, msg string, fields ...zap.Field) {
	l.WithOptions(zap.AddCallerSkip(1)).Error(l.decorate(component, msg), fields...)
}

func (l *ColoredLogger) ComponentDebug(component Component, msg string, fields ...zap.Field) {
	l.WithOptions(zap.AddCallerSkip(1)).Debug(l.decorate(component, msg), fields...)
}

// prefixCore prepends a fixed component tag to every entry message.
type prefixCore struct {
	zapcore.Core
	prefix string
}

func (c *prefixCore) With(fields []zapcore.Field) zapcore.Core {
	return &prefixCore{Core: c.Core.With(fields), prefix: c.prefix}
}

func (c *prefixCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *prefixCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	entry.Message = c.prefix + entry.Message
	return c.Core.Write(entry, fields)
}
