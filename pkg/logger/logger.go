package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wonny/cnquant/pkg/config"
)

// Logger is a structured logger wrapper around zerolog.
// Output goes to stderr by default so stdout stays free for tables and JSON.
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zlog zerolog.Logger
}

// New creates a Logger writing to stderr
func New(cfg *config.Config) *Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates a Logger writing to w
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
func NewWithWriter(cfg *config.Config, w io.Writer) *Logger {
	var output io.Writer = w
	if cfg.LogFormat == "console" || cfg.LogFormat == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
		}
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	zlog := zerolog.New(output).
		With().
		Timestamp().
		Str("env", cfg.Env).
		Logger()

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// parseLogLevel converts string log level to zerolog.Level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Fatal logs and exits the process
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zlog.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zlog.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zlog.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zlog.Error().Msgf(format, args...) }

// WithField returns a new logger with an additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zlog: l.zlog.With().Interface(key, value).Logger()}
}

// WithFields returns a new logger with multiple fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithError returns a new logger with an error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zlog: l.zlog.With().Err(err).Logger()}
}

// WithStage tags every entry with a pipeline stage name
func (l *Logger) WithStage(stage string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("stage", stage).Logger()}
}

// WithContext returns a new logger with context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{zlog: l.zlog.With().Ctx(ctx).Logger()}
}

// Zerolog returns the underlying zerolog.Logger
// 외부 패키지에서 zerolog 기능이 필요할 때 사용
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}
