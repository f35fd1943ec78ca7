// Package logs provides the structured, component-scoped logger used across the service. It is
// built on go-kit/log so the same logger can be handed to go-kit transports.
package logs

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

// Logger is the logging contract shared by services, endpoints and clients.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)

	// WithComponent returns a logger that tags every line with the component name.
	WithComponent(name string) Logger

	// LogCall logs the outcome of a method call that started at begin. Calls that returned an
	// error are logged at error level.
	LogCall(ctx context.Context, method string, begin time.Time, err error, keyvals ...any)

	// Kit exposes the underlying go-kit logger.
	Kit() kitlog.Logger
}

// Config is the loggerConfig section of the application YAML.
type Config struct {
	Level   string        `yaml:"level"`
	Format  string        `yaml:"format"`
	File    FileConfig    `yaml:"file"`
	Request RequestConfig `yaml:"request"`
}

// FileConfig enables a rotating log file in addition to stdout.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// RequestConfig controls the access log written by the HTTP server.
type RequestConfig struct {
	Enabled bool `yaml:"enabled"`
}

// A Contexter extracts key/value pairs from a request context, such as a request or trace id.
type Contexter func(ctx context.Context) []any

type Option func(*logger)

// WithContexter adds a Contexter whose pairs are appended to every line.
func WithContexter(c Contexter) Option {
	return func(l *logger) {
		l.contexters = append(l.contexters, c)
	}
}

type logger struct {
	kit        kitlog.Logger
	contexters []Contexter
}

var _ Logger = logger{}

// NewLoggerFromConfig builds a Logger writing to stdout and, when configured, a rotating file.
func NewLoggerFromConfig(cfg Config, opts ...Option) (Logger, error) {
	var w io.Writer = os.Stdout
	if cfg.File.Path != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	}
	return NewLogger(w, cfg, opts...)
}

// NewLogger builds a Logger writing to w.
func NewLogger(w io.Writer, cfg Config, opts ...Option) (Logger, error) {
	var kl kitlog.Logger
	switch strings.ToLower(cfg.Format) {
	case "", FormatLogfmt:
		kl = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	case FormatJSON:
		kl = kitlog.NewJSONLogger(kitlog.NewSyncWriter(w))
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.Format)
	}

	allow, err := levelOption(cfg.Level)
	if err != nil {
		return nil, err
	}
	kl = level.NewFilter(kl, allow)
	kl = kitlog.With(kl, "ts", kitlog.DefaultTimestampUTC)

	l := logger{kit: kl}
	for _, o := range opts {
		o(&l)
	}
	return l, nil
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger {
	return logger{kit: kitlog.NewNopLogger()}
}

func levelOption(lvl string) (level.Option, error) {
	switch strings.ToLower(lvl) {
	case "debug", "trace":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	case "none", "off":
		return level.AllowNone(), nil
	}
	return nil, errors.Errorf("unknown log level %q", lvl)
}

func (l logger) Debug(ctx context.Context, msg string, keyvals ...any) {
	l.log(ctx, level.Debug(l.kit), msg, keyvals)
}

func (l logger) Info(ctx context.Context, msg string, keyvals ...any) {
	l.log(ctx, level.Info(l.kit), msg, keyvals)
}

func (l logger) Warn(ctx context.Context, msg string, keyvals ...any) {
	l.log(ctx, level.Warn(l.kit), msg, keyvals)
}

func (l logger) Error(ctx context.Context, msg string, keyvals ...any) {
	l.log(ctx, level.Error(l.kit), msg, keyvals)
}

func (l logger) WithComponent(name string) Logger {
	return logger{
		kit:        kitlog.With(l.kit, "component", name),
		contexters: l.contexters,
	}
}

func (l logger) LogCall(ctx context.Context, method string, begin time.Time, err error, keyvals ...any) {
	kv := append([]any{"method", method, "took", time.Since(begin)}, keyvals...)
	if err != nil {
		l.log(ctx, level.Error(l.kit), "call failed", append(kv, "err", err))
		return
	}
	l.log(ctx, level.Info(l.kit), "call", kv)
}

func (l logger) Kit() kitlog.Logger {
	return l.kit
}

func (l logger) log(ctx context.Context, kl kitlog.Logger, msg string, keyvals []any) {
	kv := make([]any, 0, len(keyvals)+2)
	kv = append(kv, "msg", msg)
	if ctx != nil {
		for _, c := range l.contexters {
			kv = append(kv, c(ctx)...)
		}
	}
	kv = append(kv, keyvals...)
	_ = kl.Log(kv...)
}
