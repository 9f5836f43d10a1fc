// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rivaas.dev/endpoint/telemetry/semconv"
)

// HandlerType represents the type of logging handler.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs human-readable colored logs.
	ConsoleHandler HandlerType = "console"
)

// Level represents log level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ParseLevel converts "debug", "info", "warn" or "error" (any case) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// SamplingConfig configures log sampling for high-traffic services.
//
// The first Initial records are always logged, then one in every Thereafter.
// The counter resets every Tick. Records at error level or above are never
// sampled out.
type SamplingConfig struct {
	Initial    int
	Thereafter int           // 0 logs everything after Initial
	Tick       time.Duration // 0 never resets
}

// redactedKeys are replaced with a placeholder wherever they appear.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"secret":        {},
	"api_key":       {},
	"authorization": {},
}

const redacted = "***REDACTED***"

// Logger owns a configured [slog.Logger].
//
// All methods are safe for concurrent use.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       slog.LevelVar

	serviceName    string
	serviceVersion string
	environment    string

	addSource   bool
	replaceAttr func(groups []string, a slog.Attr) slog.Attr

	sampling      *SamplingConfig
	sampleCounter atomic.Int64
	sampleStop    chan struct{}
	stopOnce      sync.Once

	customLogger *slog.Logger
	useCustom    bool

	registerGlobal bool

	slogger *slog.Logger
}

// Option is a functional option for configuring the logger.
type Option func(*Logger)

func defaultLogger() *Logger {
	l := &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
	}
	l.level.Set(LevelInfo)

	return l
}

// New creates a Logger with the given options.
//
// New does not replace the global slog default unless [WithGlobalLogger]
// is given.
func New(opts ...Option) (*Logger, error) {
	l := defaultLogger()
	for _, opt := range opts {
		opt(l)
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := l.initialize(); err != nil {
		return nil, err
	}

	return l, nil
}

// MustNew creates a Logger or panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging initialization failed: " + err.Error())
	}

	return l
}

// Validate checks if the configuration is valid.
func (l *Logger) Validate() error {
	if l.useCustom {
		if l.customLogger == nil {
			return ErrNilLogger
		}
		return nil
	}

	if l.output == nil {
		return ErrNilOutput
	}

	switch l.handlerType {
	case JSONHandler, TextHandler, ConsoleHandler:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidHandler, l.handlerType)
	}

	if l.sampling != nil && (l.sampling.Initial < 0 || l.sampling.Thereafter < 0) {
		return ErrInvalidSampling
	}

	return nil
}

func (l *Logger) initialize() error {
	if l.useCustom {
		l.slogger = l.customLogger
	} else {
		opts := &slog.HandlerOptions{
			Level:       &l.level,
			AddSource:   l.addSource,
			ReplaceAttr: l.buildReplaceAttr(),
		}

		var h slog.Handler
		switch l.handlerType {
		case TextHandler:
			h = slog.NewTextHandler(l.output, opts)
		case ConsoleHandler:
			h = newConsoleHandler(l.output, opts)
		default:
			h = slog.NewJSONHandler(l.output, opts)
		}

		h = &traceHandler{next: h}
		if l.sampling != nil {
			h = &samplingHandler{next: h, owner: l}
		}

		l.slogger = slog.New(h).With(l.serviceAttrs()...)
	}

	if l.sampling != nil && l.sampling.Tick > 0 {
		l.sampleStop = make(chan struct{})
		go l.resetSampling(time.NewTicker(l.sampling.Tick))
	}

	if l.registerGlobal {
		slog.SetDefault(l.slogger)
	}

	return nil
}

func (l *Logger) serviceAttrs() []any {
	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, semconv.ServiceName, l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion, l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, semconv.DeploymentEnviron, l.environment)
	}

	return attrs
}

func (l *Logger) buildReplaceAttr() func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if _, secret := redactedKeys[strings.ToLower(a.Key)]; secret {
			return slog.String(a.Key, redacted)
		}
		if l.replaceAttr != nil {
			return l.replaceAttr(groups, a)
		}

		return a
	}
}

func (l *Logger) resetSampling(ticker *time.Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sampleCounter.Store(0)
		case <-l.sampleStop:
			return
		}
	}
}

// sampled reports whether a record at level passes the sampling policy.
func (l *Logger) sampled(level slog.Level) bool {
	if level >= slog.LevelError || l.sampling == nil {
		return true
	}

	count := l.sampleCounter.Add(1)
	if count <= int64(l.sampling.Initial) || l.sampling.Thereafter == 0 {
		return true
	}

	return (count-int64(l.sampling.Initial))%int64(l.sampling.Thereafter) == 0
}

// Slog returns the underlying [slog.Logger].
func (l *Logger) Slog() *slog.Logger { return l.slogger }

// With returns a logger with additional attributes.
func (l *Logger) With(args ...any) *slog.Logger { return l.slogger.With(args...) }

// Level returns the current minimum level.
func (l *Logger) Level() Level { return l.level.Level() }

// SetLevel changes the minimum level of this logger and every logger
// derived from it.
func (l *Logger) SetLevel(level Level) error {
	if l.useCustom {
		return ErrCannotChangeLevel
	}
	l.level.Set(level)

	return nil
}

// Shutdown stops the sampling ticker. It is safe to call more than once.
func (l *Logger) Shutdown() {
	l.stopOnce.Do(func() {
		if l.sampleStop != nil {
			close(l.sampleStop)
		}
	})
}
