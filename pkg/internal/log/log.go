/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level defines a log level.
type Level zapcore.Level

// Log levels.
const (
	DEBUG   = Level(zapcore.DebugLevel)
	INFO    = Level(zapcore.InfoLevel)
	WARNING = Level(zapcore.WarnLevel)
	ERROR   = Level(zapcore.ErrorLevel)
	PANIC   = Level(zapcore.PanicLevel)
	FATAL   = Level(zapcore.FatalLevel)
)

// String returns the upper-case name of the level.
func (l Level) String() string {
	switch l {
	case WARNING:
		return "WARNING"
	default:
		return strings.ToUpper(zapcore.Level(l).String())
	}
}

// ParseLevel returns the log level for the given string.
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARNING, nil
	case "ERROR":
		return ERROR, nil
	case "PANIC":
		return PANIC, nil
	case "FATAL", "CRITICAL":
		return FATAL, nil
	default:
		return ERROR, fmt.Errorf("logger: invalid log level [%s]", level)
	}
}

// Encoding defines the log encoding.
type Encoding string

// Log encodings.
const (
	Console Encoding = "console"
	JSON    Encoding = "json"
)

const (
	defaultModuleName = ""
	moduleField       = "logger"
)

var levels = newModuleLevels()

// Log is a logger for a single module. The level of the module may be changed at runtime.
type Log struct {
	*zap.Logger
	module string
}

type options struct {
	encoding Encoding
	stdOut   zapcore.WriteSyncer
	fields   []zap.Field
}

// Option is a logger option.
type Option func(o *options)

// WithStdOut sets the output for the logger.
func WithStdOut(w io.Writer) Option {
	return func(o *options) {
		o.stdOut = zapcore.AddSync(w)
	}
}

// WithEncoding sets the output encoding (console or json).
func WithEncoding(encoding Encoding) Option {
	return func(o *options) {
		o.encoding = encoding
	}
}

// WithFields adds fields to every log entry.
func WithFields(fields ...zap.Field) Option {
	return func(o *options) {
		o.fields = append(o.fields, fields...)
	}
}

// New creates a logger for the given module.
func New(module string, opts ...Option) *Log {
	o := &options{
		encoding: Console,
		stdOut:   zapcore.Lock(os.Stdout),
	}

	for _, opt := range opts {
		opt(o)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeDuration = zapcore.StringDurationEncoder
	encoderCfg.NameKey = moduleField

	var encoder zapcore.Encoder
	if o.encoding == JSON {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, o.stdOut, &moduleLevelEnabler{module: module})

	return &Log{
		Logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Named(module).With(o.fields...),
		module: module,
	}
}

// Debug logs a message at DEBUG level.
func (l *Log) Debug(msg string, fields ...zap.Field) {
	l.Logger.Debug(msg, fields...)
}

// Info logs a message at INFO level.
func (l *Log) Info(msg string, fields ...zap.Field) {
	l.Logger.Info(msg, fields...)
}

// Warn logs a message at WARNING level.
func (l *Log) Warn(msg string, fields ...zap.Field) {
	l.Logger.Warn(msg, fields...)
}

// Error logs a message at ERROR level.
func (l *Log) Error(msg string, fields ...zap.Field) {
	l.Logger.Error(msg, fields...)
}

// Debugf formats and logs a message at DEBUG level.
func (l *Log) Debugf(msg string, args ...interface{}) {
	if l.IsEnabled(DEBUG) {
		l.Logger.Debug(fmt.Sprintf(msg, args...))
	}
}

// Infof formats and logs a message at INFO level.
func (l *Log) Infof(msg string, args ...interface{}) {
	if l.IsEnabled(INFO) {
		l.Logger.Info(fmt.Sprintf(msg, args...))
	}
}

// Warnf formats and logs a message at WARNING level.
func (l *Log) Warnf(msg string, args ...interface{}) {
	if l.IsEnabled(WARNING) {
		l.Logger.Warn(fmt.Sprintf(msg, args...))
	}
}

// Errorf formats and logs a message at ERROR level.
func (l *Log) Errorf(msg string, args ...interface{}) {
	l.Logger.Error(fmt.Sprintf(msg, args...))
}

// IsEnabled returns true if the given level is enabled for the module.
func (l *Log) IsEnabled(level Level) bool {
	return level >= levels.Get(l.module)
}

// SetLevel sets the log level for the given module.
func SetLevel(module string, level Level) {
	levels.Set(module, level)
}

// SetDefaultLevel sets the level for modules that have no explicit level.
func SetDefaultLevel(level Level) {
	levels.Set(defaultModuleName, level)
}

// GetLevel returns the log level for the given module.
func GetLevel(module string) Level {
	return levels.Get(module)
}

// SetSpec sets module levels from a spec of the form module1=level1:module2=level2:defaultLevel.
func SetSpec(spec string) error {
	moduleLevels := make(map[string]Level)

	defaultLevel := INFO
	hasDefault := false

	for _, entry := range strings.Split(spec, ":") {
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, "=")

		switch len(parts) {
		case 1:
			level, err := ParseLevel(parts[0])
			if err != nil {
				return err
			}

			defaultLevel = level
			hasDefault = true
		case 2: //nolint:gomnd
			level, err := ParseLevel(parts[1])
			if err != nil {
				return err
			}

			moduleLevels[parts[0]] = level
		default:
			return fmt.Errorf("invalid log spec entry [%s]", entry)
		}
	}

	for module, level := range moduleLevels {
		SetLevel(module, level)
	}

	if hasDefault {
		SetDefaultLevel(defaultLevel)
	}

	return nil
}

// GetSpec returns the current log spec.
func GetSpec() string {
	all := levels.All()

	var modules []string

	for module := range all {
		if module != defaultModuleName {
			modules = append(modules, module)
		}
	}

	sort.Strings(modules)

	var spec strings.Builder

	for _, module := range modules {
		spec.WriteString(fmt.Sprintf("%s=%s:", module, all[module]))
	}

	spec.WriteString(levels.Get(defaultModuleName).String())

	return spec.String()
}

type moduleLevelEnabler struct {
	module string
}

func (e *moduleLevelEnabler) Enabled(level zapcore.Level) bool {
	return Level(level) >= levels.Get(e.module)
}

type moduleLevels struct {
	mutex  sync.RWMutex
	levels map[string]Level
}

func newModuleLevels() *moduleLevels {
	return &moduleLevels{levels: map[string]Level{defaultModuleName: INFO}}
}

func (l *moduleLevels) Get(module string) Level {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	level, ok := l.levels[module]
	if !ok {
		return l.levels[defaultModuleName]
	}

	return level
}

func (l *moduleLevels) Set(module string, level Level) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.levels[module] = level
}

func (l *moduleLevels) All() map[string]Level {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	all := make(map[string]Level, len(l.levels))
	for k, v := range l.levels {
		all[k] = v
	}

	return all
}
