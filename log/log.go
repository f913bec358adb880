// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

// Package log implements a simple, flexible and leveled logger for the
// authn packages. It supports console and discard receivers, text and json
// formats, contextual fields and hooks.
//
//	log {
//	  receiver = "console"
//	  level = "info"
//	  format = "text"
//	  pattern = "%time:2006-01-02 15:04:05.000 %level:-5 %message %fields"
//	}
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"aahframe.work/authn/config"
)

// Level type definition
type level uint8

// Log Level definition
const (
	LevelFatal level = iota
	LevelPanic
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
	LevelUnknown
)

const defaultPattern = "%time:2006-01-02 15:04:05.000 %level:-5 %message %fields"

var (
	// ErrLogReceiverIsNil returned when suppiled receiver is nil.
	ErrLogReceiverIsNil = errors.New("log: receiver is nil")

	// ErrHookFuncIsNil is returned when hook function is nil.
	ErrHookFuncIsNil = errors.New("log: hook func is nil")

	exit = os.Exit

	_ Loggerer = (*Logger)(nil)
	_ Loggerer = (*Entry)(nil)
)

type (
	// Fields type is used to log fields values in the logger.
	Fields map[string]interface{}

	// Loggerer interface is for logger implementations, so that
	// packages can depend on the behavior instead of the concrete logger.
	Loggerer interface {
		Error(v ...interface{})
		Errorf(format string, v ...interface{})
		Warn(v ...interface{})
		Warnf(format string, v ...interface{})
		Info(v ...interface{})
		Infof(format string, v ...interface{})
		Debug(v ...interface{})
		Debugf(format string, v ...interface{})
		Trace(v ...interface{})
		Tracef(format string, v ...interface{})

		WithFields(fields Fields) Loggerer
		WithField(key string, value interface{}) Loggerer
	}

	// Receiver is the interface for pluggable log receiver.
	Receiver interface {
		Init(cfg *config.Config) error
		SetPattern(pattern string) error
		SetWriter(w io.Writer)
		IsCallerInfo() bool
		Writer() io.Writer
		Log(e *Entry)
	}

	// HookFunc type is logger custom hook, it gets a copy of the entry.
	HookFunc func(e Entry)
)

// Logger is the object which logs the given message into recevier as per deifned
// format flags. Logger can be used simultaneously from multiple goroutines;
// it guarantees to serialize access to the Receivers.
type Logger struct {
	cfg      *config.Config
	m        sync.RWMutex
	level    level
	receiver Receiver
	ctx      Fields
	hooks    map[string]HookFunc
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Package methods
//___________________________________

// New method creates the logger based on given configuration.
func New(cfg *config.Config) (*Logger, error) {
	if cfg == nil {
		return nil, errors.New("log: config is nil")
	}

	logger := &Logger{cfg: cfg, ctx: make(Fields), hooks: make(map[string]HookFunc)}

	receiverType := strings.ToUpper(cfg.StringDefault("log.receiver", "CONSOLE"))
	if err := logger.SetReceiver(getReceiverByName(receiverType)); err != nil {
		return nil, err
	}

	if err := logger.SetLevel(cfg.StringDefault("log.level", "DEBUG")); err != nil {
		return nil, err
	}

	if err := logger.SetPattern(cfg.StringDefault("log.pattern", defaultPattern)); err != nil {
		return nil, err
	}

	return logger, nil
}

// NewWithContext method creates the logger based on given configuration and
// every entry carries the given context fields.
func NewWithContext(cfg *config.Config, ctx Fields) (*Logger, error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, err
	}
	for k, v := range ctx {
		logger.ctx[k] = v
	}
	return logger, nil
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Logger methods
//___________________________________

// New method creates a child logger with given fields added on top of
// the parent context, it shares the receiver and hooks.
func (l *Logger) New(fields Fields) *Logger {
	l.m.RLock()
	defer l.m.RUnlock()
	nl := &Logger{
		cfg:      l.cfg,
		level:    l.level,
		receiver: l.receiver,
		ctx:      make(Fields, len(l.ctx)+len(fields)),
		hooks:    l.hooks,
	}
	for k, v := range l.ctx {
		nl.ctx[k] = v
	}
	for k, v := range fields {
		nl.ctx[k] = v
	}
	return nl
}

// AddContext method to add context values into current logger.
func (l *Logger) AddContext(fields Fields) {
	l.m.Lock()
	defer l.m.Unlock()
	for k, v := range fields {
		l.ctx[k] = v
	}
}

// AddHook method is to add logger hook function.
func (l *Logger) AddHook(name string, hook HookFunc) error {
	if hook == nil {
		return ErrHookFuncIsNil
	}

	l.m.Lock()
	defer l.m.Unlock()
	if _, found := l.hooks[name]; found {
		return fmt.Errorf("log: hook name '%v' is already added, skip it", name)
	}
	l.hooks[name] = hook
	return nil
}

// Level method returns currently enabled logging level.
func (l *Logger) Level() string {
	return levelToLevelName[l.level]
}

// SetLevel method sets the given logging level for the logger.
// For e.g.: INFO, WARN, DEBUG, etc. Case-insensitive.
func (l *Logger) SetLevel(lvl string) error {
	l.m.Lock()
	defer l.m.Unlock()
	levelFlag := levelByName(lvl)
	if levelFlag == LevelUnknown {
		return fmt.Errorf("log: unknown log level '%s'", lvl)
	}
	l.level = levelFlag
	return nil
}

// SetPattern method sets the log format pattern.
func (l *Logger) SetPattern(pattern string) error {
	l.m.Lock()
	defer l.m.Unlock()
	if l.receiver == nil {
		return ErrLogReceiverIsNil
	}
	return l.receiver.SetPattern(pattern)
}

// SetReceiver method sets the given receiver into logger instance.
func (l *Logger) SetReceiver(receiver Receiver) error {
	l.m.Lock()
	defer l.m.Unlock()

	if receiver == nil {
		return ErrLogReceiverIsNil
	}

	l.receiver = receiver
	return l.receiver.Init(l.cfg)
}

// SetWriter method sets the given writer into logger instance.
func (l *Logger) SetWriter(w io.Writer) {
	l.m.Lock()
	defer l.m.Unlock()
	l.receiver.SetWriter(w)
}

// Writer method returns the current log writer.
func (l *Logger) Writer() io.Writer {
	return l.receiver.Writer()
}

// IsLevelDebug method returns true if log level is DEBUG otherwise false.
func (l *Logger) IsLevelDebug() bool {
	return l.level == LevelDebug
}

// IsLevelInfo method returns true if log level is INFO otherwise false.
func (l *Logger) IsLevelInfo() bool {
	return l.level == LevelInfo
}

// IsLevelTrace method returns true if log level is TRACE otherwise false.
func (l *Logger) IsLevelTrace() bool {
	return l.level == LevelTrace
}

// WithFields method to add multiple key-value pairs into log entry.
func (l *Logger) WithFields(fields Fields) Loggerer {
	e := newEntry(l)
	e.addFields(fields)
	return e
}

// WithField method to add single key-value into log entry.
func (l *Logger) WithField(key string, value interface{}) Loggerer {
	return l.WithFields(Fields{key: value})
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Logger logging methods
//___________________________________

// Error logs message as `ERROR`. Arguments handled in the manner of fmt.Print.
func (l *Logger) Error(v ...interface{}) {
	l.output(LevelError, nil, nil, v...)
}

// Errorf logs message as `ERROR`. Arguments handled in the manner of fmt.Printf.
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.output(LevelError, nil, &format, v...)
}

// Warn logs message as `WARN`. Arguments handled in the manner of fmt.Print.
func (l *Logger) Warn(v ...interface{}) {
	l.output(LevelWarn, nil, nil, v...)
}

// Warnf logs message as `WARN`. Arguments handled in the manner of fmt.Printf.
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.output(LevelWarn, nil, &format, v...)
}

// Info logs message as `INFO`. Arguments handled in the manner of fmt.Print.
func (l *Logger) Info(v ...interface{}) {
	l.output(LevelInfo, nil, nil, v...)
}

// Infof logs message as `INFO`. Arguments handled in the manner of fmt.Printf.
func (l *Logger) Infof(format string, v ...interface{}) {
	l.output(LevelInfo, nil, &format, v...)
}

// Debug logs message as `DEBUG`. Arguments handled in the manner of fmt.Print.
func (l *Logger) Debug(v ...interface{}) {
	l.output(LevelDebug, nil, nil, v...)
}

// Debugf logs message as `DEBUG`. Arguments handled in the manner of fmt.Printf.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.output(LevelDebug, nil, &format, v...)
}

// Trace logs message as `TRACE`. Arguments handled in the manner of fmt.Print.
func (l *Logger) Trace(v ...interface{}) {
	l.output(LevelTrace, nil, nil, v...)
}

// Tracef logs message as `TRACE`. Arguments handled in the manner of fmt.Printf.
func (l *Logger) Tracef(format string, v ...interface{}) {
	l.output(LevelTrace, nil, &format, v...)
}

// Fatal logs message as `FATAL` and call to os.Exit(1).
func (l *Logger) Fatal(v ...interface{}) {
	l.output(LevelFatal, nil, nil, v...)
	exit(1)
}

// Fatalf logs message as `FATAL` and call to os.Exit(1).
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.output(LevelFatal, nil, &format, v...)
	exit(1)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Unexported methods
//___________________________________

func (l *Logger) output(lvl level, fields Fields, format *string, v ...interface{}) {
	if lvl > l.level {
		return
	}

	l.m.RLock()
	defer l.m.RUnlock()

	e := &Entry{Level: lvl, Time: time.Now(), Fields: make(Fields, len(l.ctx)+len(fields))}
	for k, val := range l.ctx {
		e.Fields[k] = val
	}
	for k, val := range fields {
		e.Fields[k] = val
	}

	if format == nil {
		e.Message = fmt.Sprint(v...)
	} else {
		e.Message = fmt.Sprintf(*format, v...)
	}

	if l.receiver.IsCallerInfo() {
		e.File, e.Line = fetchCallerInfo()
	}

	l.receiver.Log(e)

	for _, fn := range l.hooks {
		go fn(*e)
	}
}
