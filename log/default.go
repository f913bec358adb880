// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package log

import (
	"io"

	"aahframe.work/authn/config"
)

var dl *Logger

// Error logs message as `ERROR`. Arguments handled in the manner of fmt.Print.
func Error(v ...interface{}) {
	dl.output(LevelError, nil, nil, v...)
}

// Errorf logs message as `ERROR`. Arguments handled in the manner of fmt.Printf.
func Errorf(format string, v ...interface{}) {
	dl.output(LevelError, nil, &format, v...)
}

// Warn logs message as `WARN`. Arguments handled in the manner of fmt.Print.
func Warn(v ...interface{}) {
	dl.output(LevelWarn, nil, nil, v...)
}

// Warnf logs message as `WARN`. Arguments handled in the manner of fmt.Printf.
func Warnf(format string, v ...interface{}) {
	dl.output(LevelWarn, nil, &format, v...)
}

// Info logs message as `INFO`. Arguments handled in the manner of fmt.Print.
func Info(v ...interface{}) {
	dl.output(LevelInfo, nil, nil, v...)
}

// Infof logs message as `INFO`. Arguments handled in the manner of fmt.Printf.
func Infof(format string, v ...interface{}) {
	dl.output(LevelInfo, nil, &format, v...)
}

// Debug logs message as `DEBUG`. Arguments handled in the manner of fmt.Print.
func Debug(v ...interface{}) {
	dl.output(LevelDebug, nil, nil, v...)
}

// Debugf logs message as `DEBUG`. Arguments handled in the manner of fmt.Printf.
func Debugf(format string, v ...interface{}) {
	dl.output(LevelDebug, nil, &format, v...)
}

// Trace logs message as `TRACE`. Arguments handled in the manner of fmt.Print.
func Trace(v ...interface{}) {
	dl.output(LevelTrace, nil, nil, v...)
}

// Tracef logs message as `TRACE`. Arguments handled in the manner of fmt.Printf.
func Tracef(format string, v ...interface{}) {
	dl.output(LevelTrace, nil, &format, v...)
}

// Fatal logs message as `FATAL` and call to os.Exit(1).
func Fatal(v ...interface{}) {
	dl.output(LevelFatal, nil, nil, v...)
	exit(1)
}

// Fatalf logs message as `FATAL` and call to os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	dl.output(LevelFatal, nil, &format, v...)
	exit(1)
}

// WithFields method to add multiple key-value pairs into log.
func WithFields(fields Fields) Loggerer {
	return dl.WithFields(fields)
}

// WithField method to add single key-value into log
func WithField(key string, value interface{}) Loggerer {
	return dl.WithField(key, value)
}

// AddContext method to add context values into default logger.
func AddContext(fields Fields) {
	dl.AddContext(fields)
}

// AddHook method is to add default logger hook function.
func AddHook(name string, hook HookFunc) error {
	return dl.AddHook(name, hook)
}

// Writer method returns the writer of default logger.
func Writer() io.Writer {
	return dl.Writer()
}

// SetWriter method sets the given writer into default logger.
func SetWriter(w io.Writer) {
	dl.SetWriter(w)
}

// SetPattern method sets the log format pattern for default logger.
func SetPattern(pattern string) error {
	return dl.SetPattern(pattern)
}

// SetLevel method sets the log level for default logger.
func SetLevel(level string) error {
	return dl.SetLevel(level)
}

// Level method returns currently enabled logging level.
func Level() string {
	return dl.Level()
}

// SetDefaultLogger method sets the given logger instance as default logger.
func SetDefaultLogger(l *Logger) {
	dl = l
}

// DefaultLogger returns the current default logger.
func DefaultLogger() *Logger {
	return dl
}

func init() {
	cfg, _ := config.ParseString(`log { }`)
	dl, _ = New(cfg)
}
