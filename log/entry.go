// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package log

import (
	"encoding/json"
	"time"
)

// Entry represents a log entry and contains the timestamp when the entry
// was created, level, etc.
type Entry struct {
	Level   level     `json:"level,omitempty"`
	Time    time.Time `json:"timestamp,omitempty"`
	Message string    `json:"message,omitempty"`
	File    string    `json:"file,omitempty"`
	Line    int       `json:"line,omitempty"`
	Fields  Fields    `json:"fields,omitempty"`

	logger *Logger
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Entry methods
//___________________________________

// MarshalJSON method for formating entry to JSON.
func (e *Entry) MarshalJSON() ([]byte, error) {
	type alias Entry
	return json.Marshal(&struct {
		Level string `json:"level,omitempty"`
		Time  string `json:"timestamp,omitempty"`
		*alias
	}{
		Level: levelToLevelName[e.Level],
		Time:  formatTime(e.Time),
		alias: (*alias)(e),
	})
}

// WithFields method to add multiple key-value pairs into log entry.
func (e *Entry) WithFields(fields Fields) Loggerer {
	ne := newEntry(e.logger)
	ne.addFields(e.Fields)
	ne.addFields(fields)
	return ne
}

// WithField method to add single key-value into log entry.
func (e *Entry) WithField(key string, value interface{}) Loggerer {
	return e.WithFields(Fields{key: value})
}

// Error logs message as `ERROR`. Arguments handled in the manner of fmt.Print.
func (e *Entry) Error(v ...interface{}) {
	e.logger.output(LevelError, e.Fields, nil, v...)
}

// Errorf logs message as `ERROR`. Arguments handled in the manner of fmt.Printf.
func (e *Entry) Errorf(format string, v ...interface{}) {
	e.logger.output(LevelError, e.Fields, &format, v...)
}

// Warn logs message as `WARN`. Arguments handled in the manner of fmt.Print.
func (e *Entry) Warn(v ...interface{}) {
	e.logger.output(LevelWarn, e.Fields, nil, v...)
}

// Warnf logs message as `WARN`. Arguments handled in the manner of fmt.Printf.
func (e *Entry) Warnf(format string, v ...interface{}) {
	e.logger.output(LevelWarn, e.Fields, &format, v...)
}

// Info logs message as `INFO`. Arguments handled in the manner of fmt.Print.
func (e *Entry) Info(v ...interface{}) {
	e.logger.output(LevelInfo, e.Fields, nil, v...)
}

// Infof logs message as `INFO`. Arguments handled in the manner of fmt.Printf.
func (e *Entry) Infof(format string, v ...interface{}) {
	e.logger.output(LevelInfo, e.Fields, &format, v...)
}

// Debug logs message as `DEBUG`. Arguments handled in the manner of fmt.Print.
func (e *Entry) Debug(v ...interface{}) {
	e.logger.output(LevelDebug, e.Fields, nil, v...)
}

// Debugf logs message as `DEBUG`. Arguments handled in the manner of fmt.Printf.
func (e *Entry) Debugf(format string, v ...interface{}) {
	e.logger.output(LevelDebug, e.Fields, &format, v...)
}

// Trace logs message as `TRACE`. Arguments handled in the manner of fmt.Print.
func (e *Entry) Trace(v ...interface{}) {
	e.logger.output(LevelTrace, e.Fields, nil, v...)
}

// Tracef logs message as `TRACE`. Arguments handled in the manner of fmt.Printf.
func (e *Entry) Tracef(format string, v ...interface{}) {
	e.logger.output(LevelTrace, e.Fields, &format, v...)
}

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Unexported methods
//___________________________________

func newEntry(l *Logger) *Entry {
	return &Entry{logger: l, Fields: make(Fields)}
}

func (e *Entry) addFields(fields Fields) {
	for k, v := range fields {
		e.Fields[k] = v
	}
}
