// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package log

import (
	"runtime"
	"strings"
	"time"

	"aahframe.work/authn/essentials"
)

var (
	levelNameToLevel = map[string]level{
		"FATAL": LevelFatal,
		"PANIC": LevelPanic,
		"ERROR": LevelError,
		"WARN":  LevelWarn,
		"INFO":  LevelInfo,
		"DEBUG": LevelDebug,
		"TRACE": LevelTrace,
	}

	levelToLevelName = map[level]string{
		LevelFatal: "FATAL",
		LevelPanic: "PANIC",
		LevelError: "ERROR",
		LevelWarn:  "WARN",
		LevelInfo:  "INFO",
		LevelDebug: "DEBUG",
		LevelTrace: "TRACE",
	}
)

//‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾‾
// Unexported methods
//___________________________________

// String level string interface.
func (l level) String() string {
	return levelToLevelName[l]
}

func levelByName(name string) level {
	if level, ok := levelNameToLevel[strings.ToUpper(name)]; ok {
		return level
	}
	return LevelUnknown
}

func isFmtFlagExists(flags []ess.FmtFlagPart, flag ess.FmtFlag) bool {
	for _, f := range flags {
		if f.Flag == flag {
			return true
		}
	}
	return false
}

// isCallerInfo method to identify to fetch caller or not.
func isCallerInfo(flags []ess.FmtFlagPart) bool {
	return (isFmtFlagExists(flags, FmtFlagShortfile) ||
		isFmtFlagExists(flags, FmtFlagLongfile) ||
		isFmtFlagExists(flags, FmtFlagLine))
}

func fetchCallerInfo() (string, int) {
	pc := make([]uintptr, 8)
	n := runtime.Callers(3, pc)
	if n == 0 {
		return "???", 0
	}

	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()

		// Unwinding the log package frames
		if strings.HasPrefix(frame.Function, "aahframe.work/authn/log.") &&
			!strings.HasSuffix(frame.File, "_test.go") && more {
			continue
		}

		return frame.File, frame.Line
	}
}

func getReceiverByName(name string) Receiver {
	switch name {
	case "CONSOLE":
		return &ConsoleReceiver{}
	case "DISCARD":
		return &DiscardReceiver{}
	default:
		return nil
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
