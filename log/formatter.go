// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"

	"aahframe.work/authn/essentials"
)

const (
	textFmt = "text"
	jsonFmt = "json"
)

// Format flags used to define log message format for each log entry
const (
	FmtFlagLevel ess.FmtFlag = iota
	FmtFlagTime
	FmtFlagUTCTime
	FmtFlagLongfile
	FmtFlagShortfile
	FmtFlagLine
	FmtFlagMessage
	FmtFlagFields
	FmtFlagCustom
	FmtFlagUnknown
)

// FmtFlags is the list of log format flags supported by aah/log library
// Usage of flag order is up to format composition.
//    level     - outputs INFO, DEBUG, ERROR, so on
//    time      - outputs local time as per format supplied
//    utctime   - outputs UTC time as per format supplied
//    longfile  - outputs full file name: /a/b/c/d.go
//    shortfile - outputs final file name element: d.go
//    line      - outputs file line number: L23
//    message   - outputs given message along supplied arguments if they present
//    fields    - outputs entry fields as key=value pairs, sorted by key
//    custom    - outputs string as-is into log entry
var FmtFlags = map[string]ess.FmtFlag{
	"level":     FmtFlagLevel,
	"time":      FmtFlagTime,
	"utctime":   FmtFlagUTCTime,
	"longfile":  FmtFlagLongfile,
	"shortfile": FmtFlagShortfile,
	"line":      FmtFlagLine,
	"message":   FmtFlagMessage,
	"fields":    FmtFlagFields,
	"custom":    FmtFlagCustom,
}

// textFormatter formats the `Entry` object details as per log `pattern`
// 	For e.g.:
// 		2016-07-02 22:26:01.530 INFO  authenticated user=admin scheme=basic
func textFormatter(flags []ess.FmtFlagPart, entry *Entry) []byte {
	buf := &bytes.Buffer{}
	for _, part := range flags {
		switch part.Flag {
		case FmtFlagLevel:
			buf.WriteString(fmt.Sprintf(part.Format, levelToLevelName[entry.Level]))
		case FmtFlagTime:
			buf.WriteString(entry.Time.Format(part.Format))
		case FmtFlagUTCTime:
			buf.WriteString(entry.Time.UTC().Format(part.Format))
		case FmtFlagLongfile:
			buf.WriteString(fmt.Sprintf(part.Format, entry.File))
		case FmtFlagShortfile:
			buf.WriteString(fmt.Sprintf(part.Format, filepath.Base(entry.File)))
		case FmtFlagLine:
			buf.WriteString("L" + fmt.Sprintf(part.Format, entry.Line))
		case FmtFlagMessage:
			buf.WriteString(entry.Message)
		case FmtFlagFields:
			writeFields(buf, entry.Fields)
		case FmtFlagCustom:
			buf.WriteString(part.Format)
		}

		buf.WriteByte(' ')
	}

	b := bytes.TrimRight(buf.Bytes(), " ")
	return append(b, '\n')
}

func writeFields(buf *bytes.Buffer, fields Fields) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(fmt.Sprintf("%s=%v", k, fields[k]))
	}
}
