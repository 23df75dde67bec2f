package main

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"
)

// stdLogger is a runtime.Logger writing to a log.Logger, for use outside Nakama.
type stdLogger struct {
	out    *log.Logger
	fields map[string]interface{}
}

func newStdLogger(w io.Writer) *stdLogger {
	return &stdLogger{out: log.New(w, "", log.LstdFlags)}
}

func (l *stdLogger) print(level, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
		}
		msg += b.String()
	}
	l.out.Printf("%s %s", level, msg)
}

func (l *stdLogger) Debug(format string, v ...interface{}) { l.print("DEBUG", format, v...) }
func (l *stdLogger) Info(format string, v ...interface{})  { l.print("INFO", format, v...) }
func (l *stdLogger) Warn(format string, v ...interface{})  { l.print("WARN", format, v...) }
func (l *stdLogger) Error(format string, v ...interface{}) { l.print("ERROR", format, v...) }

func (l *stdLogger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

func (l *stdLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &stdLogger{out: l.out, fields: merged}
}

func (l *stdLogger) Fields() map[string]interface{} {
	return l.fields
}
