// Copyright (C) 2026 Propertyflow
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"fmt"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/log"
)

// temporalLogger bridges Temporal's SDK logging interface onto zerolog, so
// workflow and activity logs land in the same sinks, with the same
// per-package levels, as the rest of the process.
type temporalLogger struct {
	base zerolog.Logger
}

// GetTemporalLogAdapter returns a Temporal SDK logger backed by the named
// package logger.
func GetTemporalLogAdapter(pkg string) log.Logger {
	return NewTemporalLogAdapter(GetLogger(pkg))
}

// NewTemporalLogAdapter wraps an existing zerolog logger for the Temporal
// SDK.
func NewTemporalLogAdapter(base zerolog.Logger) log.Logger {
	return &temporalLogger{base: base}
}

func (l *temporalLogger) Debug(msg string, keyvals ...interface{}) { l.emit(l.base.Debug(), msg, keyvals) }
func (l *temporalLogger) Info(msg string, keyvals ...interface{})  { l.emit(l.base.Info(), msg, keyvals) }
func (l *temporalLogger) Warn(msg string, keyvals ...interface{})  { l.emit(l.base.Warn(), msg, keyvals) }
func (l *temporalLogger) Error(msg string, keyvals ...interface{}) { l.emit(l.base.Error(), msg, keyvals) }

// With pre-binds fields; Temporal calls this once per workflow or activity
// context with identifiers like WorkflowID and RunID.
func (l *temporalLogger) With(keyvals ...interface{}) log.Logger {
	ctx := l.base.With()
	for _, f := range pairFields(keyvals) {
		ctx = ctx.Interface(f.key, f.value)
	}
	return &temporalLogger{base: ctx.Logger()}
}

func (l *temporalLogger) emit(event *zerolog.Event, msg string, keyvals []interface{}) {
	for _, f := range pairFields(keyvals) {
		switch v := f.value.(type) {
		case error:
			event = event.AnErr(f.key, v)
		case string:
			event = event.Str(f.key, v)
		case fmt.Stringer:
			event = event.Str(f.key, v.String())
		default:
			event = event.Interface(f.key, v)
		}
	}
	event.Msg(msg)
}

type logField struct {
	key   string
	value interface{}
}

// pairFields normalizes Temporal's variadic key/value list. A trailing key
// without a value is dropped.
func pairFields(keyvals []interface{}) []logField {
	fields := make([]logField, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fields = append(fields, logField{key: fmt.Sprint(keyvals[i]), value: keyvals[i+1]})
	}
	return fields
}
