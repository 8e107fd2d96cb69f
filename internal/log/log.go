// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"fmt"
	"strings"
)

func (l *Logger) log(logLevel Level, s string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.settings.level > logLevel {
		return
	}

	line := logLevel.ColouredString() + " " + s
	if len(l.settings.context) > 0 {
		keyValues := make([]string, 0, len(l.settings.context))
		for _, kv := range l.settings.context {
			keyValues = append(keyValues, kv.key+"="+kv.value)
		}
		line += "\t" + strings.Join(keyValues, " ")
	}

	const callDepth = 3
	_ = l.stdLogger.Output(callDepth, line)
}

func (l *Logger) logf(logLevel Level, format string, args ...interface{}) {
	l.log(logLevel, fmt.Sprintf(format, args...))
}

// Trace logs with the trce level.
func (l *Logger) Trace(s string) { l.log(Trace, s) }

// Debug logs with the dbug level.
func (l *Logger) Debug(s string) { l.log(Debug, s) }

// Info logs with the info level.
func (l *Logger) Info(s string) { l.log(Info, s) }

// Warn logs with the warn level.
func (l *Logger) Warn(s string) { l.log(Warn, s) }

// Error logs with the eror level.
func (l *Logger) Error(s string) { l.log(Error, s) }

// Critical logs with the crit level.
func (l *Logger) Critical(s string) { l.log(Critical, s) }

// Tracef formats and logs at the trce level.
func (l *Logger) Tracef(format string, args ...interface{}) { l.logf(Trace, format, args...) }

// Debugf formats and logs at the dbug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(Debug, format, args...) }

// Infof formats and logs at the info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.logf(Info, format, args...) }

// Warnf formats and logs at the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.logf(Warn, format, args...) }

// Errorf formats and logs at the eror level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(Error, format, args...) }

// Criticalf formats and logs at the crit level.
func (l *Logger) Criticalf(format string, args ...interface{}) { l.logf(Critical, format, args...) }
