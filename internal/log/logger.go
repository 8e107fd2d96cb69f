// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

// Package log provides a thread safe leveled logger
// with context key-value pairs, in the style used across the
// other ChainSafe node projects.
package log

import (
	"io"
	stdlog "log"
	"os"
	"sync"
)

// Logger is the logger implementation structure.
// It is thread safe to use.
type Logger struct {
	settings settings
	stdLogger *stdlog.Logger
	mutex    *sync.Mutex // shared with child loggers
}

type contextKeyValue struct {
	key   string
	value string
}

type settings struct {
	writer  io.Writer
	level   Level
	context []contextKeyValue
}

// Option is a settings modifier for the logger.
type Option func(s *settings)

// SetLevel sets the level for the logger.
// The level defaults to Info.
func SetLevel(level Level) Option {
	return func(s *settings) {
		s.level = level
	}
}

// SetWriter sets the writer for the logger.
// The writer defaults to os.Stdout.
func SetWriter(writer io.Writer) Option {
	return func(s *settings) {
		s.writer = writer
	}
}

// AddContext adds a context key-value pair for the logger.
// Pairs are written in the order they were added.
func AddContext(key, value string) Option {
	return func(s *settings) {
		s.context = append(s.context, contextKeyValue{key: key, value: value})
	}
}

// New creates a new logger. If more loggers are needed for the same
// writer, create child loggers with the New method on the parent,
// to keep writes serialised on the shared mutex.
func New(options ...Option) *Logger {
	s := settings{
		writer: os.Stdout,
		level:  Info,
	}
	for _, option := range options {
		option(&s)
	}

	return &Logger{
		settings:  s,
		stdLogger: stdlog.New(s.writer, "", stdlog.LstdFlags),
		mutex:     new(sync.Mutex),
	}
}

// New creates a thread safe child logger.
// It inherits the parent's settings, modified by the options given.
func (l *Logger) New(options ...Option) *Logger {
	s := l.settings
	s.context = append([]contextKeyValue{}, l.settings.context...)
	for _, option := range options {
		option(&s)
	}

	return &Logger{
		settings:  s,
		stdLogger: stdlog.New(s.writer, "", stdlog.LstdFlags),
		mutex:     l.mutex,
	}
}

// Patch patches the existing settings with any option given.
func (l *Logger) Patch(options ...Option) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for _, option := range options {
		option(&l.settings)
	}
}

// PatchLevel patches the level of the logger.
func (l *Logger) PatchLevel(level Level) {
	l.Patch(SetLevel(level))
}
