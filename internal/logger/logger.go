// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// LoopMate - 视频章节时间戳工具

package logger

import (
	"io"
	"log"
	"os"
)

// Logger provides a simple logging interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// Config controls where and how much is logged
type Config struct {
	Prefix string
	Output io.Writer
	Debug  bool
}

type defaultLogger struct {
	prefix string
	debug  bool
	out    *log.Logger
}

// NewWithConfig returns a logger for the given config
func NewWithConfig(config Config) Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	prefix := config.Prefix
	if prefix != "" {
		prefix += ": "
	}
	return &defaultLogger{
		prefix: prefix,
		debug:  config.Debug,
		out:    log.New(out, "", log.LstdFlags),
	}
}

// Nop returns a logger that discards everything
func Nop() Logger {
	return nopLogger{}
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	l.out.Printf("[INFO] "+l.prefix+format, args...)
}

func (l *defaultLogger) Error(format string, args ...interface{}) {
	l.out.Printf("[ERROR] "+l.prefix+format, args...)
}

func (l *defaultLogger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.out.Printf("[DEBUG] "+l.prefix+format, args...)
}

type nopLogger struct{}

func (nopLogger) Info(format string, args ...interface{})  {}
func (nopLogger) Error(format string, args ...interface{}) {}
func (nopLogger) Debug(format string, args ...interface{}) {}
