// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log

import (
	"io"
	"log"
	"os"
)

// Logger describes a logger to be used in mxsboot.
type Logger interface {
	// Debugf logs a debug message. Debug messages are dropped unless
	// enabled with SetDebug.
	Debugf(format string, args ...interface{})

	// Infof logs an informational message.
	Infof(format string, args ...interface{})

	// Warnf logs an warning message.
	Warnf(format string, args ...interface{})

	// Errorf logs an error message.
	Errorf(format string, args ...interface{})

	// Fatalf logs a fatal message and immediately exits the application
	// with os.Exit.
	Fatalf(format string, args ...interface{})
}

// DefaultLogger is the logger used by default everywhere within mxsboot.
var DefaultLogger Logger

func init() {
	DefaultLogger = New(os.Stderr)
}

// New returns a Logger writing to w with the standard log flags.
func New(w io.Writer) *Wrapper {
	return &Wrapper{Logger: log.New(w, "", log.LstdFlags)}
}

// Wrapper adapts a standard library logger to Logger.
type Wrapper struct {
	Logger *log.Logger
	Debug  bool
}

// Debugf implements Logger.
func (logger *Wrapper) Debugf(format string, args ...interface{}) {
	if !logger.Debug {
		return
	}
	logger.Logger.Printf("[mxsboot][DEBUG] "+format, args...)
}

// Infof implements Logger.
func (logger *Wrapper) Infof(format string, args ...interface{}) {
	logger.Logger.Printf("[mxsboot][INFO] "+format, args...)
}

// Warnf implements Logger.
func (logger *Wrapper) Warnf(format string, args ...interface{}) {
	logger.Logger.Printf("[mxsboot][WARN] "+format, args...)
}

// Errorf implements Logger.
func (logger *Wrapper) Errorf(format string, args ...interface{}) {
	logger.Logger.Printf("[mxsboot][ERROR] "+format, args...)
}

// Fatalf implements Logger.
func (logger *Wrapper) Fatalf(format string, args ...interface{}) {
	logger.Logger.Fatalf("[mxsboot][FATAL] "+format, args...)
}

// SetDebug toggles debug output of the DefaultLogger, if it supports it.
func SetDebug(enabled bool) {
	if w, ok := DefaultLogger.(*Wrapper); ok {
		w.Debug = enabled
	}
}

// Debugf logs a debug message.
func Debugf(format string, args ...interface{}) {
	DefaultLogger.Debugf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...interface{}) {
	DefaultLogger.Infof(format, args...)
}

// Warnf logs an warning message.
func Warnf(format string, args ...interface{}) {
	DefaultLogger.Warnf(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...interface{}) {
	DefaultLogger.Errorf(format, args...)
}

// Fatalf logs a fatal message and immediately exits the application
// with os.Exit (which is expected to be called by the DefaultLogger.Fatalf).
func Fatalf(format string, args ...interface{}) {
	DefaultLogger.Fatalf(format, args...)
}
