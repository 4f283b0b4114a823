// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package initcall runs ordered lists of fallible initialization steps and
// stops at the first failure.
package initcall

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/fatih/camelcase"
)

// Func is a single initialization step.
type Func func() error

// Step is a named Func.
type Step struct {
	Name string
	Func Func
}

// Sequence is an ordered list of steps.
type Sequence []Step

// Names returns the step names in order.
func (s Sequence) Names() []string {
	names := make([]string, 0, len(s))
	for _, step := range s {
		names = append(names, step.Name)
	}
	return names
}

// StepError is returned by Run when a step fails.
type StepError struct {
	Index int
	Name  string
	Err   error
}

func (err *StepError) Error() string {
	return fmt.Sprintf("initcall #%d '%s' failed: %v", err.Index, err.Name, err.Err)
}

func (err *StepError) Unwrap() error {
	return err.Err
}

// Watchdog is kicked between steps.
type Watchdog interface {
	Reset()
}

// Observer is notified around each step.
type Observer interface {
	Before(index int, step Step)
	After(index int, step Step, err error)
}

type config struct {
	watchdog  Watchdog
	observers []Observer
}

// Option configures Run.
type Option func(*config)

// WithWatchdog kicks wd before every step.
func WithWatchdog(wd Watchdog) Option {
	return func(c *config) {
		c.watchdog = wd
	}
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observers = append(c.observers, o)
	}
}

// Run executes the steps in order. The first failing step stops the run
// and is returned as *StepError; no later step is executed and nothing is
// rolled back.
func Run(seq Sequence, opts ...Option) error {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	for idx, step := range seq {
		if cfg.watchdog != nil {
			cfg.watchdog.Reset()
		}
		for _, o := range cfg.observers {
			o.Before(idx, step)
		}
		err := step.Func()
		for _, o := range cfg.observers {
			o.After(idx, step, err)
		}
		if err != nil {
			return &StepError{Index: idx, Name: step.Name, Err: err}
		}
	}
	return nil
}

// FuncName derives a step name from the Go function name, for example
// "(*Board).reserveUboot-fm" becomes "reserve_uboot".
func FuncName(fn interface{}) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "<nil>"
	}
	full := runtime.FuncForPC(v.Pointer()).Name()
	name := full[strings.LastIndexByte(full, '.')+1:]
	name = strings.TrimSuffix(name, "-fm")

	parts := camelcase.Split(name)
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	return strings.Join(parts, "_")
}
