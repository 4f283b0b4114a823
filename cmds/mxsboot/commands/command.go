// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

// Command is a verb of mxsboot ("boot", "layout" or "bdinfo").
type Command interface {
	flags.Commander

	// ShortDescription explains what this command does in one line
	ShortDescription() string

	// LongDescription explains what this verb does (without limitation in amount of lines)
	LongDescription() string
}

// ErrArgs is returned when the command line of a verb is invalid.
type ErrArgs struct {
	Err error
}

func (err ErrArgs) Error() string {
	return fmt.Sprintf("invalid arguments: %v", err.Err)
}

func (err ErrArgs) Unwrap() error {
	return err.Err
}

// Stdout returns w, or os.Stdout if w is nil.
func Stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
