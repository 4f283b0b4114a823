// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boardinit

import (
	"time"

	"github.com/linuxboot/mxsboot/pkg/serial"
)

// HangMessage is printed when the boot cannot continue.
const HangMessage = "### ERROR ### Please RESET the board ###\n"

// Halter stops the boot after a fatal error. Halt does not return.
type Halter interface {
	Halt(err error)
}

// HaltFunc adapts a function to Halter.
type HaltFunc func(err error)

// Halt implements Halter.
func (f HaltFunc) Halt(err error) {
	f(err)
}

// Hang asks for a reset on the console and stops forever.
type Hang struct {
	Console *serial.Console
}

// Halt implements Halter.
func (h *Hang) Halt(error) {
	if h.Console != nil {
		h.Console.Puts(HangMessage)
	}
	for {
		time.Sleep(time.Hour)
	}
}
