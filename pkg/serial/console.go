// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package serial

import (
	"fmt"
)

// Device is a character output device.
type Device interface {
	Puts(s string) error
}

// Console routes early messages to the serial device. Output written
// before the console is enabled is discarded, as there is nowhere to put
// it yet.
type Console struct {
	Dev     Device
	enabled bool
}

// Enable starts forwarding output to the device.
func (c *Console) Enable() {
	c.enabled = c.Dev != nil
}

// Enabled reports whether output reaches the device.
func (c *Console) Enabled() bool {
	return c.enabled
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	if !c.enabled {
		return len(p), nil
	}
	if err := c.Dev.Puts(string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Printf formats to the console.
func (c *Console) Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c, format, args...)
}

// Puts writes s to the console.
func (c *Console) Puts(s string) {
	_, _ = c.Write([]byte(s))
}
