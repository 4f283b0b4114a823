// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package serial implements the MX28 debug UART (an AMBA PL011 cell) and
// the early console on top of it.
package serial

import (
	"context"
	"fmt"
	"io"
)

// Base is the MMIO base of the debug UART on i.MX28.
const Base = 0x80074000

// DriverName is the name the debug UART registers its console under.
const DriverName = "mx28_dbg_serial"

// Register offsets.
const (
	RegDR   = 0x00
	RegFR   = 0x18
	RegIBRD = 0x24
	RegFBRD = 0x28
	RegLCRH = 0x2c
	RegCR   = 0x30
	RegIMSC = 0x38
)

// Register bits.
const (
	FRBusy = 0x08
	FRRXFE = 0x10
	FRTXFF = 0x20
	FRTXFE = 0x80

	LCRHFEN   = 0x10
	LCRHWLen8 = 0x60

	CRUARTEN = 0x001
	CRTXE    = 0x100
	CRRXE    = 0x200
)

const rxDepth = 64

// UART is a simulated PL011. Transmitted bytes go to the attached writer,
// received bytes are queued with Feed.
type UART struct {
	Clock uint64

	regs map[uint32]uint32
	tx   io.Writer
	rx   chan byte
}

// NewUART returns a disabled UART clocked at clock Hz, transmitting to tx.
func NewUART(clock uint64, tx io.Writer) *UART {
	return &UART{
		Clock: clock,
		regs:  map[uint32]uint32{RegFR: FRRXFE | FRTXFE},
		tx:    tx,
		rx:    make(chan byte, rxDepth),
	}
}

// Reg returns a register value.
func (u *UART) Reg(off uint32) uint32 {
	return u.regs[off]
}

// SetBRG programs the baud rate generator and line control. The divisor
// is clock/(16*baud) in 16.6 fixed point. The UART is disabled while the
// divisor changes.
func (u *UART) SetBRG(baud uint64) error {
	if baud == 0 {
		return fmt.Errorf("invalid baud rate %d", baud)
	}
	quot := u.Clock * 4 / baud
	if quot>>6 == 0 || quot>>6 > 0xffff {
		return fmt.Errorf("baud rate %d unreachable from a %d Hz clock", baud, u.Clock)
	}
	cr := u.regs[RegCR]
	u.regs[RegCR] = 0
	u.regs[RegFBRD] = uint32(quot & 0x3f)
	u.regs[RegIBRD] = uint32(quot >> 6)
	u.regs[RegLCRH] = LCRHWLen8 | LCRHFEN
	u.regs[RegCR] = cr
	return nil
}

// Baudrate returns the baud rate the divisor registers currently produce.
func (u *UART) Baudrate() uint64 {
	quot := uint64(u.regs[RegIBRD])<<6 | uint64(u.regs[RegFBRD])
	if quot == 0 {
		return 0
	}
	return u.Clock * 4 / quot
}

// Init disables the UART and its interrupts, programs the divisor and
// enables transmitter and receiver.
func (u *UART) Init(baud uint64) error {
	u.regs[RegCR] = 0
	u.regs[RegIMSC] = 0
	if err := u.SetBRG(baud); err != nil {
		return err
	}
	u.regs[RegCR] = CRUARTEN | CRTXE | CRRXE
	return nil
}

func (u *UART) enabled(bit uint32) bool {
	cr := u.regs[RegCR]
	return cr&CRUARTEN != 0 && cr&bit != 0
}

// Putc transmits one character. A newline is preceded by a carriage
// return.
func (u *UART) Putc(c byte) error {
	if !u.enabled(CRTXE) {
		return fmt.Errorf("transmitter is disabled")
	}
	buf := []byte{c}
	if c == '\n' {
		buf = []byte{'\r', c}
	}
	_, err := u.tx.Write(buf)
	return err
}

// Puts transmits a string.
func (u *UART) Puts(s string) error {
	for i := 0; i < len(s); i++ {
		if err := u.Putc(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Feed queues received bytes. Bytes beyond the FIFO depth are dropped.
func (u *UART) Feed(b []byte) int {
	n := 0
	for _, c := range b {
		select {
		case u.rx <- c:
			n++
		default:
			return n
		}
	}
	return n
}

// Tstc reports whether a received character is pending.
func (u *UART) Tstc() bool {
	return u.enabled(CRRXE) && len(u.rx) > 0
}

// Getc waits for a received character.
func (u *UART) Getc(ctx context.Context) (byte, error) {
	if !u.enabled(CRRXE) {
		return 0, fmt.Errorf("receiver is disabled")
	}
	select {
	case c := <-u.rx:
		return c, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
