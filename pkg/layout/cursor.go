// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layout implements the top-down reservation discipline used to
// carve the relocation destination out of the end of DRAM.
package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrUnderflow means a reservation would move the cursor below the
	// floor of the usable range.
	ErrUnderflow = errors.New("reservation underflows the usable range")

	// ErrBadAlignment means the requested alignment is not a power of two.
	ErrBadAlignment = errors.New("alignment is not a power of two")
)

// ErrReserve describes a failed reservation.
type ErrReserve struct {
	Cursor Cursor
	Size   uint64
	Align  uint64
	Err    error
}

func (err *ErrReserve) Error() string {
	return fmt.Sprintf("cannot reserve 0x%x bytes (align 0x%x) below 0x%08x (floor 0x%08x): %v",
		err.Size, err.Align, err.Cursor.Addr, err.Cursor.Floor, err.Err)
}

func (err *ErrReserve) Unwrap() error {
	return err.Err
}

// Cursor is a descending allocation boundary: everything at or above Addr
// is reserved, everything in [Floor, Addr) is still free.
type Cursor struct {
	Addr  uint64
	Floor uint64
}

// Remaining returns the number of free bytes below the cursor.
func (c Cursor) Remaining() uint64 {
	if c.Addr < c.Floor {
		return 0
	}
	return c.Addr - c.Floor
}

// Reserve subtracts size from the cursor and then aligns the result down.
// The returned cursor's Addr is the base of the reserved region.
func (c Cursor) Reserve(size, align uint64) (Cursor, error) {
	if !IsPowerOfTwo(align) {
		return c, &ErrReserve{Cursor: c, Size: size, Align: align, Err: ErrBadAlignment}
	}
	if size > c.Remaining() {
		return c, &ErrReserve{Cursor: c, Size: size, Align: align, Err: ErrUnderflow}
	}
	next := AlignDown(c.Addr-size, align)
	if next < c.Floor {
		return c, &ErrReserve{Cursor: c, Size: size, Align: align, Err: ErrUnderflow}
	}
	return Cursor{Addr: next, Floor: c.Floor}, nil
}

// Align rounds the cursor down without reserving anything.
func (c Cursor) Align(align uint64) (Cursor, error) {
	return c.Reserve(0, align)
}
