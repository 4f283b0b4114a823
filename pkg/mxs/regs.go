// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mxs implements the i.MX23/i.MX28 (MXS) SoC services used during
// early boot: clocks, pad muxing, the exception vector jump table, CPU
// identification, DRAM size detection, the RTC watchdog and the OCOTP
// fuses. Peripheral registers are simulated.
package mxs

import (
	"fmt"
	"sort"
)

// Block base addresses.
const (
	APBHBase    = 0x80004000
	PinctrlBase = 0x80018000
	DigctlBase  = 0x8001c000
	OCOTPBase   = 0x8002c000
	LCDIFBase   = 0x80030000
	ClkctrlBase = 0x80040000
	RTCBase     = 0x80056000
	TimrotBase  = 0x80068000
)

// Offsets of the SET, CLR and TOG aliases of every MXS register.
const (
	OffSet = 0x4
	OffClr = 0x8
	OffTog = 0xc
)

// Regs is a simulated MXS register file. Writes to the SET, CLR and TOG
// aliases of a register modify the register itself.
type Regs struct {
	m map[uint64]uint32
}

// NewRegs returns an all-zero register file.
func NewRegs() *Regs {
	return &Regs{m: map[uint64]uint32{}}
}

// Read returns the value of a register.
func (r *Regs) Read(addr uint64) uint32 {
	return r.m[addr&^0xf]
}

// Write writes a register or one of its aliases.
func (r *Regs) Write(addr uint64, v uint32) {
	base := addr &^ 0xf
	switch addr & 0xf {
	case OffSet:
		r.m[base] |= v
	case OffClr:
		r.m[base] &^= v
	case OffTog:
		r.m[base] ^= v
	default:
		r.m[base] = v
	}
}

// ClrSet clears clr and then sets set in a register.
func (r *Regs) ClrSet(addr uint64, clr, set uint32) {
	r.m[addr&^0xf] = r.m[addr&^0xf]&^clr | set
}

// Dump returns the non-zero registers sorted by address.
func (r *Regs) Dump() []string {
	addrs := make([]uint64, 0, len(r.m))
	for a, v := range r.m {
		if v != 0 {
			addrs = append(addrs, a)
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, fmt.Sprintf("0x%08x: 0x%08x", a, r.m[a]))
	}
	return out
}
