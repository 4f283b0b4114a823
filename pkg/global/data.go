// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package global holds the bootstrap context ("global data") and the board
// information record handed to later boot stages, together with their
// fixed 32-bit in-memory layouts.
package global

import (
	"strings"

	"github.com/linuxboot/mxsboot/pkg/bytes"
)

// Flags are the global data flags (GD_FLG_*).
type Flags uint32

// Global data flags.
const (
	FlagReloc          Flags = 0x00001
	FlagDevInit        Flags = 0x00002
	FlagSilent         Flags = 0x00004
	FlagPostFail       Flags = 0x00008
	FlagPostStop       Flags = 0x00010
	FlagLogInit        Flags = 0x00020
	FlagDisableConsole Flags = 0x00040
	FlagEnvReady       Flags = 0x00080
	FlagSerialReady    Flags = 0x00100
	FlagFullMallocInit Flags = 0x00200
	FlagSPLInit        Flags = 0x00400
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagReloc, "RELOC"},
	{FlagDevInit, "DEVINIT"},
	{FlagSilent, "SILENT"},
	{FlagPostFail, "POSTFAIL"},
	{FlagPostStop, "POSTSTOP"},
	{FlagLogInit, "LOGINIT"},
	{FlagDisableConsole, "DISABLE_CONSOLE"},
	{FlagEnvReady, "ENV_READY"},
	{FlagSerialReady, "SERIAL_READY"},
	{FlagFullMallocInit, "FULL_MALLOC_INIT"},
	{FlagSPLInit, "SPL_INIT"},
}

func (f Flags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

// WordMask truncates a value to the 32-bit platform word.
const WordMask = 0xffffffff

// Bank is one DRAM bank.
type Bank struct {
	Start uint64
	Size  uint64
}

// Arch is the ARM specific part of the global data.
type Arch struct {
	TimerRateHz     uint64
	TBU             uint64
	TBL             uint64
	LastInc         uint64
	TimerResetValue uint64
	TLBAddr         uint64
	TLBSize         uint64
}

// Data is the bootstrap context. A single instance is threaded through
// every init step and is copied wholesale into its relocated home right
// before relocation.
type Data struct {
	BD          uint64
	Flags       Flags
	Baudrate    uint64
	CPUClk      uint64
	BusClk      uint64
	PCIClk      uint64
	MemClk      uint64
	HaveConsole bool
	EnvAddr     uint64
	EnvValid    uint32
	RAMTop      uint64
	RelocAddr   uint64
	RAMSize     uint64
	MonLen      uint64
	IRQSP       uint64
	StartAddrSP uint64
	// RelocOff is computed modulo the word size.
	RelocOff    uint64
	NewGD       uint64
	FDTBlob     uint64
	NewFDT      uint64
	FDTSize     uint64
	JT          uint64
	EnvBuf      [32]byte
	Timebase    uint64
	MallocBase  uint64
	MallocLimit uint64
	MallocPtr   uint64
	Arch        Arch
	// CurSerialDev points to the serial driver descriptor, which lives in
	// the image's data section.
	CurSerialDev uint64
	EnvHasInit   uint32

	// DRAM is the bank geometry reported by DRAM detection. It is not part
	// of the in-memory layout and does not survive relocation; it is
	// published through the board info instead.
	DRAM []Bank
}

// New returns a zeroed context.
func New() *Data {
	return &Data{}
}

// Clone returns a deep copy of the context.
func (d *Data) Clone() *Data {
	c := *d
	c.DRAM = append([]Bank(nil), d.DRAM...)
	return &c
}

// imagePointers are the fields which may point into the running image and
// therefore move with it.
func (d *Data) imagePointers() []*uint64 {
	return []*uint64{&d.JT, &d.CurSerialDev, &d.FDTBlob, &d.EnvAddr}
}

// RelocatePointers adds off to every position-dependent field whose value
// lies inside image.
func (d *Data) RelocatePointers(image bytes.Range, off uint64) {
	for _, p := range d.imagePointers() {
		if *p != 0 && image.Length != 0 && (bytes.Ranges{image}).IsIn(*p) {
			*p = (*p + off) & WordMask
		}
	}
}
