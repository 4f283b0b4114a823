// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boardinit

import (
	"github.com/linuxboot/mxsboot/pkg/arm"
	"github.com/linuxboot/mxsboot/pkg/global"
)

// Platform is the set of SoC and board hooks called by the init
// sequences. Boards embed Weak and override what they need.
type Platform interface {
	// ArchCPUInit does the basic CPU setup right after the image starts.
	ArchCPUInit(b *Board) error
	// BoardEarlyInitF sets up clocks and pads needed before the console.
	BoardEarlyInitF(b *Board) error
	// TimerInit starts the time base.
	TimerInit(b *Board) error
	// SerialInit starts the console device at gd.Baudrate.
	SerialInit(b *Board) error
	// PrintCPUInfo prints the CPU type and speed.
	PrintCPUInfo(b *Board) error
	// DRAMInit detects DRAM and sets gd.RAMSize and gd.DRAM.
	DRAMInit(b *Board) error
	// UsableRAMTop returns the highest address the boot loader may use.
	UsableRAMTop(b *Board, totalSize uint64) uint64
	// DRAMInitBanksize publishes the DRAM banks in the board info.
	DRAMInitBanksize(b *Board) error
	// ArchReserveStacks carves out architecture specific stacks below
	// gd.StartAddrSP and sets gd.IRQSP.
	ArchReserveStacks(b *Board) error
	// ArchMiscInit runs after relocation.
	ArchMiscInit(b *Board) error
	// BoardInit is the board setup after relocation.
	BoardInit(b *Board) error
}

// Weak implements every Platform hook with the generic behavior.
type Weak struct{}

var _ Platform = Weak{}

// ArchCPUInit implements Platform.
func (Weak) ArchCPUInit(*Board) error { return nil }

// BoardEarlyInitF implements Platform.
func (Weak) BoardEarlyInitF(*Board) error { return nil }

// TimerInit implements Platform.
func (Weak) TimerInit(*Board) error { return nil }

// SerialInit starts the default serial console and records its driver.
func (Weak) SerialInit(b *Board) error {
	if err := b.Serial.Init(b.GD.Baudrate); err != nil {
		return err
	}
	b.GD.Flags |= global.FlagSerialReady
	if addr, ok := b.Image.Symbol(arm.SymSerialDev); ok {
		b.GD.CurSerialDev = addr
	}
	return nil
}

// PrintCPUInfo implements Platform.
func (Weak) PrintCPUInfo(*Board) error { return nil }

// DRAMInit assumes the whole SDRAM window is populated.
func (Weak) DRAMInit(b *Board) error {
	b.GD.RAMSize = b.Target.SDRAM.Size
	b.GD.DRAM = []global.Bank{{Start: b.Target.SDRAM.Base, Size: b.Target.SDRAM.Size}}
	return nil
}

// UsableRAMTop clips RAM which reaches past the 32-bit address space.
func (Weak) UsableRAMTop(b *Board, _ uint64) uint64 {
	if b.GD.RAMTop > global.WordMask+1 {
		return global.WordMask + 1
	}
	return b.GD.RAMTop
}

// DRAMInitBanksize describes a single bank covering the effective memory.
func (Weak) DRAMInitBanksize(b *Board) error {
	if b.BD == nil {
		return ErrNoBoardInfo
	}
	b.BD.DRAM[0] = global.Bank{Start: b.Target.SDRAM.Base, Size: b.EffectiveMemsize()}
	return b.StoreBoardInfo()
}

// ArchReserveStacks implements Platform.
func (Weak) ArchReserveStacks(*Board) error { return nil }

// ArchMiscInit implements Platform.
func (Weak) ArchMiscInit(*Board) error { return nil }

// BoardInit implements Platform.
func (Weak) BoardInit(*Board) error { return nil }
