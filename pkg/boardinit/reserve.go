// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boardinit

import (
	"fmt"

	"github.com/linuxboot/mxsboot/pkg/fdt"
	"github.com/linuxboot/mxsboot/pkg/global"
	"github.com/linuxboot/mxsboot/pkg/layout"
)

// Region names in the layout map.
const (
	RegionPRAM       = "pram"
	RegionTLB        = "tlb"
	RegionTrace      = "trace"
	RegionUBoot      = "u-boot"
	RegionMalloc     = "malloc"
	RegionBoardInfo  = "board_info"
	RegionGlobalData = "global_data"
	RegionFDT        = "fdt"
	RegionStack      = "stack"
	RegionArchStacks = "arch_stacks"
)

// reserve moves the cursor held in *field down by size and aligns it. The
// region is recorded in the map unless it is empty.
func (b *Board) reserve(field *uint64, name string, size, align uint64) error {
	from := layout.Cursor{Addr: *field, Floor: b.floor}
	to, err := from.Reserve(size, align)
	if err != nil {
		return fmt.Errorf("reserving %s: %w", name, err)
	}
	*field = to.Addr
	if size != 0 {
		b.Map.Add(name, from, to, size, align)
	}
	b.debugf("Reserving %d bytes for %s at: %08x", size, name, to.Addr)
	return nil
}

func (b *Board) reservePRAM() error {
	kib := b.Env.GetULong("pram", 10, b.Target.PRAMKiB)
	return b.reserve(&b.GD.RelocAddr, RegionPRAM, kib<<10, 1)
}

func (b *Board) reserveRound4K() error {
	to, err := layout.Cursor{Addr: b.GD.RelocAddr, Floor: b.floor}.Align(layout.Align4K)
	if err != nil {
		return err
	}
	b.GD.RelocAddr = to.Addr
	return nil
}

func (b *Board) reserveMMU() error {
	b.GD.Arch.TLBSize = b.Target.PgtableSize
	if err := b.reserve(&b.GD.RelocAddr, RegionTLB, b.GD.Arch.TLBSize, layout.Align64K); err != nil {
		return err
	}
	b.GD.Arch.TLBAddr = b.GD.RelocAddr
	b.debugf("TLB table from %08x to %08x", b.GD.Arch.TLBAddr, b.GD.Arch.TLBAddr+b.GD.Arch.TLBSize)
	return nil
}

func (b *Board) reserveTrace() error {
	return b.reserve(&b.GD.RelocAddr, RegionTrace, b.Target.TraceSize, 1)
}

func (b *Board) reserveUboot() error {
	if err := b.reserve(&b.GD.RelocAddr, RegionUBoot, b.GD.MonLen, layout.Align4K); err != nil {
		return err
	}
	b.GD.StartAddrSP = b.GD.RelocAddr
	return nil
}

func (b *Board) reserveMalloc() error {
	return b.reserve(&b.GD.StartAddrSP, RegionMalloc, b.Target.MallocLen, 1)
}

func (b *Board) reserveBoard() error {
	if b.GD.BD != 0 {
		return b.LoadBoardInfo()
	}
	if err := b.reserve(&b.GD.StartAddrSP, RegionBoardInfo, global.BoardInfoSize, 1); err != nil {
		return err
	}
	b.GD.BD = b.GD.StartAddrSP
	if err := b.Mem.Zero(b.GD.BD, global.BoardInfoSize); err != nil {
		return err
	}
	b.BD = &global.BoardInfo{}
	return nil
}

func (b *Board) setupMachine() error {
	if b.BD == nil {
		return ErrNoBoardInfo
	}
	b.BD.ArchNumber = b.Target.MachType
	return b.StoreBoardInfo()
}

func (b *Board) reserveGlobalData() error {
	if err := b.reserve(&b.GD.StartAddrSP, RegionGlobalData, global.DataSize, 1); err != nil {
		return err
	}
	b.GD.NewGD = b.GD.StartAddrSP
	return nil
}

func (b *Board) reserveFDT() error {
	if b.GD.FDTBlob == 0 {
		return nil
	}
	total, err := fdt.TotalSize(b.Mem, b.GD.FDTBlob)
	if err != nil {
		return err
	}
	b.GD.FDTSize = fdt.ReserveSize(total)
	if err := b.reserve(&b.GD.StartAddrSP, RegionFDT, b.GD.FDTSize, 1); err != nil {
		return err
	}
	b.GD.NewFDT = b.GD.StartAddrSP
	return nil
}

func (b *Board) reserveStacks() error {
	if err := b.reserve(&b.GD.StartAddrSP, RegionStack, 16, layout.Align16); err != nil {
		return err
	}

	before := b.GD.StartAddrSP
	if err := b.Platform.ArchReserveStacks(b); err != nil {
		return err
	}
	after := b.GD.StartAddrSP
	switch {
	case after > before:
		return fmt.Errorf("architecture stacks moved the stack up from %08x to %08x", before, after)
	case after < b.floor:
		return fmt.Errorf("reserving %s: %w", RegionArchStacks, layout.ErrUnderflow)
	case after < before:
		b.Map.Add(RegionArchStacks, layout.Cursor{Addr: before, Floor: b.floor}, layout.Cursor{Addr: after, Floor: b.floor}, before-after, 1)
	}
	return nil
}
