// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boardinit

import (
	"fmt"

	"github.com/linuxboot/mxsboot/pkg/arm"
	"github.com/linuxboot/mxsboot/pkg/bootstage"
	"github.com/linuxboot/mxsboot/pkg/env"
	"github.com/linuxboot/mxsboot/pkg/global"
	"github.com/linuxboot/mxsboot/pkg/initcall"
)

// SequenceR returns the post-relocation init sequence.
func (b *Board) SequenceR() initcall.Sequence {
	f := b.Target.Features
	_, hasJT := b.Image.Symbol(arm.SymJumpTable)

	return initcall.NewBuilder().
		AddFunc(b.initrReloc).
		AddIf(hasJT, "", b.initrJumptable).
		AddIf(!f.SPL, "", b.initrMalloc).
		AddFunc(b.initrEnv).
		AddIf(f.ArchMiscInit, "", b.archMiscInit).
		AddFunc(b.boardInit).
		AddFunc(b.initrAnnounce).
		Build()
}

// InitR continues the boot in the relocated image. gd is the relocated
// context and sp the new stack pointer. It has the signature of
// arm.ResumeFunc.
func (b *Board) InitR(gd *global.Data, sp uint64) error {
	b.resumed = true
	gd.DRAM = append([]global.Bank(nil), b.GD.DRAM...)
	b.GD = gd
	b.SP = sp

	if err := b.run(b.SequenceR()); err != nil {
		b.halt(err)
		return err
	}
	if err := b.StoreGlobalData(); err != nil {
		b.halt(err)
		return err
	}
	return nil
}

func (b *Board) initrReloc() error {
	if b.GD.Flags&global.FlagReloc == 0 {
		return ErrNotRelocated
	}
	b.GD.Flags |= global.FlagFullMallocInit
	b.Stages.Mark(bootstage.IDStartUBootR, "board_init_r")
	return nil
}

func (b *Board) initrJumptable() error {
	addr, _ := b.Image.Symbol(arm.SymJumpTable)
	b.GD.JT = (addr + b.GD.RelocOff) & global.WordMask
	return nil
}

func (b *Board) initrMalloc() error {
	b.GD.MallocBase = b.GD.RelocAddr - b.Target.MallocLen
	b.GD.MallocLimit = b.Target.MallocLen
	b.GD.MallocPtr = 0
	b.debugf("malloc arena at %08x, 0x%x bytes", b.GD.MallocBase, b.GD.MallocLimit)
	return nil
}

// initrEnv checks that the environment moved with the image. With no
// stored environment the defaults stay in use and a warning is printed.
func (b *Board) initrEnv() error {
	if b.GD.EnvValid == 0 {
		b.Console.Puts(msgBadEnv)
	} else {
		raw, err := b.Mem.Read(b.GD.EnvAddr-env.HeaderSize, b.Target.EnvSize)
		if err != nil {
			return err
		}
		e, err := env.Parse(raw)
		if err != nil {
			return fmt.Errorf("relocated environment: %w", err)
		}
		b.Env = e
	}
	b.GD.Flags |= global.FlagEnvReady
	return nil
}

func (b *Board) archMiscInit() error {
	return b.Platform.ArchMiscInit(b)
}

func (b *Board) boardInit() error {
	return b.Platform.BoardInit(b)
}

func (b *Board) initrAnnounce() error {
	b.Stages.Mark(bootstage.IDMainLoop, "main_loop")
	b.Console.Printf("Relocated to %08x (offset %08x), stack at %08x\n", b.GD.RelocAddr, b.GD.RelocOff, b.SP)
	return nil
}
