// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package boardinit implements the boot loader's two init sequences: the
// pre-relocation sequence (board_init_f), which brings up the console and
// DRAM and carves the final memory layout out of the top of DRAM, and the
// post-relocation sequence (board_init_r). Between the two the image is
// relocated into the layout.
package boardinit

import (
	"errors"
	"fmt"
	"io"

	"github.com/linuxboot/mxsboot/pkg/arm"
	"github.com/linuxboot/mxsboot/pkg/bootstage"
	"github.com/linuxboot/mxsboot/pkg/bytes"
	"github.com/linuxboot/mxsboot/pkg/config"
	"github.com/linuxboot/mxsboot/pkg/env"
	"github.com/linuxboot/mxsboot/pkg/global"
	"github.com/linuxboot/mxsboot/pkg/layout"
	"github.com/linuxboot/mxsboot/pkg/log"
	"github.com/linuxboot/mxsboot/pkg/physmem"
	"github.com/linuxboot/mxsboot/pkg/serial"
)

var (
	// ErrNoBoardInfo means a step needs the board info before it was
	// reserved.
	ErrNoBoardInfo = errors.New("board info is not reserved")

	// ErrNotRelocated means the post-relocation sequence was entered with
	// a context that was not relocated.
	ErrNotRelocated = errors.New("global data is not relocated")
)

// Relocator moves the image into its final place and continues the boot
// there. On hardware it never returns.
type Relocator interface {
	RelocateCode(newSP, newGD, dest uint64) error
}

// Watchdog is a hardware watchdog.
type Watchdog interface {
	Start()
	Reset()
}

// Board is one boot of a board: the target description, the simulated
// hardware and the state threaded through the init steps.
type Board struct {
	Target   *config.Target
	Platform Platform
	Mem      *physmem.Memory
	Image    *arm.Image

	GD     *global.Data
	BD     *global.BoardInfo
	Map    *layout.Map
	Env    *env.Env
	Stages *bootstage.Stages

	Serial    *serial.UART
	Console   *serial.Console
	Watchdog  Watchdog
	Relocator Relocator
	Halter    Halter
	Logger    log.Logger

	// SP is the stack pointer after relocation.
	SP uint64

	floor  uint64
	envErr error

	// resumed is set once the post-relocation sequence has started.
	resumed bool
}

// NewMemory returns the physical memory of a target: on-chip RAM (if
// any) and the SDRAM window.
func NewMemory(t *config.Target) (*physmem.Memory, error) {
	var banks []physmem.Bank
	if t.OCRAM.Size != 0 {
		banks = append(banks, physmem.Bank{Name: "ocram", Range: bytes.Range{Offset: t.OCRAM.Base, Length: t.OCRAM.Size}})
	}
	banks = append(banks, physmem.Bank{Name: "sdram", Range: bytes.Range{Offset: t.SDRAM.Base, Length: t.SDRAM.Size}})
	return physmem.New(banks...)
}

// New returns a board ready to boot img, which is loaded into mem at its
// link address. Console output goes to out.
func New(t *config.Target, p Platform, mem *physmem.Memory, img *arm.Image, out io.Writer) (*Board, error) {
	if img.TextBase != t.TextBase {
		return nil, fmt.Errorf("image is linked at 0x%08x, target expects 0x%08x", img.TextBase, t.TextBase)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := img.Load(mem); err != nil {
		return nil, err
	}

	uart := serial.NewUART(t.UARTClock, out)
	b := &Board{
		Target:   t,
		Platform: p,
		Mem:      mem,
		Image:    img,
		GD:       global.New(),
		Map:      &layout.Map{},
		Stages:   &bootstage.Stages{},
		Serial:   uart,
		Console:  &serial.Console{Dev: uart},
		Logger:   log.DefaultLogger,
		floor:    t.SDRAM.Base,
	}
	b.Halter = &Hang{Console: b.Console}
	b.Relocator = &arm.Relocator{
		Mem:    mem,
		Image:  img,
		Resume: b.InitR,
		Logger: b.Logger,
	}
	return b, nil
}

// EffectiveMemsize returns the amount of DRAM the boot loader uses.
func (b *Board) EffectiveMemsize() uint64 {
	return b.GD.RAMSize
}

// StoreBoardInfo writes the board info to its reserved region.
func (b *Board) StoreBoardInfo() error {
	if b.BD == nil || b.GD.BD == 0 {
		return ErrNoBoardInfo
	}
	raw, err := b.BD.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = b.Mem.WriteAt(raw, int64(b.GD.BD))
	return err
}

// LoadBoardInfo reads the board info from its reserved region.
func (b *Board) LoadBoardInfo() error {
	if b.GD.BD == 0 {
		return ErrNoBoardInfo
	}
	raw, err := b.Mem.Read(b.GD.BD, global.BoardInfoSize)
	if err != nil {
		return err
	}
	bd := &global.BoardInfo{}
	if err := bd.UnmarshalBinary(raw); err != nil {
		return err
	}
	b.BD = bd
	return nil
}

// StoreGlobalData writes the context to its relocated home.
func (b *Board) StoreGlobalData() error {
	if b.GD.NewGD == 0 {
		return errors.New("global data is not reserved")
	}
	raw, err := b.GD.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = b.Mem.WriteAt(raw, int64(b.GD.NewGD))
	return err
}

func (b *Board) debugf(format string, args ...interface{}) {
	if b.Logger != nil {
		b.Logger.Debugf(format, args...)
	}
}
