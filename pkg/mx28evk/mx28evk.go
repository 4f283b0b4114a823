// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mx28evk is the Freescale i.MX28 Evaluation Kit: an i.MX28 SoC
// with 128 MiB of DDR2, a NAND flash on the GPMI controller and the debug
// UART as console.
package mx28evk

import (
	"fmt"
	"io"

	"github.com/linuxboot/mxsboot/pkg/arm"
	"github.com/linuxboot/mxsboot/pkg/boardinit"
	"github.com/linuxboot/mxsboot/pkg/config"
	"github.com/linuxboot/mxsboot/pkg/env"
	"github.com/linuxboot/mxsboot/pkg/global"
	"github.com/linuxboot/mxsboot/pkg/mxs"
)

// Size of the default image.
const (
	ImageCodeSize = 0xb0000
	ImageBSSSize  = 0x6a10
)

// bootParamsOffset is where the kernel finds its ATAGs.
const bootParamsOffset = 0x100

// Clock setup done before the console comes up, in kHz.
const (
	ioClockKHz   = 480000
	ssp0ClockKHz = 96000
	ssp2ClockKHz = 160000
)

// GPMIPads connect the NAND flash.
var GPMIPads = []mxs.Pad{
	{Name: "GPMI_D00", Bank: 0, Pin: 0, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_D01", Bank: 0, Pin: 1, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_D02", Bank: 0, Pin: 2, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_D03", Bank: 0, Pin: 3, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_D04", Bank: 0, Pin: 4, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_D05", Bank: 0, Pin: 5, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_D06", Bank: 0, Pin: 6, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_D07", Bank: 0, Pin: 7, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_CE0N", Bank: 0, Pin: 16, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_CE1N", Bank: 0, Pin: 17, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_RDY0", Bank: 0, Pin: 20, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3, Pull: true},
	{Name: "GPMI_RDY1", Bank: 0, Pin: 21, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3, Pull: true},
	{Name: "GPMI_RDN", Bank: 0, Pin: 24, Drive: mxs.Drive12mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_WRN", Bank: 0, Pin: 25, Drive: mxs.Drive12mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_ALE", Bank: 0, Pin: 26, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_CLE", Bank: 0, Pin: 27, Drive: mxs.Drive4mA, Voltage: mxs.Voltage3V3},
	{Name: "GPMI_RESETN", Bank: 0, Pin: 28, Drive: mxs.Drive12mA, Voltage: mxs.Voltage3V3},
}

// Options describe the state the first stage loader leaves behind.
type Options struct {
	// Target defaults to config.Default().
	Target *config.Target
	// Image defaults to a synthetic image carrying the default
	// environment.
	Image *arm.Image
	// Output receives the console output.
	Output io.Writer

	// Revision is the silicon revision.
	Revision uint8
	// BootModeIdx indexes mxs.BootModes.
	BootModeIdx uint8
	// DRAMMiB is the DRAM size the first stage loader reports. Zero
	// means the size the target expects.
	DRAMMiB uint64
	// FDT is loaded at Target.FDTAddr.
	FDT []byte
	// Fuses is the CUST0 fuse word holding the MAC address.
	Fuses uint32
}

// Board is a booting MX28EVK.
type Board struct {
	*boardinit.Board
	SoC *mxs.SoC
}

type platform struct {
	boardinit.Weak
	soc *mxs.SoC
}

var _ boardinit.Platform = (*platform)(nil)

// DefaultImage returns a synthetic image linked for t which carries t's
// default environment.
func DefaultImage(t *config.Target) (*arm.Image, error) {
	image, err := env.New(t.DefaultEnv).Encode(int(t.EnvSize))
	if err != nil {
		return nil, err
	}
	return arm.SyntheticImage(t.TextBase, ImageCodeSize, ImageBSSSize, image)
}

// New powers up a board: memory and SoC in their reset state, plus the
// image, DRAM descriptor and hand-off record written by the first stage
// loader.
func New(opts Options) (*Board, error) {
	t := opts.Target
	if t == nil {
		t = config.Default()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	img := opts.Image
	if img == nil {
		var err error
		if img, err = DefaultImage(t); err != nil {
			return nil, err
		}
	}
	out := opts.Output
	if out == nil {
		out = io.Discard
	}

	mem, err := boardinit.NewMemory(t)
	if err != nil {
		return nil, err
	}
	rev := opts.Revision
	if rev == 0 {
		rev = 1
	}
	soc := mxs.New(mem, mxs.ChipMX28, rev)
	soc.SetFuses(opts.Fuses)

	dramMiB := opts.DRAMMiB
	if dramMiB == 0 {
		dramMiB = t.DRAMSizeMiB
	}
	if err := soc.WriteDescriptor(mxs.DescriptorAddr, dramMiB); err != nil {
		return nil, fmt.Errorf("unable to store the DRAM descriptor: %w", err)
	}
	spl := mxs.SPLData{BootModeIdx: opts.BootModeIdx, MemDRAMSize: uint32(dramMiB << 20)}
	if err := soc.WriteSPLData(t.TextBase, spl); err != nil {
		return nil, fmt.Errorf("unable to store the SPL data: %w", err)
	}
	if len(opts.FDT) != 0 {
		if t.FDTAddr == 0 {
			return nil, fmt.Errorf("target %s has no device tree address", t.Name)
		}
		if _, err := mem.WriteAt(opts.FDT, int64(t.FDTAddr)); err != nil {
			return nil, fmt.Errorf("unable to load the device tree: %w", err)
		}
	}

	b, err := boardinit.New(t, &platform{soc: soc}, mem, img, out)
	if err != nil {
		return nil, err
	}
	b.Watchdog = soc.Watchdog()
	return &Board{Board: b, SoC: soc}, nil
}

func (p *platform) ArchCPUInit(b *boardinit.Board) error {
	return p.soc.ArchCPUInit(b.Image.TextBase)
}

func (p *platform) BoardEarlyInitF(*boardinit.Board) error {
	for _, clk := range []mxs.IOClock{mxs.IOClk0, mxs.IOClk1} {
		if err := p.soc.SetIOClock(clk, ioClockKHz); err != nil {
			return err
		}
	}
	if err := p.soc.SetSSPClock(mxs.SSPClk0, ssp0ClockKHz, false); err != nil {
		return err
	}
	if err := p.soc.SetSSPClock(mxs.SSPClk2, ssp2ClockKHz, false); err != nil {
		return err
	}
	return p.soc.SetupPads(GPMIPads)
}

func (p *platform) TimerInit(b *boardinit.Board) error {
	b.GD.Arch.TimerRateHz = p.soc.TimerInit()
	b.GD.Arch.TimerResetValue = 0
	b.GD.Arch.LastInc = 0
	b.GD.CPUClk = p.soc.CPUClock()
	b.GD.BusClk = p.soc.BusClock()
	b.GD.MemClk = p.soc.MemClock()
	b.Stages.Timer = p.soc
	return nil
}

func (p *platform) PrintCPUInfo(b *boardinit.Board) error {
	return p.soc.PrintCPUInfo(b.Console, b.Target.TextBase)
}

func (p *platform) DRAMInit(b *boardinit.Board) error {
	size, err := p.soc.DRAMInit(b.Target.DRAMSizeMiB)
	if err != nil {
		return err
	}
	b.GD.RAMSize = size
	b.GD.DRAM = []global.Bank{{Start: b.Target.SDRAM.Base, Size: size}}
	return nil
}

func (p *platform) ArchReserveStacks(b *boardinit.Board) error {
	return arm.ReserveStacks(b.GD, b.Target.Features.SPL, b.Target.IRQStackSize)
}

// ArchMiscInit points the exception vectors at the relocated image.
func (p *platform) ArchMiscInit(b *boardinit.Board) error {
	return p.soc.FixupVT(b.GD.RelocAddr)
}

func (p *platform) BoardInit(b *boardinit.Board) error {
	if b.BD == nil {
		return boardinit.ErrNoBoardInfo
	}
	b.BD.BootParams = b.Target.SDRAM.Base + bootParamsOffset
	mac, err := p.soc.MACFromFuse(0)
	if err != nil {
		b.Logger.Warnf("%v", err)
	} else {
		b.BD.EnetAddr = mac
	}
	return b.StoreBoardInfo()
}
