// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxs

import (
	"fmt"
	"time"

	"github.com/linuxboot/mxsboot/pkg/physmem"
)

// Vector table jump table.
const (
	// VectorTableAddr is where the exception vectors are fetched from.
	VectorTableAddr = 0x0
	// LdrPC encodes "ldr pc, [pc, #0x18]".
	LdrPC      = 0xe59ff018
	numVectors = 8
)

// APBH DMA and timer registers.
const (
	RegAPBHCtrl0     = APBHBase + 0x00
	RegTimrotCtrl0   = TimrotBase + 0x20
	RegTimrotFixed0  = TimrotBase + 0x40
	APBHCtrlSftrst   = 1 << 31
	APBHCtrlClkgate  = 1 << 30
	TimrotSelect1kHz = 0xb
	TimrotReload     = 1 << 6
	TimrotUpdate     = 1 << 7

	// TimerRateHz is the rate of the 1 kHz timer incrementer.
	TimerRateHz  = 1000
	timerLoadVal = 0xffffffff
)

// SoC is a simulated i.MX23/i.MX28.
type SoC struct {
	Mem  *physmem.Memory
	Regs *Regs

	// APBHDMA enables the APBH DMA block during CPU init.
	APBHDMA bool

	// Now is the time source. It defaults to time.Now.
	Now func() time.Time

	watchdog  *Watchdog
	timerBase time.Time
	resets    int
}

// New returns a SoC of the given type and revision with its registers in
// their reset state.
func New(mem *physmem.Memory, chip Chip, rev uint8) *SoC {
	c := &SoC{
		Mem:     mem,
		Regs:    NewRegs(),
		APBHDMA: true,
		Now:     time.Now,
	}
	c.watchdog = &Watchdog{soc: c, TimeoutMs: DefaultWatchdogTimeoutMs}
	c.Regs.Write(RegDigctlChipID, uint32(chip)|uint32(rev))
	c.Regs.resetClocks()
	c.Regs.Write(RegPinctrlCtrl, PinctrlSftrst|PinctrlClkgate)
	for i := uint64(0); i < numBanks*2; i++ {
		c.Regs.Write(RegPinctrlMuxsel+i*0x10, 0xffffffff)
	}
	c.Regs.Write(RegAPBHCtrl0, APBHCtrlSftrst|APBHCtrlClkgate)
	c.Regs.Write(RegLCDIFCtrl, LCDIFCtrlRun)
	return c
}

// FixupVT writes a jump table at address 0 which sends every exception
// vector to the matching vector of the image at start.
func (c *SoC) FixupVT(start uint64) error {
	for i := uint64(0); i < numVectors; i++ {
		if err := c.Mem.Write32(VectorTableAddr+4*i, LdrPC); err != nil {
			return fmt.Errorf("unable to write vector %d: %w", i, err)
		}
		if err := c.Mem.Write32(VectorTableAddr+4*(i+numVectors), uint32(start+4*i)); err != nil {
			return fmt.Errorf("unable to write vector %d target: %w", i, err)
		}
	}
	return nil
}

// VectorTarget returns where exception vector i currently jumps to.
func (c *SoC) VectorTarget(i int) (uint64, error) {
	if i < 0 || i >= numVectors {
		return 0, fmt.Errorf("invalid vector %d", i)
	}
	insn, err := c.Mem.Read32(VectorTableAddr + 4*uint64(i))
	if err != nil {
		return 0, err
	}
	if insn != LdrPC {
		return 0, fmt.Errorf("vector %d holds 0x%08x, not a jump table entry", i, insn)
	}
	target, err := c.Mem.Read32(VectorTableAddr + 4*uint64(i+numVectors))
	return uint64(target), err
}

// ArchCPUInit installs the vector jump table for the image at start,
// enables the NAND controller clock, takes the pin controller out of
// reset and starts APBH DMA.
func (c *SoC) ArchCPUInit(start uint64) error {
	if err := c.FixupVT(start); err != nil {
		return err
	}
	c.enableGPMIClock()
	c.gpioInit()
	if c.APBHDMA {
		c.Regs.Write(RegAPBHCtrl0+OffClr, APBHCtrlSftrst|APBHCtrlClkgate)
	}
	return nil
}

// DMARunning reports whether the APBH DMA block is out of reset.
func (c *SoC) DMARunning() bool {
	return c.Regs.Read(RegAPBHCtrl0)&(APBHCtrlSftrst|APBHCtrlClkgate) == 0
}

// TimerInit starts the free running 1 kHz timer and returns its rate.
func (c *SoC) TimerInit() uint64 {
	c.Regs.Write(RegTimrotFixed0, timerLoadVal)
	c.Regs.Write(RegTimrotCtrl0, TimrotUpdate|TimrotReload|TimrotSelect1kHz)
	c.timerBase = c.Now()
	return TimerRateHz
}

// Microseconds returns the time since TimerInit. It is 0 before the timer
// is started.
func (c *SoC) Microseconds() uint64 {
	if c.timerBase.IsZero() {
		return 0
	}
	return uint64(c.Now().Sub(c.timerBase).Microseconds())
}

// Ticks returns the timer count since TimerInit.
func (c *SoC) Ticks() uint64 {
	return c.Microseconds() * TimerRateHz / 1000000
}
