// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxs

import (
	"fmt"
)

// Clock controller registers.
const (
	RegClkctrlHbus  = ClkctrlBase + 0x60
	RegClkctrlSSP0  = ClkctrlBase + 0x90
	RegClkctrlGPMI  = ClkctrlBase + 0xd0
	RegClkctrlFrac0 = ClkctrlBase + 0x1b0
	RegClkctrlSeq   = ClkctrlBase + 0x1d0

	ClkseqBypassGPMI = 1 << 2
	ClkseqBypassSSP0 = 1 << 3

	ClkGate     = 1 << 31
	GPMIDivMask = 0x3ff
	SSPDivMask  = 0x1ff
	HbusDivMask = 0x1f
	FracMask    = 0x3f
	FracClkGate = 0x80
)

const (
	fracShiftCPU = 0
	fracShiftEMI = 8
	fracShiftIO1 = 16
	fracShiftIO0 = 24
	sspRegStride = 0x10

	pllFreqKHz  = 480000
	pllFreqCoef = 18
	xtalFreqKHz = 24000
	minFrac     = 18
	maxFrac     = 35

	resetFracCPU = 19
	resetFracEMI = 21
	resetFracIO  = 18
	resetHbusDiv = 3
	emiDivisor   = 2
)

// IOClock selects one of the two IO fractional dividers.
type IOClock int

// IO clocks.
const (
	IOClk0 IOClock = iota
	IOClk1
)

// SSPClock selects an SSP block clock.
type SSPClock int

// SSP clocks.
const (
	SSPClk0 SSPClock = iota
	SSPClk1
	SSPClk2
	SSPClk3
)

func (r *Regs) resetClocks() {
	r.Write(RegClkctrlFrac0,
		resetFracCPU<<fracShiftCPU|resetFracEMI<<fracShiftEMI|
			resetFracIO<<fracShiftIO1|resetFracIO<<fracShiftIO0)
	r.Write(RegClkctrlHbus, resetHbusDiv)
	r.Write(RegClkctrlGPMI, ClkGate|0x1)
	r.Write(RegClkctrlSeq, ClkseqBypassGPMI|0xf<<3)
	for ssp := SSPClk0; ssp <= SSPClk3; ssp++ {
		r.Write(sspReg(ssp), ClkGate|0x1)
	}
}

func sspReg(ssp SSPClock) uint64 {
	return RegClkctrlSSP0 + uint64(ssp)*sspRegStride
}

func (r *Regs) frac(shift uint) uint32 {
	return (r.Read(RegClkctrlFrac0) >> shift) & FracMask
}

func ioShift(io IOClock) uint {
	if io == IOClk0 {
		return fracShiftIO0
	}
	return fracShiftIO1
}

// SetIOClock programs an IO clock to the closest reachable frequency at or
// above freqKHz.
func (c *SoC) SetIOClock(io IOClock, freqKHz uint32) error {
	if io != IOClk0 && io != IOClk1 {
		return fmt.Errorf("invalid IO clock %d", io)
	}
	if freqKHz == 0 {
		return nil
	}
	div := uint32(pllFreqKHz * pllFreqCoef / uint64(freqKHz))
	if div < minFrac {
		div = minFrac
	}
	if div > maxFrac {
		div = maxFrac
	}
	shift := ioShift(io)
	c.Regs.ClrSet(RegClkctrlFrac0, (FracMask|FracClkGate)<<shift, div<<shift)
	return nil
}

// IOClock returns an IO clock frequency in kHz.
func (c *SoC) IOClock(io IOClock) uint32 {
	frac := c.Regs.frac(ioShift(io))
	if frac == 0 {
		return 0
	}
	return uint32(pllFreqKHz * pllFreqCoef / uint64(frac))
}

func sspIOClock(ssp SSPClock) IOClock {
	if ssp <= SSPClk1 {
		return IOClk0
	}
	return IOClk1
}

// SetSSPClock programs an SSP clock from either the 24 MHz crystal or the
// IO clock feeding the block.
func (c *SoC) SetSSPClock(ssp SSPClock, freqKHz uint32, xtal bool) error {
	if ssp < SSPClk0 || ssp > SSPClk3 {
		return fmt.Errorf("invalid SSP clock %d", ssp)
	}
	if freqKHz == 0 {
		return fmt.Errorf("invalid SSP%d frequency 0", ssp)
	}
	src := uint32(xtalFreqKHz)
	if !xtal {
		src = c.IOClock(sspIOClock(ssp))
	}
	div := (src + freqKHz - 1) / freqKHz
	if div == 0 {
		div = 1
	}
	if div > SSPDivMask {
		return fmt.Errorf("SSP%d: %d kHz is unreachable from %d kHz", ssp, freqKHz, src)
	}
	c.Regs.ClrSet(sspReg(ssp), ClkGate|SSPDivMask, div)
	bypass := uint32(ClkseqBypassSSP0 << uint(ssp))
	if xtal {
		c.Regs.Write(RegClkctrlSeq+OffSet, bypass)
	} else {
		c.Regs.Write(RegClkctrlSeq+OffClr, bypass)
	}
	return nil
}

// SSPClock returns an SSP clock frequency in kHz, or 0 when gated.
func (c *SoC) SSPClock(ssp SSPClock) uint32 {
	reg := c.Regs.Read(sspReg(ssp))
	if reg&ClkGate != 0 || reg&SSPDivMask == 0 {
		return 0
	}
	src := uint32(xtalFreqKHz)
	if c.Regs.Read(RegClkctrlSeq)&(ClkseqBypassSSP0<<uint(ssp)) == 0 {
		src = c.IOClock(sspIOClock(ssp))
	}
	return src / (reg & SSPDivMask)
}

// CPUClock returns the ARM core clock in Hz.
func (c *SoC) CPUClock() uint64 {
	frac := c.Regs.frac(fracShiftCPU)
	if frac == 0 {
		return 0
	}
	return pllFreqKHz * pllFreqCoef / uint64(frac) * 1000
}

// BusClock returns the AHB clock in Hz.
func (c *SoC) BusClock() uint64 {
	div := c.Regs.Read(RegClkctrlHbus) & HbusDivMask
	if div == 0 {
		return 0
	}
	return c.CPUClock() / uint64(div)
}

// MemClock returns the EMI clock in Hz.
func (c *SoC) MemClock() uint64 {
	frac := c.Regs.frac(fracShiftEMI)
	if frac == 0 {
		return 0
	}
	return pllFreqKHz * pllFreqCoef / uint64(frac) / emiDivisor * 1000
}

// GPMIClock returns the NAND controller clock in Hz, or 0 when gated.
func (c *SoC) GPMIClock() uint64 {
	reg := c.Regs.Read(RegClkctrlGPMI)
	if reg&ClkGate != 0 || reg&GPMIDivMask == 0 {
		return 0
	}
	src := uint64(xtalFreqKHz)
	if c.Regs.Read(RegClkctrlSeq)&ClkseqBypassGPMI == 0 {
		src = uint64(c.IOClock(IOClk1))
	}
	return src * 1000 / uint64(reg&GPMIDivMask)
}

// enableGPMIClock routes the NAND controller clock from the IO clock and
// ungates it.
func (c *SoC) enableGPMIClock() {
	c.Regs.Write(RegClkctrlSeq+OffClr, ClkseqBypassGPMI)
	c.Regs.ClrSet(RegClkctrlGPMI, ClkGate|GPMIDivMask, 1)
}
