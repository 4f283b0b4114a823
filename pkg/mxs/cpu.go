// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxs

import (
	"fmt"
	"io"

	"github.com/linuxboot/mxsboot/pkg/layout"
)

// Digital control registers.
const (
	RegDigctlChipID = DigctlBase + 0x310

	ChipIDMask = 0xffff0000
	ChipIDMX23 = 0x37800000
	ChipIDMX28 = 0x28000000
)

// Chip is the SoC type.
type Chip uint32

// Supported SoCs.
const (
	ChipMX23 Chip = ChipIDMX23
	ChipMX28 Chip = ChipIDMX28
)

func (c Chip) String() string {
	switch c {
	case ChipMX23:
		return "23"
	case ChipMX28:
		return "28"
	}
	return "??"
}

// ChipID returns the SoC type.
func (c *SoC) ChipID() Chip {
	return Chip(c.Regs.Read(RegDigctlChipID) & ChipIDMask)
}

// ChipRevision returns the silicon revision string, "??" when unknown.
func (c *SoC) ChipRevision() string {
	rev := c.Regs.Read(RegDigctlChipID) & 0xff
	switch c.ChipID() {
	case ChipMX23:
		if rev <= 4 {
			return fmt.Sprintf("1.%d", rev)
		}
	case ChipMX28:
		if rev == 1 {
			return "1.2"
		}
	}
	return "??"
}

// BootMode is one entry of the BootROM boot mode table.
type BootMode struct {
	Mode  string
	Index uint8
}

// BootModes lists the BootROM boot modes, indexed by the value the SPL
// stores in its hand-off data.
var BootModes = []BootMode{
	{"USB #0", 0x00},
	{"I2C #0, 3V3", 0x01},
	{"SPI #2 (flash), 3V3", 0x02},
	{"SPI #3 (flash), 3V3", 0x03},
	{"NAND, 3V3", 0x04},
	{"JTAG", 0x06},
	{"SPI #3 (EEPROM), 3V3", 0x08},
	{"SSP SD/MMC #0, 3V3", 0x09},
	{"SSP SD/MMC #1, 3V3", 0x0a},
	{"I2C #0, 1V8", 0x11},
	{"SPI #2 (flash), 1V8", 0x12},
	{"SPI #3 (flash), 1V8", 0x13},
	{"NAND, 1V8", 0x14},
	{"SPI #3 (EEPROM), 1V8", 0x18},
	{"SSP SD/MMC #0, 1V8", 0x19},
	{"SSP SD/MMC #1, 1V8", 0x1a},
}

// SPLDataSize is the size of the record the SPL leaves below the text base.
const SPLDataSize = 8

// SPLData is the SPL hand-off record: the index of the boot mode in
// BootModes and the DRAM size the SPL programmed.
type SPLData struct {
	BootModeIdx uint8
	MemDRAMSize uint32
}

// SPLDataAddr returns where the SPL stores its hand-off record for an
// image linked at textBase.
func SPLDataAddr(textBase uint64) uint64 {
	return layout.AlignDown(textBase-SPLDataSize, layout.Align16)
}

// WriteSPLData stores the SPL hand-off record.
func (c *SoC) WriteSPLData(textBase uint64, data SPLData) error {
	addr := SPLDataAddr(textBase)
	if _, err := c.Mem.WriteAt([]byte{data.BootModeIdx, 0, 0, 0}, int64(addr)); err != nil {
		return err
	}
	return c.Mem.Write32(addr+4, data.MemDRAMSize)
}

// ReadSPLData loads the SPL hand-off record.
func (c *SoC) ReadSPLData(textBase uint64) (SPLData, error) {
	addr := SPLDataAddr(textBase)
	b, err := c.Mem.Read(addr, 1)
	if err != nil {
		return SPLData{}, err
	}
	size, err := c.Mem.Read32(addr + 4)
	if err != nil {
		return SPLData{}, err
	}
	return SPLData{BootModeIdx: b[0], MemDRAMSize: size}, nil
}

// PrintCPUInfo prints the SoC type, revision, core clock and boot mode.
func (c *SoC) PrintCPUInfo(w io.Writer, textBase uint64) error {
	data, err := c.ReadSPLData(textBase)
	if err != nil {
		return err
	}
	mode := "??"
	if int(data.BootModeIdx) < len(BootModes) {
		mode = BootModes[data.BootModeIdx].Mode
	}
	fmt.Fprintf(w, "CPU:   Freescale i.MX%s rev%s at %d MHz\n", c.ChipID(), c.ChipRevision(), c.CPUClock()/1000000)
	fmt.Fprintf(w, "BOOT:  %s\n", mode)
	return nil
}

// PrintClocks prints the main clocks.
func (c *SoC) PrintClocks(w io.Writer) {
	fmt.Fprintf(w, "CPU:   %3d MHz\n", c.CPUClock()/1000000)
	fmt.Fprintf(w, "BUS:   %3d MHz\n", c.BusClock()/1000000)
	fmt.Fprintf(w, "EMI:   %3d MHz\n", c.MemClock()/1000000)
	fmt.Fprintf(w, "GPMI:  %3d MHz\n", c.GPMIClock()/1000000)
}
