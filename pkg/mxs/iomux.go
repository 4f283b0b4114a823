// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxs

import (
	"fmt"
)

// Pin control registers.
const (
	RegPinctrlCtrl   = PinctrlBase + 0x000
	RegPinctrlMuxsel = PinctrlBase + 0x100
	RegPinctrlDrive  = PinctrlBase + 0x300
	RegPinctrlPull   = PinctrlBase + 0x600

	PinctrlSftrst  = 1 << 31
	PinctrlClkgate = 1 << 30

	numBanks    = 5
	pinsPerBank = 32
)

// Drive is a pad drive strength.
type Drive uint8

// Drive strengths.
const (
	Drive4mA Drive = iota
	Drive8mA
	Drive12mA
	Drive16mA
)

// Voltage is a pad supply.
type Voltage uint8

// Pad supplies.
const (
	Voltage1V8 Voltage = iota
	Voltage3V3
)

// Pad is one pad configuration.
type Pad struct {
	Name    string
	Bank    uint8
	Pin     uint8
	Mux     uint8
	Drive   Drive
	Voltage Voltage
	Pull    bool
}

func (p Pad) String() string {
	return fmt.Sprintf("%s (bank %d pin %d)", p.Name, p.Bank, p.Pin)
}

// SetupPad programs the mux function, drive strength, supply and pull of a
// pad.
func (c *SoC) SetupPad(p Pad) error {
	if p.Bank >= numBanks || p.Pin >= pinsPerBank || p.Mux > 3 {
		return fmt.Errorf("invalid pad %s", p)
	}
	bank, pin := uint64(p.Bank), uint64(p.Pin)

	muxReg := RegPinctrlMuxsel + (bank*2+pin/16)*0x10
	muxShift := uint(pin%16) * 2
	c.Regs.ClrSet(muxReg, 0x3<<muxShift, uint32(p.Mux)<<muxShift)

	driveReg := RegPinctrlDrive + (bank*4+pin/8)*0x10
	driveShift := uint(pin%8) * 4
	c.Regs.ClrSet(driveReg, 0x7<<driveShift, (uint32(p.Drive)|uint32(p.Voltage)<<2)<<driveShift)

	pullReg := RegPinctrlPull + bank*0x10
	var pull uint32
	if p.Pull {
		pull = 1 << pin
	}
	c.Regs.ClrSet(pullReg, 1<<pin, pull)
	return nil
}

// SetupPads programs several pads and stops at the first invalid one.
func (c *SoC) SetupPads(pads []Pad) error {
	for _, p := range pads {
		if err := c.SetupPad(p); err != nil {
			return err
		}
	}
	return nil
}

// PadMux returns the mux function currently selected for a pad.
func (c *SoC) PadMux(bank, pin uint8) uint8 {
	b, p := uint64(bank), uint64(pin)
	reg := c.Regs.Read(RegPinctrlMuxsel + (b*2+p/16)*0x10)
	return uint8(reg>>(uint(p%16)*2)) & 0x3
}

// gpioInit takes the pin controller out of reset.
func (c *SoC) gpioInit() {
	c.Regs.Write(RegPinctrlCtrl+OffClr, PinctrlSftrst|PinctrlClkgate)
}
