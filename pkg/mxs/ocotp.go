// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxs

import (
	"errors"
	"net"
)

// One-time programmable fuse registers.
const (
	RegOCOTPCtrl  = OCOTPBase + 0x00
	RegOCOTPCust0 = OCOTPBase + 0x20

	OCOTPCtrlBusy       = 1 << 8
	OCOTPCtrlRdBankOpen = 1 << 12

	ocotpTimeout = 1000000
)

// ErrOCOTPBusy means the fuse controller did not become ready.
var ErrOCOTPBusy = errors.New("can't get MAC from OCOTP")

// SetFuses sets the CUST0 fuse word holding the low four MAC bytes.
func (c *SoC) SetFuses(cust0 uint32) {
	c.Regs.Write(RegOCOTPCust0, cust0)
}

// AdjustMAC applies the Freescale vendor prefix. The second controller
// uses the first controller's address plus one.
func AdjustMAC(devID int, mac net.HardwareAddr) {
	mac[0] = 0x00
	mac[1] = 0x04
	if devID == 1 {
		mac[5]++
	}
}

// MACFromFuse returns the Ethernet address of controller devID.
func (c *SoC) MACFromFuse(devID int) (net.HardwareAddr, error) {
	mac := make(net.HardwareAddr, 6)
	c.Regs.Write(RegOCOTPCtrl+OffSet, OCOTPCtrlRdBankOpen)
	if !c.waitMaskClr(RegOCOTPCtrl, OCOTPCtrlBusy, ocotpTimeout) {
		return mac, ErrOCOTPBusy
	}
	data := c.Regs.Read(RegOCOTPCust0)
	mac[2] = byte(data >> 24)
	mac[3] = byte(data >> 16)
	mac[4] = byte(data >> 8)
	mac[5] = byte(data)
	AdjustMAC(devID, mac)
	return mac, nil
}

func (c *SoC) waitMaskClr(addr uint64, mask uint32, timeout int) bool {
	for i := 0; i < timeout; i++ {
		if c.Regs.Read(addr)&mask == 0 {
			return true
		}
	}
	return false
}
