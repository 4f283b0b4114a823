// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxs

// RTC and LCD controller registers.
const (
	RegRTCCtrl     = RTCBase + 0x00
	RegRTCWatchdog = RTCBase + 0x50
	RegLCDIFCtrl   = LCDIFBase + 0x00

	RTCCtrlWatchdogEn = 1 << 4
	LCDIFCtrlRun      = 1 << 0
)

// DefaultWatchdogTimeoutMs is the timeout reloaded on every watchdog kick.
const DefaultWatchdogTimeoutMs = 10000

// Watchdog is the RTC watchdog.
type Watchdog struct {
	soc       *SoC
	TimeoutMs uint32
	kicks     int
}

// Watchdog returns the RTC watchdog.
func (c *SoC) Watchdog() *Watchdog {
	return c.watchdog
}

// Start arms the watchdog.
func (wd *Watchdog) Start() {
	wd.Reset()
	wd.soc.Regs.Write(RegRTCCtrl+OffSet, RTCCtrlWatchdogEn)
}

// Running reports whether the watchdog is armed.
func (wd *Watchdog) Running() bool {
	return wd.soc.Regs.Read(RegRTCCtrl)&RTCCtrlWatchdogEn != 0
}

// Reset reloads the watchdog counter.
func (wd *Watchdog) Reset() {
	wd.soc.Regs.Write(RegRTCWatchdog, wd.TimeoutMs)
	wd.kicks++
}

// Kicks returns how many times the watchdog was reloaded.
func (wd *Watchdog) Kicks() int {
	return wd.kicks
}

// ResetCPU resets the SoC through the watchdog. The LCD controller is
// stopped first because it disturbs the boot mode pad sampling of the
// BootROM. On hardware this never returns.
func (c *SoC) ResetCPU() {
	c.Regs.Write(RegLCDIFCtrl+OffClr, LCDIFCtrlRun)
	c.Regs.Write(RegRTCWatchdog, 1)
	c.Regs.Write(RegRTCCtrl+OffSet, RTCCtrlWatchdogEn)
	c.resets++
}

// Resets returns how many times ResetCPU was requested.
func (c *SoC) Resets() int {
	return c.resets
}
