// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxs

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	rng "github.com/linuxboot/mxsboot/pkg/bytes"
	"github.com/linuxboot/mxsboot/pkg/physmem"
)

const textBase = 0x40002000

func newSoC(t *testing.T) *SoC {
	mem, err := physmem.New(
		physmem.Bank{Name: "ocram", Range: rng.Range{Offset: 0, Length: 0x20000}},
		physmem.Bank{Name: "dram", Range: rng.Range{Offset: 0x40000000, Length: 0x8000000}},
	)
	require.NoError(t, err)
	return New(mem, ChipMX28, 1)
}

func TestFixupVT(t *testing.T) {
	c := newSoC(t)
	require.NoError(t, c.FixupVT(textBase))
	for i := 0; i < numVectors; i++ {
		target, err := c.VectorTarget(i)
		require.NoError(t, err)
		require.Equal(t, uint64(textBase+4*i), target)
	}
	insn, err := c.Mem.Read32(0x1c)
	require.NoError(t, err)
	require.Equal(t, uint32(LdrPC), insn)

	_, err = c.VectorTarget(8)
	require.Error(t, err)
}

func TestArchCPUInit(t *testing.T) {
	c := newSoC(t)
	require.Zero(t, c.GPMIClock())
	require.False(t, c.DMARunning())

	require.NoError(t, c.ArchCPUInit(textBase))
	require.Equal(t, uint64(480000000), c.GPMIClock())
	require.True(t, c.DMARunning())
	require.Zero(t, c.Regs.Read(RegPinctrlCtrl)&(PinctrlSftrst|PinctrlClkgate))
}

func TestClocks(t *testing.T) {
	c := newSoC(t)
	require.Equal(t, uint64(454), c.CPUClock()/1000000)
	require.Equal(t, uint64(151), c.BusClock()/1000000)

	require.NoError(t, c.SetIOClock(IOClk0, 480000))
	require.NoError(t, c.SetIOClock(IOClk1, 480000))
	require.Equal(t, uint32(480000), c.IOClock(IOClk0))

	require.NoError(t, c.SetSSPClock(SSPClk0, 96000, false))
	require.NoError(t, c.SetSSPClock(SSPClk2, 160000, false))
	require.Equal(t, uint32(96000), c.SSPClock(SSPClk0))
	require.Equal(t, uint32(160000), c.SSPClock(SSPClk2))
	require.Zero(t, c.SSPClock(SSPClk1))

	require.NoError(t, c.SetSSPClock(SSPClk3, 24000, true))
	require.Equal(t, uint32(24000), c.SSPClock(SSPClk3))

	// Slower than the divider range allows, clamped to the slowest setting.
	require.NoError(t, c.SetIOClock(IOClk1, 100000))
	require.Equal(t, uint32(pllFreqKHz*pllFreqCoef/maxFrac), c.IOClock(IOClk1))

	require.Error(t, c.SetIOClock(IOClock(2), 480000))
	require.Error(t, c.SetSSPClock(SSPClk0, 0, false))

	var out bytes.Buffer
	c.PrintClocks(&out)
	require.Contains(t, out.String(), "CPU:   454 MHz")
}

func TestSetupPad(t *testing.T) {
	c := newSoC(t)
	require.Equal(t, uint8(3), c.PadMux(0, 24))
	require.NoError(t, c.SetupPad(Pad{Name: "GPMI_RDN", Bank: 0, Pin: 24, Drive: Drive8mA, Voltage: Voltage1V8, Pull: true}))
	require.Equal(t, uint8(0), c.PadMux(0, 24))
	require.Equal(t, uint32(1)<<24, c.Regs.Read(RegPinctrlPull)&(1<<24))
	require.Equal(t, uint32(Drive8mA), c.Regs.Read(RegPinctrlDrive+3*0x10)&0x7)

	require.Error(t, c.SetupPad(Pad{Name: "bogus", Bank: 7}))
	require.Error(t, c.SetupPads([]Pad{{Name: "ok"}, {Name: "bogus", Pin: 40}}))
}

func TestChipRevision(t *testing.T) {
	for _, tc := range []struct {
		chip Chip
		rev  uint8
		name string
		want string
	}{
		{ChipMX28, 1, "28", "1.2"},
		{ChipMX28, 0, "28", "??"},
		{ChipMX23, 0, "23", "1.0"},
		{ChipMX23, 4, "23", "1.4"},
		{ChipMX23, 5, "23", "??"},
		{Chip(0x12340000), 1, "??", "??"},
	} {
		c := New(nil, tc.chip, tc.rev)
		require.Equal(t, tc.name, c.ChipID().String())
		require.Equal(t, tc.want, c.ChipRevision())
	}
}

func TestPrintCPUInfo(t *testing.T) {
	c := newSoC(t)
	require.Equal(t, uint64(0x40001ff0), SPLDataAddr(textBase))
	require.NoError(t, c.WriteSPLData(textBase, SPLData{BootModeIdx: 4, MemDRAMSize: 128 << 20}))

	var out bytes.Buffer
	require.NoError(t, c.PrintCPUInfo(&out, textBase))
	require.Equal(t, "CPU:   Freescale i.MX28 rev1.2 at 454 MHz\nBOOT:  NAND, 3V3\n", out.String())

	data, err := c.ReadSPLData(textBase)
	require.NoError(t, err)
	require.Equal(t, uint32(128<<20), data.MemDRAMSize)
}

func TestCRC16(t *testing.T) {
	// The augmented form yields the XMODEM check value.
	require.Equal(t, uint16(0x31c3), CalcCRC16([]byte("123456789")))
	require.Equal(t, uint16(0), CalcCRC16(nil))
}

func TestDescriptor(t *testing.T) {
	b, err := EncodeDescriptor(128)
	require.NoError(t, err)
	require.Equal(t, []byte{0xfe, 5, '1', '2', '8', 'M', 0}, b[:7])
	require.Len(t, b, 9)

	size, err := DecodeDescriptor(b)
	require.NoError(t, err)
	require.Equal(t, uint64(128), size)

	b[3] = '9'
	_, err = DecodeDescriptor(b)
	require.Error(t, err)

	_, err = EncodeDescriptor(512)
	require.Error(t, err)

	_, err = DecodeDescriptor([]byte{0})
	require.ErrorIs(t, err, ErrNoDescriptor)
}

func TestDRAMInit(t *testing.T) {
	c := newSoC(t)
	_, err := c.DRAMInit(128)
	var errSize *ErrDRAMSize
	require.ErrorAs(t, err, &errSize)
	require.ErrorIs(t, err, ErrNoDescriptor)

	require.NoError(t, c.WriteDescriptor(DescriptorAddr, 64))
	_, err = c.DRAMInit(128)
	require.ErrorAs(t, err, &errSize)
	require.Equal(t, uint64(64), errSize.Got)

	// The second location wins.
	require.NoError(t, c.WriteDescriptor(DescriptorAddrAnother, 128))
	size, err := c.DRAMInit(128)
	require.NoError(t, err)
	require.Equal(t, uint64(128<<20), size)
}

func TestWatchdogAndReset(t *testing.T) {
	c := newSoC(t)
	wd := c.Watchdog()
	require.False(t, wd.Running())
	wd.Start()
	wd.Reset()
	require.True(t, wd.Running())
	require.Equal(t, 2, wd.Kicks())
	require.Equal(t, uint32(DefaultWatchdogTimeoutMs), c.Regs.Read(RegRTCWatchdog))

	c.ResetCPU()
	require.Equal(t, 1, c.Resets())
	require.Equal(t, uint32(1), c.Regs.Read(RegRTCWatchdog))
	require.Zero(t, c.Regs.Read(RegLCDIFCtrl)&LCDIFCtrlRun)
}

func TestMACFromFuse(t *testing.T) {
	c := newSoC(t)
	c.SetFuses(0x1e2f3a4b)
	mac, err := c.MACFromFuse(0)
	require.NoError(t, err)
	require.Equal(t, net.HardwareAddr{0x00, 0x04, 0x1e, 0x2f, 0x3a, 0x4b}, mac)

	mac, err = c.MACFromFuse(1)
	require.NoError(t, err)
	require.Equal(t, byte(0x4c), mac[5])

	c.Regs.Write(RegOCOTPCtrl+OffSet, OCOTPCtrlBusy)
	_, err = c.MACFromFuse(0)
	require.ErrorIs(t, err, ErrOCOTPBusy)
}

func TestTimer(t *testing.T) {
	c := newSoC(t)
	require.Zero(t, c.Microseconds())

	now := time.Unix(1000, 0)
	c.Now = func() time.Time { return now }
	require.Equal(t, uint64(TimerRateHz), c.TimerInit())
	now = now.Add(1500 * time.Millisecond)
	require.Equal(t, uint64(1500000), c.Microseconds())
	require.Equal(t, uint64(1500), c.Ticks())
}

func TestRegsAliases(t *testing.T) {
	r := NewRegs()
	r.Write(0x100, 0xf0)
	r.Write(0x100+OffSet, 0x0f)
	r.Write(0x100+OffClr, 0x30)
	r.Write(0x100+OffTog, 0x101)
	require.Equal(t, uint32(0x1ce), r.Read(0x100))
	require.Equal(t, []string{"0x00000100: 0x000001ce"}, r.Dump())
}
