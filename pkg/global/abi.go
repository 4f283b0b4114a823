// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package global

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Sizes of the in-memory records. Later boot stages rely on them.
const (
	BoardInfoSize = 80
	DataSize      = 176
)

// ErrFieldOverflow means a field does not fit into its 32-bit slot.
type ErrFieldOverflow struct {
	Field string
	Value uint64
}

func (err *ErrFieldOverflow) Error() string {
	return fmt.Sprintf("field '%s' value 0x%x does not fit 32 bits", err.Field, err.Value)
}

type wireEncoder struct {
	err error
}

func (e *wireEncoder) word(field string, v uint64) uint32 {
	if v > WordMask && e.err == nil {
		e.err = &ErrFieldOverflow{Field: field, Value: v}
	}
	return uint32(v)
}

// top encodes an exclusive upper bound. The end of the 32-bit address
// space is stored as 0.
func (e *wireEncoder) top(field string, v uint64) uint32 {
	if v == WordMask+1 {
		return 0
	}
	return e.word(field, v)
}

type dataWire struct {
	BD          uint32
	Flags       uint32
	Baudrate    uint32
	CPUClk      uint32
	BusClk      uint32
	PCIClk      uint32
	MemClk      uint32
	HaveConsole uint32
	EnvAddr     uint32
	EnvValid    uint32
	RAMTop      uint32
	RelocAddr   uint32
	RAMSize     uint32
	MonLen      uint32
	IRQSP       uint32
	StartAddrSP uint32
	RelocOff    uint32
	NewGD       uint32
	FDTBlob     uint32
	NewFDT      uint32
	FDTSize     uint32
	JT          uint32
	EnvBuf      [32]byte
	TimebaseH   uint32
	TimebaseL   uint32
	MallocBase  uint32
	MallocLimit uint32
	MallocPtr   uint32
	Arch        struct {
		TimerRateHz     uint32
		TBU             uint32
		TBL             uint32
		LastInc         uint32
		TimerResetValue uint32
		TLBAddr         uint32
		TLBSize         uint32
	}
	CurSerialDev uint32
	EnvHasInit   uint32
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (d *Data) MarshalBinary() ([]byte, error) {
	var e wireEncoder
	w := dataWire{
		BD:          e.word("bd", d.BD),
		Flags:       uint32(d.Flags),
		Baudrate:    e.word("baudrate", d.Baudrate),
		CPUClk:      e.word("cpu_clk", d.CPUClk),
		BusClk:      e.word("bus_clk", d.BusClk),
		PCIClk:      e.word("pci_clk", d.PCIClk),
		MemClk:      e.word("mem_clk", d.MemClk),
		EnvAddr:     e.word("env_addr", d.EnvAddr),
		EnvValid:    d.EnvValid,
		RAMTop:      e.top("ram_top", d.RAMTop),
		RelocAddr:   e.word("relocaddr", d.RelocAddr),
		RAMSize:     e.word("ram_size", d.RAMSize),
		MonLen:      e.word("mon_len", d.MonLen),
		IRQSP:       e.word("irq_sp", d.IRQSP),
		StartAddrSP: e.word("start_addr_sp", d.StartAddrSP),
		RelocOff:    uint32(d.RelocOff),
		NewGD:       e.word("new_gd", d.NewGD),
		FDTBlob:     e.word("fdt_blob", d.FDTBlob),
		NewFDT:      e.word("new_fdt", d.NewFDT),
		FDTSize:     e.word("fdt_size", d.FDTSize),
		JT:          e.word("jt", d.JT),
		EnvBuf:      d.EnvBuf,
		TimebaseH:   uint32(d.Timebase >> 32),
		TimebaseL:   uint32(d.Timebase),
		MallocBase:  e.word("malloc_base", d.MallocBase),
		MallocLimit: e.word("malloc_limit", d.MallocLimit),
		MallocPtr:   e.word("malloc_ptr", d.MallocPtr),

		CurSerialDev: e.word("cur_serial_dev", d.CurSerialDev),
		EnvHasInit:   d.EnvHasInit,
	}
	if d.HaveConsole {
		w.HaveConsole = 1
	}
	w.Arch.TimerRateHz = e.word("arch.timer_rate_hz", d.Arch.TimerRateHz)
	w.Arch.TBU = e.word("arch.tbu", d.Arch.TBU)
	w.Arch.TBL = e.word("arch.tbl", d.Arch.TBL)
	w.Arch.LastInc = e.word("arch.lastinc", d.Arch.LastInc)
	w.Arch.TimerResetValue = e.word("arch.timer_reset_value", d.Arch.TimerResetValue)
	w.Arch.TLBAddr = e.word("arch.tlb_addr", d.Arch.TLBAddr)
	w.Arch.TLBSize = e.word("arch.tlb_size", d.Arch.TLBSize)
	if e.err != nil {
		return nil, e.err
	}

	var buf bytes.Buffer
	buf.Grow(DataSize)
	if err := binary.Write(&buf, binary.LittleEndian, &w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Data) UnmarshalBinary(b []byte) error {
	if len(b) < DataSize {
		return fmt.Errorf("global data needs %d bytes, got %d", DataSize, len(b))
	}
	var w dataWire
	if err := binary.Read(bytes.NewReader(b[:DataSize]), binary.LittleEndian, &w); err != nil {
		return err
	}
	*d = Data{
		BD:           uint64(w.BD),
		Flags:        Flags(w.Flags),
		Baudrate:     uint64(w.Baudrate),
		CPUClk:       uint64(w.CPUClk),
		BusClk:       uint64(w.BusClk),
		PCIClk:       uint64(w.PCIClk),
		MemClk:       uint64(w.MemClk),
		HaveConsole:  w.HaveConsole != 0,
		EnvAddr:      uint64(w.EnvAddr),
		EnvValid:     w.EnvValid,
		RAMTop:       uint64(w.RAMTop),
		RelocAddr:    uint64(w.RelocAddr),
		RAMSize:      uint64(w.RAMSize),
		MonLen:       uint64(w.MonLen),
		IRQSP:        uint64(w.IRQSP),
		StartAddrSP:  uint64(w.StartAddrSP),
		RelocOff:     uint64(w.RelocOff),
		NewGD:        uint64(w.NewGD),
		FDTBlob:      uint64(w.FDTBlob),
		NewFDT:       uint64(w.NewFDT),
		FDTSize:      uint64(w.FDTSize),
		JT:           uint64(w.JT),
		EnvBuf:       w.EnvBuf,
		Timebase:     uint64(w.TimebaseH)<<32 | uint64(w.TimebaseL),
		MallocBase:   uint64(w.MallocBase),
		MallocLimit:  uint64(w.MallocLimit),
		MallocPtr:    uint64(w.MallocPtr),
		CurSerialDev: uint64(w.CurSerialDev),
		EnvHasInit:   w.EnvHasInit,
		Arch: Arch{
			TimerRateHz:     uint64(w.Arch.TimerRateHz),
			TBU:             uint64(w.Arch.TBU),
			TBL:             uint64(w.Arch.TBL),
			LastInc:         uint64(w.Arch.LastInc),
			TimerResetValue: uint64(w.Arch.TimerResetValue),
			TLBAddr:         uint64(w.Arch.TLBAddr),
			TLBSize:         uint64(w.Arch.TLBSize),
		},
	}
	if w.RAMTop == 0 && w.RAMSize != 0 {
		d.RAMTop = WordMask + 1
	}
	return nil
}
