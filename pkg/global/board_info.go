// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package global

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
)

// NrDRAMBanks is the number of DRAM bank slots in the board info.
const NrDRAMBanks = 2

// BoardInfo describes the detected hardware for the next boot stage.
type BoardInfo struct {
	Baudrate    uint64
	MemStart    uint64
	MemSize     uint64
	FlashStart  uint64
	FlashSize   uint64
	FlashOffset uint64
	SRAMStart   uint64
	SRAMSize    uint64
	BootFlags   uint64
	IPAddr      uint32
	EnetAddr    net.HardwareAddr
	EthSpeed    uint16
	IntFreq     uint64
	BusFreq     uint64
	ArchNumber  uint32
	BootParams  uint64
	DRAM        [NrDRAMBanks]Bank
}

type boardInfoWire struct {
	Baudrate    uint32
	MemStart    uint32
	MemSize     uint32
	FlashStart  uint32
	FlashSize   uint32
	FlashOffset uint32
	SRAMStart   uint32
	SRAMSize    uint32
	BootFlags   uint32
	IPAddr      uint32
	EnetAddr    [6]byte
	EthSpeed    uint16
	IntFreq     uint32
	BusFreq     uint32
	ArchNumber  uint32
	BootParams  uint32
	DRAM        [NrDRAMBanks]struct {
		Start uint32
		Size  uint32
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (bd *BoardInfo) MarshalBinary() ([]byte, error) {
	if len(bd.EnetAddr) != 0 && len(bd.EnetAddr) != 6 {
		return nil, fmt.Errorf("invalid MAC address length %d", len(bd.EnetAddr))
	}
	var e wireEncoder
	w := boardInfoWire{
		Baudrate:    e.word("bi_baudrate", bd.Baudrate),
		MemStart:    e.word("bi_memstart", bd.MemStart),
		MemSize:     e.word("bi_memsize", bd.MemSize),
		FlashStart:  e.word("bi_flashstart", bd.FlashStart),
		FlashSize:   e.word("bi_flashsize", bd.FlashSize),
		FlashOffset: e.word("bi_flashoffset", bd.FlashOffset),
		SRAMStart:   e.word("bi_sramstart", bd.SRAMStart),
		SRAMSize:    e.word("bi_sramsize", bd.SRAMSize),
		BootFlags:   e.word("bi_bootflags", bd.BootFlags),
		IPAddr:      bd.IPAddr,
		EthSpeed:    bd.EthSpeed,
		IntFreq:     e.word("bi_intfreq", bd.IntFreq),
		BusFreq:     e.word("bi_busfreq", bd.BusFreq),
		ArchNumber:  bd.ArchNumber,
		BootParams:  e.word("bi_boot_params", bd.BootParams),
	}
	copy(w.EnetAddr[:], bd.EnetAddr)
	for i, bank := range bd.DRAM {
		w.DRAM[i].Start = e.word(fmt.Sprintf("bi_dram[%d].start", i), bank.Start)
		w.DRAM[i].Size = e.word(fmt.Sprintf("bi_dram[%d].size", i), bank.Size)
	}
	if e.err != nil {
		return nil, e.err
	}

	var buf bytes.Buffer
	buf.Grow(BoardInfoSize)
	if err := binary.Write(&buf, binary.LittleEndian, &w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (bd *BoardInfo) UnmarshalBinary(b []byte) error {
	if len(b) < BoardInfoSize {
		return fmt.Errorf("board info needs %d bytes, got %d", BoardInfoSize, len(b))
	}
	var w boardInfoWire
	if err := binary.Read(bytes.NewReader(b[:BoardInfoSize]), binary.LittleEndian, &w); err != nil {
		return err
	}
	*bd = BoardInfo{
		Baudrate:    uint64(w.Baudrate),
		MemStart:    uint64(w.MemStart),
		MemSize:     uint64(w.MemSize),
		FlashStart:  uint64(w.FlashStart),
		FlashSize:   uint64(w.FlashSize),
		FlashOffset: uint64(w.FlashOffset),
		SRAMStart:   uint64(w.SRAMStart),
		SRAMSize:    uint64(w.SRAMSize),
		BootFlags:   uint64(w.BootFlags),
		IPAddr:      w.IPAddr,
		EthSpeed:    w.EthSpeed,
		IntFreq:     uint64(w.IntFreq),
		BusFreq:     uint64(w.BusFreq),
		ArchNumber:  w.ArchNumber,
		BootParams:  uint64(w.BootParams),
	}
	if w.EnetAddr != [6]byte{} {
		bd.EnetAddr = append(net.HardwareAddr(nil), w.EnetAddr[:]...)
	}
	for i := range w.DRAM {
		bd.DRAM[i] = Bank{Start: uint64(w.DRAM[i].Start), Size: uint64(w.DRAM[i].Size)}
	}
	return nil
}

// TotalDRAM returns the sum of all bank sizes.
func (bd *BoardInfo) TotalDRAM() uint64 {
	var total uint64
	for _, bank := range bd.DRAM {
		total += bank.Size
	}
	return total
}
