// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mxs

import (
	"bytes"
	"errors"
	"fmt"
)

// Locations of the DRAM size descriptor in on-chip RAM. The second copy
// takes precedence when both are valid.
const (
	DescriptorAddr        = 0xf100
	DescriptorAddrAnother = 0xf400

	descriptorMarker = 0xfe
	crc16Poly        = 0x1021
)

// ErrNoDescriptor means neither descriptor location carries the marker.
var ErrNoDescriptor = errors.New("no DRAM size descriptor")

// ErrDRAMSize means the detected DRAM size is not what the board expects.
type ErrDRAMSize struct {
	Want uint64
	Got  uint64
	Err  error
}

func (err *ErrDRAMSize) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("unable to read the DRAM size (want %d MiB): %v", err.Want, err.Err)
	}
	return fmt.Sprintf("the RAM size read out is %d MiB, want %d MiB", err.Got, err.Want)
}

func (err *ErrDRAMSize) Unwrap() error {
	return err.Err
}

// UpdateCRC16 feeds one byte into a bitwise, non-reflected CRC-16 with
// polynomial 0x1021.
func UpdateCRC16(crcIn uint16, b byte) uint16 {
	crc := uint32(crcIn)
	in := uint32(b) | 0x100
	for {
		crc <<= 1
		in <<= 1
		if in&0x100 != 0 {
			crc++
		}
		if crc&0x10000 != 0 {
			crc ^= crc16Poly
		}
		if in&0x10000 != 0 {
			break
		}
	}
	return uint16(crc)
}

// CalcCRC16 returns the augmented CRC-16 of data.
func CalcCRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = UpdateCRC16(crc, b)
	}
	crc = UpdateCRC16(crc, 0)
	return UpdateCRC16(crc, 0)
}

var dramSizes = map[string]uint64{
	"64M":  64,
	"128M": 128,
	"256M": 256,
}

// EncodeDescriptor builds a descriptor for a DRAM size in MiB: the
// marker, the payload length, the NUL terminated size string and the
// big-endian CRC over everything before it.
func EncodeDescriptor(sizeMiB uint64) ([]byte, error) {
	payload := fmt.Sprintf("%dM", sizeMiB)
	if _, ok := dramSizes[payload]; !ok {
		return nil, fmt.Errorf("unsupported DRAM size %d MiB", sizeMiB)
	}
	b := []byte{descriptorMarker, byte(len(payload) + 1)}
	b = append(b, payload...)
	b = append(b, 0)
	crc := CalcCRC16(b)
	return append(b, byte(crc>>8), byte(crc)), nil
}

// DecodeDescriptor parses a descriptor and returns the DRAM size in MiB.
func DecodeDescriptor(b []byte) (uint64, error) {
	if len(b) < 2 || b[0] != descriptorMarker {
		return 0, ErrNoDescriptor
	}
	length := int(b[1])
	if len(b) < 2+length+2 {
		return 0, fmt.Errorf("descriptor truncated: %d bytes, need %d", len(b), 2+length+2)
	}
	want := uint16(b[2+length])<<8 | uint16(b[2+length+1])
	if got := CalcCRC16(b[:2+length]); got != want {
		return 0, fmt.Errorf("descriptor CRC mismatch: stored 0x%04x, computed 0x%04x", want, got)
	}
	payload := b[2 : 2+length]
	if idx := bytes.IndexByte(payload, 0); idx >= 0 {
		payload = payload[:idx]
	}
	size, ok := dramSizes[string(payload)]
	if !ok {
		return 0, fmt.Errorf("unknown DRAM size '%s'", payload)
	}
	return size, nil
}

// descriptorReadLen covers the longest possible descriptor.
const descriptorReadLen = 2 + 0xff + 2

// ReadDRAMSize reads the DRAM size descriptor from on-chip RAM.
func (c *SoC) ReadDRAMSize() (uint64, error) {
	var valid []byte
	for _, addr := range []uint64{DescriptorAddr, DescriptorAddrAnother} {
		b, err := c.Mem.Read(addr, descriptorReadLen)
		if err != nil {
			return 0, err
		}
		if b[0] == descriptorMarker {
			valid = b
		}
	}
	if valid == nil {
		return 0, ErrNoDescriptor
	}
	return DecodeDescriptor(valid)
}

// WriteDescriptor stores a descriptor for sizeMiB at addr.
func (c *SoC) WriteDescriptor(addr, sizeMiB uint64) error {
	b, err := EncodeDescriptor(sizeMiB)
	if err != nil {
		return err
	}
	_, err = c.Mem.WriteAt(b, int64(addr))
	return err
}

// DRAMInit checks that the detected DRAM size matches wantMiB and returns
// the size in bytes.
func (c *SoC) DRAMInit(wantMiB uint64) (uint64, error) {
	got, err := c.ReadDRAMSize()
	if err != nil {
		return 0, &ErrDRAMSize{Want: wantMiB, Err: err}
	}
	if got != wantMiB {
		return 0, &ErrDRAMSize{Want: wantMiB, Got: got}
	}
	return got << 20, nil
}
