// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fdt gives the boot sequencer access to the control device tree
// sitting in simulated memory.
package fdt

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/u-root/u-root/pkg/dt"

	"github.com/linuxboot/mxsboot/pkg/env"
	"github.com/linuxboot/mxsboot/pkg/layout"
	"github.com/linuxboot/mxsboot/pkg/physmem"
)

const (
	// Magic is the big-endian signature at the start of every blob.
	Magic = 0xd00dfeed

	// HeaderSize is the size of the version 17 header.
	HeaderSize = 0x28

	// ReservePad is the extra room reserved behind a relocated blob, so
	// it can grow after relocation.
	ReservePad = 0x1000
)

// ErrBadMagic means the address does not hold a device tree.
type ErrBadMagic struct {
	Addr  uint64
	Magic uint32
}

func (err *ErrBadMagic) Error() string {
	return fmt.Sprintf("no device tree at 0x%08x (magic 0x%08x)", err.Addr, err.Magic)
}

// TotalSize returns the totalsize header field of the blob at addr.
func TotalSize(mem *physmem.Memory, addr uint64) (uint64, error) {
	hdr, err := mem.Read(addr, 8)
	if err != nil {
		return 0, err
	}
	if magic := binary.BigEndian.Uint32(hdr); magic != Magic {
		return 0, &ErrBadMagic{Addr: addr, Magic: magic}
	}
	size := uint64(binary.BigEndian.Uint32(hdr[4:]))
	if size < HeaderSize {
		return 0, fmt.Errorf("device tree at 0x%08x has invalid total size 0x%x", addr, size)
	}
	return size, nil
}

// ReserveSize returns the number of bytes to reserve for a relocated copy
// of a blob of the given total size.
func ReserveSize(totalSize uint64) uint64 {
	return layout.AlignUp(totalSize+ReservePad, layout.Align32)
}

// Load parses the blob at addr.
func Load(mem *physmem.Memory, addr uint64) (*dt.FDT, error) {
	size, err := TotalSize(mem, addr)
	if err != nil {
		return nil, err
	}
	r, err := mem.Snapshot(addr, size)
	if err != nil {
		return nil, err
	}
	tree, err := dt.ReadFDT(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse device tree at 0x%08x: %w", addr, err)
	}
	return tree, nil
}

// Model returns the root node's "model" property, or "" if there is none.
func Model(tree *dt.FDT) string {
	if tree == nil || tree.RootNode == nil {
		return ""
	}
	for _, p := range tree.RootNode.Properties {
		if p.Name == "model" {
			return strings.TrimRight(string(p.Value), "\x00")
		}
	}
	return ""
}

// ControlAddr returns the address of the control device tree, honoring an
// "fdtcontroladdr" override in the environment.
func ControlAddr(e *env.Env, def uint64) uint64 {
	if e == nil {
		return def
	}
	return e.GetULong("fdtcontroladdr", 16, def)
}
