// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package physmem simulates a flat physical address space made of RAM
// banks. Storage is allocated lazily per page, so a board with hundreds of
// megabytes of DRAM only costs the pages that are actually written.
package physmem

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/xaionaro-go/bytesextra"

	"github.com/linuxboot/mxsboot/pkg/bytes"
)

// PageSize is the granularity of the lazy backing store.
const PageSize = 4096

// ErrUnmapped means an access touched an address outside of every bank.
var ErrUnmapped = errors.New("address is not backed by any memory bank")

// ErrAccess describes a failed memory access.
type ErrAccess struct {
	Addr uint64
	Size uint64
	Err  error
}

func (err *ErrAccess) Error() string {
	return fmt.Sprintf("access [0x%08x, 0x%08x): %v", err.Addr, err.Addr+err.Size, err.Err)
}

func (err *ErrAccess) Unwrap() error {
	return err.Err
}

// Bank is a named RAM region.
type Bank struct {
	Name string
	bytes.Range
}

// Memory is a sparse physical memory.
type Memory struct {
	banks []Bank
	pages map[uint64]*[PageSize]byte
}

// New returns a Memory with the given banks.
func New(banks ...Bank) (*Memory, error) {
	m := &Memory{pages: map[uint64]*[PageSize]byte{}}
	for _, b := range banks {
		if err := m.AddBank(b); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddBank makes the bank's addresses accessible. Banks may not overlap.
func (m *Memory) AddBank(b Bank) error {
	if b.Length == 0 {
		return fmt.Errorf("bank '%s' is empty", b.Name)
	}
	for _, other := range m.banks {
		if other.Intersect(b.Range) {
			return fmt.Errorf("bank '%s' %s overlaps bank '%s' %s", b.Name, b.Range, other.Name, other.Range)
		}
	}
	m.banks = append(m.banks, b)
	return nil
}

// Banks returns the configured banks.
func (m *Memory) Banks() []Bank {
	return append([]Bank(nil), m.banks...)
}

func (m *Memory) check(addr, size uint64) error {
	if size == 0 {
		return nil
	}
	for _, b := range m.banks {
		if addr >= b.Offset && addr+size <= b.End() && addr+size > addr {
			return nil
		}
	}
	return &ErrAccess{Addr: addr, Size: size, Err: ErrUnmapped}
}

// ReadAt implements io.ReaderAt over the physical address space.
func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	addr := uint64(off)
	if err := m.check(addr, uint64(len(p))); err != nil {
		return 0, err
	}
	for n := 0; n < len(p); {
		cur := addr + uint64(n)
		page, pageOff := cur/PageSize, cur%PageSize
		chunk := len(p) - n
		if rem := int(PageSize - pageOff); chunk > rem {
			chunk = rem
		}
		if pg := m.pages[page]; pg != nil {
			copy(p[n:n+chunk], pg[pageOff:])
		} else {
			bytes.Zero(p[n : n+chunk])
		}
		n += chunk
	}
	return len(p), nil
}

// WriteAt implements io.WriterAt over the physical address space.
func (m *Memory) WriteAt(p []byte, off int64) (int, error) {
	addr := uint64(off)
	if err := m.check(addr, uint64(len(p))); err != nil {
		return 0, err
	}
	for n := 0; n < len(p); {
		cur := addr + uint64(n)
		page, pageOff := cur/PageSize, cur%PageSize
		chunk := len(p) - n
		if rem := int(PageSize - pageOff); chunk > rem {
			chunk = rem
		}
		pg := m.pages[page]
		if pg == nil {
			pg = new([PageSize]byte)
			m.pages[page] = pg
		}
		copy(pg[pageOff:], p[n:n+chunk])
		n += chunk
	}
	return len(p), nil
}

// Read returns a copy of size bytes at addr.
func (m *Memory) Read(addr, size uint64) ([]byte, error) {
	b := make([]byte, size)
	if _, err := m.ReadAt(b, int64(addr)); err != nil {
		return nil, err
	}
	return b, nil
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint64) (uint32, error) {
	var b [4]byte
	if _, err := m.ReadAt(b[:], int64(addr)); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint64, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := m.WriteAt(b[:], int64(addr))
	return err
}

// Zero clears size bytes at addr (memset to 0).
func (m *Memory) Zero(addr, size uint64) error {
	if err := m.check(addr, size); err != nil {
		return err
	}
	for size > 0 {
		page, pageOff := addr/PageSize, addr%PageSize
		chunk := PageSize - pageOff
		if chunk > size {
			chunk = size
		}
		if pg := m.pages[page]; pg != nil {
			bytes.Zero(pg[pageOff : pageOff+chunk])
		}
		addr += chunk
		size -= chunk
	}
	return nil
}

// Copy moves size bytes from src to dst. Overlapping ranges are handled
// like memmove.
func (m *Memory) Copy(dst, src, size uint64) error {
	buf, err := m.Read(src, size)
	if err != nil {
		return err
	}
	_, err = m.WriteAt(buf, int64(dst))
	return err
}

// Snapshot returns a seekable reader over a copy of [addr, addr+size).
func (m *Memory) Snapshot(addr, size uint64) (io.ReadSeeker, error) {
	buf, err := m.Read(addr, size)
	if err != nil {
		return nil, err
	}
	return bytesextra.NewReadWriteSeeker(buf), nil
}

// Contains reports whether [addr, addr+size) is fully backed by a bank.
func (m *Memory) Contains(addr, size uint64) bool {
	return m.check(addr, size) == nil
}
