// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arm implements the ARM specific parts of the boot flow: the
// boot loader image with its dynamic relocations, the exception stack
// reservation and the code relocation itself.
package arm

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/linuxboot/mxsboot/pkg/bytes"
	"github.com/linuxboot/mxsboot/pkg/physmem"
)

// ELF relocation types found in .rel.dyn.
const (
	RelARMNone     = 0
	RelARMRelative = 23

	// RelEntrySize is the size of an Elf32_Rel entry.
	RelEntrySize = 8
)

// Well-known symbols of the image.
const (
	SymStart       = "_start"
	SymJumpTable   = "jt"
	SymSerialDev   = "serial_dev"
	SymEnvironment = "environment"
)

// Image is a position dependent boot loader image linked at TextBase.
type Image struct {
	TextBase uint64
	// Code is everything that is copied on relocation: text, read-only
	// data and initialized data.
	Code []byte
	// BSSSize is the size of the zero-initialized data following Code.
	BSSSize uint64
	// RelDyn holds the link-time addresses of the words which need an
	// R_ARM_RELATIVE fixup when the image moves.
	RelDyn []uint64
	// Symbols maps symbol names to link-time addresses.
	Symbols map[string]uint64
}

// MonLen returns the size of the image including BSS.
func (img *Image) MonLen() uint64 {
	return uint64(len(img.Code)) + img.BSSSize
}

// Range returns the link-time address range of the image including BSS.
func (img *Image) Range() bytes.Range {
	return bytes.Range{Offset: img.TextBase, Length: img.MonLen()}
}

// CopyEnd returns the first link-time address after the copied part.
func (img *Image) CopyEnd() uint64 {
	return img.TextBase + uint64(len(img.Code))
}

// BSSStart returns the link-time address of BSS.
func (img *Image) BSSStart() uint64 {
	return img.CopyEnd()
}

// BSSEnd returns the first link-time address after BSS.
func (img *Image) BSSEnd() uint64 {
	return img.TextBase + img.MonLen()
}

// Symbol returns the link-time address of a symbol.
func (img *Image) Symbol(name string) (uint64, bool) {
	addr, ok := img.Symbols[name]
	return addr, ok
}

// Validate checks that every relocation points to an aligned word inside
// the copied part of the image.
func (img *Image) Validate() error {
	if img.TextBase%4 != 0 {
		return fmt.Errorf("text base 0x%08x is not word aligned", img.TextBase)
	}
	for _, addr := range img.RelDyn {
		if addr%4 != 0 || addr < img.TextBase || addr+4 > img.CopyEnd() {
			return fmt.Errorf("relocation at 0x%08x is outside of the image [0x%08x, 0x%08x)", addr, img.TextBase, img.CopyEnd())
		}
	}
	return nil
}

// Load places the image at its link address and clears BSS.
func (img *Image) Load(mem *physmem.Memory) error {
	if _, err := mem.WriteAt(img.Code, int64(img.TextBase)); err != nil {
		return fmt.Errorf("unable to load the image: %w", err)
	}
	return mem.Zero(img.BSSStart(), img.BSSSize)
}

// ParseRelDyn decodes a .rel.dyn section. Only R_ARM_RELATIVE entries are
// kept; R_ARM_NONE entries are skipped and any other type is an error.
func ParseRelDyn(b []byte) ([]uint64, error) {
	if len(b)%RelEntrySize != 0 {
		return nil, fmt.Errorf("relocation section size %d is not a multiple of %d", len(b), RelEntrySize)
	}
	var addrs []uint64
	for off := 0; off < len(b); off += RelEntrySize {
		rOffset := binary.LittleEndian.Uint32(b[off:])
		rInfo := binary.LittleEndian.Uint32(b[off+4:])
		switch rInfo & 0xff {
		case RelARMRelative:
			addrs = append(addrs, uint64(rOffset))
		case RelARMNone:
		default:
			return nil, fmt.Errorf("unsupported relocation type %d at entry %d", rInfo&0xff, off/RelEntrySize)
		}
	}
	return addrs, nil
}

// EncodeRelDyn builds a .rel.dyn section of R_ARM_RELATIVE entries.
func EncodeRelDyn(addrs []uint64) []byte {
	b := make([]byte, 0, len(addrs)*RelEntrySize)
	for _, addr := range addrs {
		b = binary.LittleEndian.AppendUint32(b, uint32(addr))
		b = binary.LittleEndian.AppendUint32(b, RelARMRelative)
	}
	return b
}

// Layout of a synthetic image.
const (
	synthVectors    = 0x000
	synthJumpTable  = 0x040
	synthJTEntries  = 16
	synthSerialDev  = 0x100
	synthSerialOps  = 6
	synthSerialName = 16
	synthEnv        = 0x1000
	ldrPC           = 0xe59ff018
)

// SyntheticImage builds an image with the structure of a real boot
// loader: an exception vector table, a jump table and a serial driver
// descriptor full of absolute pointers, and an embedded environment.
func SyntheticImage(textBase, codeSize, bssSize uint64, env []byte) (*Image, error) {
	if codeSize < synthEnv+uint64(len(env)) {
		return nil, fmt.Errorf("code size 0x%x is too small for a 0x%x byte environment", codeSize, len(env))
	}
	img := &Image{
		TextBase: textBase,
		Code:     make([]byte, codeSize),
		BSSSize:  bssSize,
		Symbols: map[string]uint64{
			SymStart:     textBase,
			SymJumpTable: textBase + synthJumpTable,
			SymSerialDev: textBase + synthSerialDev,
		},
	}
	ptr := func(off, target uint64) {
		binary.LittleEndian.PutUint32(img.Code[off:], uint32(target))
		img.RelDyn = append(img.RelDyn, textBase+off)
	}

	for i := uint64(0); i < 8; i++ {
		binary.LittleEndian.PutUint32(img.Code[synthVectors+4*i:], ldrPC)
		ptr(synthVectors+0x20+4*i, textBase+0x200+4*i)
	}
	for i := uint64(0); i < synthJTEntries; i++ {
		ptr(synthJumpTable+4*i, textBase+0x400+0x10*i)
	}
	copy(img.Code[synthSerialDev:], "mx28_dbg_serial")
	for i := uint64(0); i < synthSerialOps; i++ {
		ptr(synthSerialDev+synthSerialName+4*i, textBase+0x800+0x20*i)
	}
	if len(env) != 0 {
		copy(img.Code[synthEnv:], env)
		img.Symbols[SymEnvironment] = textBase + synthEnv
	}
	sort.Slice(img.RelDyn, func(i, j int) bool { return img.RelDyn[i] < img.RelDyn[j] })
	return img, nil
}
