// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arm

import (
	"fmt"

	"github.com/linuxboot/mxsboot/pkg/global"
	"github.com/linuxboot/mxsboot/pkg/log"
	"github.com/linuxboot/mxsboot/pkg/physmem"
)

// ResumeFunc continues the boot in the relocated image. gd is the
// relocated context, sp the new stack pointer.
type ResumeFunc func(gd *global.Data, sp uint64) error

// Relocator moves a running image to its final place in DRAM and
// continues there.
type Relocator struct {
	Mem    *physmem.Memory
	Image  *Image
	Resume ResumeFunc
	Logger log.Logger

	// SP is the stack pointer after the hand-off.
	SP uint64
}

func (r *Relocator) logger() log.Logger {
	if r.Logger == nil {
		return log.DefaultLogger
	}
	return r.Logger
}

// RelocateCode copies the image to dest, applies the dynamic
// relocations, clears BSS, fixes up the context stored at newGD and jumps
// to the resume function with the stack at newSP. An error is returned if
// the hand-off cannot start; otherwise the result of the continuation is
// returned.
func (r *Relocator) RelocateCode(newSP, newGD, dest uint64) error {
	img := r.Image
	if err := img.Validate(); err != nil {
		return err
	}
	off := (dest - img.TextBase) & global.WordMask
	codeLen := uint64(len(img.Code))
	r.logger().Debugf("relocating 0x%x bytes from 0x%08x to 0x%08x (offset 0x%08x)", codeLen, img.TextBase, dest, off)

	if dest != img.TextBase {
		if err := r.Mem.Copy(dest, img.TextBase, codeLen); err != nil {
			return fmt.Errorf("unable to copy the image: %w", err)
		}
	}

	for _, addr := range img.RelDyn {
		at := (addr + off) & global.WordMask
		v, err := r.Mem.Read32(at)
		if err != nil {
			return fmt.Errorf("unable to apply relocation at 0x%08x: %w", at, err)
		}
		if err := r.Mem.Write32(at, v+uint32(off)); err != nil {
			return fmt.Errorf("unable to apply relocation at 0x%08x: %w", at, err)
		}
	}

	if err := r.Mem.Zero(dest+codeLen, img.BSSSize); err != nil {
		return fmt.Errorf("unable to clear BSS: %w", err)
	}

	raw, err := r.Mem.Read(newGD, global.DataSize)
	if err != nil {
		return fmt.Errorf("unable to read the relocated global data: %w", err)
	}
	gd := global.New()
	if err := gd.UnmarshalBinary(raw); err != nil {
		return err
	}
	gd.RelocatePointers(img.Range(), off)
	gd.Flags |= global.FlagReloc
	raw, err = gd.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := r.Mem.WriteAt(raw, int64(newGD)); err != nil {
		return err
	}

	r.SP = newSP
	if r.Resume == nil {
		return nil
	}
	return r.Resume(gd, newSP)
}
