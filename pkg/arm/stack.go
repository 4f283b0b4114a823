// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package arm

import (
	"github.com/linuxboot/mxsboot/pkg/global"
)

const (
	// abortStackSPL leaves 32 words for the abort stack in the SPL.
	abortStackSPL = 128
	// abortStack leaves 3 words for the abort stack plus 1 for alignment.
	abortStack = 16
)

// ReserveStacks places the exception stack at the current stack top and
// moves the initial stack below it. irqStackSize is carved out for
// dedicated IRQ and FIQ stacks when interrupts are used.
func ReserveStacks(gd *global.Data, spl bool, irqStackSize uint64) error {
	if spl {
		gd.StartAddrSP -= abortStackSPL
		gd.IRQSP = gd.StartAddrSP
		return nil
	}
	gd.IRQSP = gd.StartAddrSP
	gd.StartAddrSP -= irqStackSize
	gd.StartAddrSP -= abortStack
	return nil
}
