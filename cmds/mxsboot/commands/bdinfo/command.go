// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bdinfo

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/linuxboot/mxsboot/cmds/mxsboot/commands"
	"github.com/linuxboot/mxsboot/pkg/global"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.BoardOptions

	stdout io.Writer
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the board info after the boot"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return ""
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	out := commands.Stdout(cmd.stdout)

	b, err := cmd.NewBoard(io.Discard)
	if err != nil {
		return err
	}
	if err := b.Boot(0); err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}
	if err := b.LoadBoardInfo(); err != nil {
		return err
	}
	printBoardInfo(out, b.BD, b.GD)
	return nil
}

func printBoardInfo(w io.Writer, bd *global.BoardInfo, gd *global.Data) {
	fmt.Fprintf(w, "arch_number = 0x%08x\n", bd.ArchNumber)
	fmt.Fprintf(w, "boot_params = 0x%08x\n", bd.BootParams)
	for i, bank := range bd.DRAM {
		if bank.Size == 0 {
			continue
		}
		fmt.Fprintf(w, "DRAM bank   = 0x%08x\n", i)
		fmt.Fprintf(w, "-> start    = 0x%08x\n", bank.Start)
		fmt.Fprintf(w, "-> size     = 0x%08x (%s)\n", bank.Size, humanize.IBytes(bank.Size))
	}
	if len(bd.EnetAddr) != 0 {
		fmt.Fprintf(w, "ethaddr     = %s\n", bd.EnetAddr)
	}
	fmt.Fprintf(w, "baudrate    = %d bps\n", gd.Baudrate)
	fmt.Fprintf(w, "TLB addr    = 0x%08x\n", gd.Arch.TLBAddr)
	fmt.Fprintf(w, "relocaddr   = 0x%08x\n", gd.RelocAddr)
	fmt.Fprintf(w, "reloc off   = 0x%08x\n", gd.RelocOff)
	fmt.Fprintf(w, "irq_sp      = 0x%08x\n", gd.IRQSP)
	fmt.Fprintf(w, "sp start    = 0x%08x\n", gd.StartAddrSP)
	fmt.Fprintf(w, "flags       = %s\n", gd.Flags)
}
