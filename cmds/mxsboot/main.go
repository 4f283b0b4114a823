// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// mxsboot simulates the pre-relocation boot of an i.MX28 board (MX28EVK):
// board_init_f brings up the console and DRAM, reserves the final memory
// layout from the top of DRAM downwards and hands over to the relocated
// image.
//
// Synopsis:
//
//	mxsboot boot [options]
//	mxsboot layout [--format=json] [options]
//	mxsboot bdinfo [options]
//
// An example:
//
//	mxsboot boot --stages
//	mxsboot layout --dram 64
//	mxsboot boot -i u-boot.bin.xz --rel-dyn rel.dyn --bss-size $((16#6a10))
//	mxsboot bdinfo -t board.yaml --fuses $((16#1e2f3a4b))
//
// Description:
//
//	boot:   Runs the full boot and prints the board's console
//	layout: Prints the reservations made by board_init_f
//	bdinfo: Prints the board info handed to the next stage
package main

import (
	"log"

	"github.com/jessevdk/go-flags"

	"github.com/linuxboot/mxsboot/cmds/mxsboot/commands"
	"github.com/linuxboot/mxsboot/cmds/mxsboot/commands/bdinfo"
	"github.com/linuxboot/mxsboot/cmds/mxsboot/commands/boot"
	"github.com/linuxboot/mxsboot/cmds/mxsboot/commands/layout"
)

var (
	knownCommands = map[string]commands.Command{
		"boot":   &boot.Command{},
		"layout": &layout.Command{},
		"bdinfo": &bdinfo.Command{},
	}
)

func main() {
	flagsParser := flags.NewParser(nil, flags.Default)
	for commandName, command := range knownCommands {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}

	// parse arguments and execute the appropriate command
	if _, err := flagsParser.Parse(); err != nil {
		log.Fatal(err)
	}
}
