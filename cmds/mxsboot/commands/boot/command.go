// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boot

import (
	"fmt"
	"io"

	"github.com/linuxboot/mxsboot/cmds/mxsboot/commands"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.BoardOptions
	Stages bool `long:"stages" description:"print the bootstage report after the boot"`

	stdout io.Writer
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "boots the simulated board up to the relocated image"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "Runs board_init_f, relocates the image to the top of DRAM and runs the\n" +
		"post-relocation setup. The board's console is printed to stdout."
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

	b, err := cmd.NewBoard(out)
	if err != nil {
		return err
	}
	if err := b.Boot(0); err != nil {
		return fmt.Errorf("boot failed: %w", err)
	}
	if cmd.Stages {
		fmt.Fprintf(out, "%s\n", b.Stages.Report().Render())
	}
	return nil
}
