// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/linuxboot/mxsboot/cmds/mxsboot/commands"
)

var _ commands.Command = (*Command)(nil)

type Command struct {
	commands.BoardOptions
	Format *string `long:"format" description:"output format [text, json]"`

	stdout io.Writer
}

type Format int

const (
	FormatUndefined = Format(iota)
	FormatText
	FormatJSON
)

func ParseFormat(s string) Format {
	switch strings.Trim(strings.ToLower(s), " ") {
	case "text":
		return FormatText
	case "json":
		return FormatJSON
	}
	return FormatUndefined
}

// region is the JSON form of a reservation.
type region struct {
	Name  string `json:"name"`
	Base  string `json:"base"`
	End   string `json:"end"`
	Size  uint64 `json:"size"`
	Align uint64 `json:"align"`
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "prints the memory layout computed by board_init_f"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return "Runs board_init_f only and prints every reservation made from the top\n" +
		"of DRAM downwards, together with the resulting stack pointers."
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	format := FormatText
	if cmd.Format != nil {
		format = ParseFormat(*cmd.Format)
		if format == FormatUndefined {
			return commands.ErrArgs{Err: fmt.Errorf("unknown format '%s'", *cmd.Format)}
		}
	}
	out := commands.Stdout(cmd.stdout)

	b, err := cmd.NewBoard(io.Discard)
	if err != nil {
		return err
	}
	if err := b.InitF(0); err != nil {
		return fmt.Errorf("board_init_f failed: %w", err)
	}
	if err := b.Map.Validate(); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}

	switch format {
	case FormatText:
		fmt.Fprintf(out, "%s\n", b.Map.Table().Render())
		fmt.Fprintf(out, "relocaddr   = 0x%08x\n", b.GD.RelocAddr)
		fmt.Fprintf(out, "irq_sp      = 0x%08x\n", b.GD.IRQSP)
		fmt.Fprintf(out, "sp start    = 0x%08x\n", b.GD.StartAddrSP)
	case FormatJSON:
		regions := make([]region, 0, len(b.Map.Regions))
		for _, r := range b.Map.Regions {
			regions = append(regions, region{
				Name:  r.Name,
				Base:  fmt.Sprintf("0x%08x", r.Base),
				End:   fmt.Sprintf("0x%08x", r.Base+r.Size),
				Size:  r.Size,
				Align: r.Align,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(regions)
	}
	return nil
}
