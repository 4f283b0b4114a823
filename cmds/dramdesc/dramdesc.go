// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// dramdesc creates and decodes the DRAM size descriptor the MXS first stage
// loader leaves in on-chip RAM.
//
// Synopsis:
//
//	dramdesc --size 128 [-o FILE]
//	dramdesc FILE
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/linuxboot/mxsboot/pkg/mxs"
)

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dramdesc", flag.ContinueOnError)
	sizeMiB := fs.Uint64P("size", "s", 0, "encode a descriptor for this DRAM size in MiB")
	output := fs.StringP("output", "o", "", "write the encoded descriptor to this file instead of a hex dump")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *sizeMiB != 0 {
		if fs.NArg() != 0 {
			return fmt.Errorf("--size takes no arguments")
		}
		b, err := mxs.EncodeDescriptor(*sizeMiB)
		if err != nil {
			return err
		}
		if *output != "" {
			return os.WriteFile(*output, b, 0o644)
		}
		fmt.Fprint(stdout, hex.Dump(b))
		return nil
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: dramdesc --size MIB [-o FILE] | dramdesc FILE")
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	size, err := mxs.DecodeDescriptor(b)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d MiB\n", size)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}
