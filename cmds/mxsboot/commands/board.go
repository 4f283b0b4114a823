// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/linuxboot/mxsboot/pkg/arm"
	"github.com/linuxboot/mxsboot/pkg/boardinit"
	"github.com/linuxboot/mxsboot/pkg/compression"
	"github.com/linuxboot/mxsboot/pkg/config"
	"github.com/linuxboot/mxsboot/pkg/fdt"
	"github.com/linuxboot/mxsboot/pkg/log"
	"github.com/linuxboot/mxsboot/pkg/mx28evk"
)

// BoardOptions are the options shared by the commands which boot the
// simulated board.
type BoardOptions struct {
	TargetPath string `short:"t" long:"target" description:"path to a YAML target descriptor overriding the MX28EVK defaults"`
	ImagePath  string `short:"i" long:"image" description:"path to a raw (optionally lz4/xz/lzma/zstd compressed) boot loader image"`
	RelDynPath string `long:"rel-dyn" description:"path to the .rel.dyn section of the image"`
	BSSSize    uint64 `long:"bss-size" description:"size of the image's BSS"`
	FDTPath    string `long:"fdt" description:"path to a control device tree, loaded at the target's fdt_addr (default: a built-in tree if the target enables fdt)"`
	DRAMMiB    uint64 `long:"dram" description:"DRAM size reported by the first stage loader, in MiB"`
	BootMode   uint8  `long:"boot-mode" default:"4" description:"index of the BootROM boot mode"`
	Fuses      uint32 `long:"fuses" description:"CUST0 fuse word holding the MAC address"`
	Debug      bool   `short:"d" long:"debug" description:"print debug messages"`
}

// Target loads the target descriptor.
func (opts *BoardOptions) Target() (*config.Target, error) {
	if opts.TargetPath == "" {
		return config.Default(), nil
	}
	t, err := config.LoadFile(opts.TargetPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load the target descriptor '%s': %w", opts.TargetPath, err)
	}
	return t, nil
}

// Image loads the boot loader image for t. Without an image path the
// synthetic default image is used.
func (opts *BoardOptions) Image(t *config.Target) (*arm.Image, error) {
	if opts.ImagePath == "" {
		if opts.RelDynPath != "" || opts.BSSSize != 0 {
			return nil, ErrArgs{Err: fmt.Errorf("--rel-dyn and --bss-size require --image")}
		}
		return mx28evk.DefaultImage(t)
	}

	raw, err := os.ReadFile(opts.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read the image file '%s': %w", opts.ImagePath, err)
	}
	var code []byte
	if c := compression.CompressorFromFilename(opts.ImagePath); c != nil {
		code, err = c.Decode(raw)
	} else {
		code, err = compression.Decompress(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to decompress the image file '%s': %w", opts.ImagePath, err)
	}
	img := &arm.Image{
		TextBase: t.TextBase,
		Code:     code,
		BSSSize:  opts.BSSSize,
	}
	if opts.RelDynPath != "" {
		rel, err := os.ReadFile(opts.RelDynPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read the relocation file '%s': %w", opts.RelDynPath, err)
		}
		if img.RelDyn, err = arm.ParseRelDyn(rel); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// NewBoard powers up the simulated board. Console output goes to out.
func (opts *BoardOptions) NewBoard(out io.Writer) (*mx28evk.Board, error) {
	if opts.Debug {
		log.SetDebug(true)
	}
	t, err := opts.Target()
	if err != nil {
		return nil, err
	}
	img, err := opts.Image(t)
	if err != nil {
		return nil, err
	}
	var blob []byte
	switch {
	case opts.FDTPath != "":
		if blob, err = os.ReadFile(opts.FDTPath); err != nil {
			return nil, fmt.Errorf("unable to read the device tree '%s': %w", opts.FDTPath, err)
		}
		t.Features.FDT = true
	case t.Features.FDT:
		if blob, err = fdt.Build(t.Model, t.Compatible); err != nil {
			return nil, err
		}
	}

	b, err := mx28evk.New(mx28evk.Options{
		Target:      t,
		Image:       img,
		Output:      out,
		BootModeIdx: opts.BootMode,
		DRAMMiB:     opts.DRAMMiB,
		FDT:         blob,
		Fuses:       opts.Fuses,
	})
	if err != nil {
		return nil, err
	}
	// Report the failure instead of hanging the tool.
	b.Halter = boardinit.HaltFunc(func(error) {
		fmt.Fprint(out, boardinit.HangMessage)
	})
	return b, nil
}
