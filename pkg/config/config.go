// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config describes a boot target: memory geometry, link address,
// console parameters and the optional features compiled into the boot
// loader.
package config

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/linuxboot/mxsboot/pkg/layout"
)

//go:embed mx28evk.yaml
var mx28evkYAML []byte

// Arch is the CPU architecture family. It decides who triggers the
// relocation at the end of the pre-relocation sequence.
type Arch string

// Supported architectures.
const (
	ArchARM     Arch = "arm"
	ArchGeneric Arch = "generic"
)

// Region is a physical memory region.
type Region struct {
	Base uint64 `yaml:"base"`
	Size uint64 `yaml:"size"`
}

// End returns the first address after the region.
func (r Region) End() uint64 {
	return r.Base + r.Size
}

// Features are the optional parts of the init sequence.
type Features struct {
	// MMU reserves a page table for the MMU and caches.
	MMU bool `yaml:"mmu"`
	// FDT enables the control device tree and its relocation.
	FDT bool `yaml:"fdt"`
	// SPL builds the secondary program loader flavour, which has no
	// malloc arena and no board info of its own.
	SPL bool `yaml:"spl"`
	// Watchdog starts the hardware watchdog and kicks it between steps.
	Watchdog bool `yaml:"watchdog"`
	// PRAM reserves protected RAM at the top of memory.
	PRAM bool `yaml:"pram"`
	// Trace reserves a function trace buffer.
	Trace bool `yaml:"trace"`
	// DisplayCPUInfo prints the SoC type and clock.
	DisplayCPUInfo bool `yaml:"display_cpuinfo"`
	// ArchMiscInit re-points the exception vectors after relocation.
	ArchMiscInit bool `yaml:"arch_misc_init"`
}

// Target is a boot target descriptor.
type Target struct {
	Name       string `yaml:"name"`
	Model      string `yaml:"model"`
	Compatible string `yaml:"compatible"`
	Arch       Arch   `yaml:"arch"`

	TextBase    uint64 `yaml:"text_base"`
	SDRAM       Region `yaml:"sdram"`
	OCRAM       Region `yaml:"ocram"`
	DRAMSizeMiB uint64 `yaml:"dram_size_mib"`

	MallocLen    uint64 `yaml:"malloc_len"`
	PgtableSize  uint64 `yaml:"pgtable_size"`
	MemTopHide   uint64 `yaml:"mem_top_hide"`
	IRQStackSize uint64 `yaml:"irq_stack_size"`
	EnvSize      uint64 `yaml:"env_size"`
	PRAMKiB      uint64 `yaml:"pram_kib"`
	TraceSize    uint64 `yaml:"trace_size"`

	Baudrate  uint64 `yaml:"baudrate"`
	UARTClock uint64 `yaml:"uart_clock"`
	MachType  uint32 `yaml:"mach_type"`
	FDTAddr   uint64 `yaml:"fdt_addr"`

	Features   Features          `yaml:"features"`
	DefaultEnv map[string]string `yaml:"default_env"`
}

// Default returns the MX28EVK descriptor.
func Default() *Target {
	t, err := decode(nil)
	if err != nil {
		panic(fmt.Sprintf("built-in target descriptor is broken: %v", err))
	}
	return t
}

// Parse decodes and validates a YAML descriptor. Fields missing from the
// document keep the MX28EVK defaults.
func Parse(b []byte) (*Target, error) {
	return decode(b)
}

func decode(overlay []byte) (*Target, error) {
	var t Target
	if err := yaml.Unmarshal(mx28evkYAML, &t); err != nil {
		return nil, err
	}
	if len(overlay) != 0 {
		if err := yaml.Unmarshal(overlay, &t); err != nil {
			return nil, fmt.Errorf("unable to parse target descriptor: %w", err)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Load reads a descriptor from r.
func Load(r io.Reader) (*Target, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// LoadFile reads a descriptor from a file.
func LoadFile(path string) (*Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Validate checks the descriptor for consistency and reports every
// problem found.
func (t *Target) Validate() error {
	var result *multierror.Error
	fail := func(format string, args ...interface{}) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	switch t.Arch {
	case ArchARM, ArchGeneric:
	default:
		fail("unknown architecture '%s'", t.Arch)
	}
	if t.SDRAM.Size == 0 {
		fail("SDRAM size is zero")
	}
	if t.TextBase < t.SDRAM.Base || t.TextBase >= t.SDRAM.End() {
		fail("text base 0x%08x is outside of SDRAM [0x%08x, 0x%08x)", t.TextBase, t.SDRAM.Base, t.SDRAM.End())
	}
	if t.OCRAM.Size != 0 && t.OCRAM.End() > t.SDRAM.Base && t.OCRAM.Base < t.SDRAM.End() {
		fail("OCRAM overlaps SDRAM")
	}
	if t.DRAMSizeMiB<<20 > t.SDRAM.Size {
		fail("expected DRAM size %d MiB exceeds the SDRAM window", t.DRAMSizeMiB)
	}
	if t.MemTopHide >= t.SDRAM.Size && t.SDRAM.Size != 0 {
		fail("mem_top_hide 0x%x hides all of SDRAM", t.MemTopHide)
	}
	if t.Features.MMU && (t.PgtableSize == 0 || !layout.IsPowerOfTwo(t.PgtableSize)) {
		fail("page table size 0x%x must be a non-zero power of two", t.PgtableSize)
	}
	if t.Features.Trace && t.TraceSize == 0 {
		fail("trace buffer enabled with zero size")
	}
	if t.Baudrate == 0 {
		fail("baud rate is zero")
	}
	if t.UARTClock == 0 {
		fail("UART clock is zero")
	}
	if t.EnvSize != 0 && t.EnvSize < 8 {
		fail("environment size 0x%x is too small", t.EnvSize)
	}
	if t.Features.FDT && t.FDTAddr == 0 {
		fail("device tree enabled without a control device tree address")
	}
	return result.ErrorOrNil()
}

// Encode writes the descriptor as YAML.
func (t *Target) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return err
	}
	return enc.Close()
}
