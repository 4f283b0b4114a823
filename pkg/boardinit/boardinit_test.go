// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boardinit

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxboot/mxsboot/pkg/arm"
	"github.com/linuxboot/mxsboot/pkg/config"
	"github.com/linuxboot/mxsboot/pkg/env"
	"github.com/linuxboot/mxsboot/pkg/fdt"
	"github.com/linuxboot/mxsboot/pkg/global"
	"github.com/linuxboot/mxsboot/pkg/initcall"
	"github.com/linuxboot/mxsboot/pkg/layout"
	"github.com/linuxboot/mxsboot/pkg/log"
)

const (
	codeSize = 0xb0000
	bssSize  = 0x6a10
)

// armPlatform is the generic platform with the ARM exception stack.
type armPlatform struct {
	Weak
}

func (armPlatform) ArchReserveStacks(b *Board) error {
	return arm.ReserveStacks(b.GD, b.Target.Features.SPL, b.Target.IRQStackSize)
}

type failingDRAM struct {
	armPlatform
}

func (failingDRAM) DRAMInit(*Board) error {
	return errors.New("DRAM controller timeout")
}

type haltRecorder struct {
	errs []error
}

func (h *haltRecorder) Halt(err error) {
	h.errs = append(h.errs, err)
}

type testBoard struct {
	*Board
	out   *strings.Builder
	halts *haltRecorder
}

func storedEnv(t *testing.T, target *config.Target, vars map[string]string) []byte {
	image, err := env.New(vars).Encode(int(target.EnvSize))
	require.NoError(t, err)
	return image
}

func newTestBoard(t *testing.T, target *config.Target, p Platform, img *arm.Image) *testBoard {
	mem, err := NewMemory(target)
	require.NoError(t, err)

	out := &strings.Builder{}
	b, err := New(target, p, mem, img, out)
	require.NoError(t, err)
	b.Logger = log.New(io.Discard)
	halts := &haltRecorder{}
	b.Halter = halts
	return &testBoard{Board: b, out: out, halts: halts}
}

func defaultBoard(t *testing.T) *testBoard {
	target := config.Default()
	img, err := arm.SyntheticImage(target.TextBase, codeSize, bssSize, storedEnv(t, target, target.DefaultEnv))
	require.NoError(t, err)
	return newTestBoard(t, target, armPlatform{}, img)
}

func regionNames(m *layout.Map) []string {
	var names []string
	for _, r := range m.Regions {
		names = append(names, r.Name)
	}
	return names
}

func TestSequenceFNames(t *testing.T) {
	b := defaultBoard(t)
	require.Equal(t, []string{
		"setup_mon_len",
		"arch_cpu_init",
		"mark_bootstage",
		"board_early_init_f",
		"timer_init",
		"env_init",
		"init_baud_rate",
		"serial_init",
		"console_init_f",
		"display_options",
		"display_text_info",
		"print_cpuinfo",
		"announce_dram_init",
		"dram_init",
		"setup_dest_addr",
		"reserve_round_4k",
		"reserve_mmu",
		"reserve_uboot",
		"reserve_malloc",
		"reserve_board",
		"setup_machine",
		"reserve_global_data",
		"reserve_stacks",
		"setup_dram_config",
		"show_dram_config",
		"display_new_sp",
		"setup_reloc",
	}, b.SequenceF().Names())

	b.Target.Features.MMU = false
	b.Target.Features.SPL = true
	b.Target.Features.FDT = true
	b.Target.Features.Watchdog = true
	b.Target.Arch = config.ArchGeneric
	names := b.SequenceF().Names()
	require.NotContains(t, names, "reserve_mmu")
	require.NotContains(t, names, "reserve_malloc")
	require.NotContains(t, names, "reserve_board")
	require.Contains(t, names, "watchdog_init")
	require.Equal(t, "setup_fdt", names[7])
	require.Equal(t, []string{"reserve_global_data", "reserve_fdt", "reserve_stacks"}, names[20:23])
	require.Equal(t, []string{"reloc_fdt", "setup_reloc", "jump_to_copy"}, names[len(names)-3:])
}

func TestInitF(t *testing.T) {
	b := defaultBoard(t)
	require.NoError(t, b.InitF(0))
	require.Empty(t, b.halts.errs)

	gd := b.GD
	require.Equal(t, uint64(0xb6a10), gd.MonLen)
	require.Equal(t, uint64(0x8000000), gd.RAMSize)
	require.Equal(t, uint64(0x48000000), gd.RAMTop)
	require.Equal(t, uint64(0x47ff0000), gd.Arch.TLBAddr)
	require.Equal(t, uint64(0x4000), gd.Arch.TLBSize)
	require.Equal(t, uint64(0x47f39000), gd.RelocAddr)
	require.Equal(t, uint64(0x47b34fb0), gd.BD)
	require.Equal(t, uint64(0x47b34f00), gd.NewGD)
	require.Equal(t, uint64(0x47b34ef0), gd.IRQSP)
	require.Equal(t, uint64(0x47b34ee0), gd.StartAddrSP)
	require.Equal(t, uint64(0x07f37000), gd.RelocOff)
	require.Equal(t, uint64(115200), gd.Baudrate)
	require.True(t, gd.HaveConsole)
	require.NotZero(t, gd.Flags&global.FlagSerialReady)
	require.Equal(t, uint32(1), gd.EnvValid)

	require.Equal(t, []string{
		RegionTLB, RegionUBoot, RegionMalloc, RegionBoardInfo, RegionGlobalData, RegionStack, RegionArchStacks,
	}, regionNames(b.Map))
	require.NoError(t, b.Map.Validate())
	malloc, ok := b.Map.Lookup(RegionMalloc)
	require.True(t, ok)
	require.Equal(t, uint64(0x47b35000), malloc.Base)
	require.Equal(t, uint64(0x47f39000), malloc.Top)

	require.Contains(t, b.out.String(), "DRAM:  128 MiB\r\n")

	// The context was copied to its new home.
	raw, err := b.Mem.Read(gd.NewGD, global.DataSize)
	require.NoError(t, err)
	stored := global.New()
	require.NoError(t, stored.UnmarshalBinary(raw))
	require.Equal(t, gd.RelocOff, stored.RelocOff)
	require.Equal(t, gd.StartAddrSP, stored.StartAddrSP)

	// And so was the board info.
	require.NoError(t, b.LoadBoardInfo())
	require.Equal(t, uint32(3613), b.BD.ArchNumber)
	require.Equal(t, global.Bank{Start: 0x40000000, Size: 0x8000000}, b.BD.DRAM[0])
}

func TestInitFWithoutMMU(t *testing.T) {
	target := config.Default()
	target.Features.MMU = false
	target.MallocLen = 0x400000
	img, err := arm.SyntheticImage(target.TextBase, 0x10000, 0, storedEnv(t, target, target.DefaultEnv))
	require.NoError(t, err)
	b := newTestBoard(t, target, Weak{}, img)

	require.NoError(t, b.InitF(0))
	require.Equal(t, uint64(0x48000000), b.GD.RAMTop)
	require.Equal(t, uint64(0x47ff0000), b.GD.RelocAddr)
	require.Equal(t, uint64(0x47beffb0), b.GD.BD)
	require.Equal(t, uint64(0x47beff00), b.GD.NewGD)
	require.Equal(t, uint64(0x47befef0), b.GD.StartAddrSP)
	require.Zero(t, b.GD.Arch.TLBAddr)
	require.Equal(t, []string{
		RegionUBoot, RegionMalloc, RegionBoardInfo, RegionGlobalData, RegionStack,
	}, regionNames(b.Map))
	require.NoError(t, b.Map.Validate())
}

func TestInitFSkippedFeatureLeavesNoHole(t *testing.T) {
	withEnv := func(target *config.Target, vars map[string]string) map[string]string {
		merged := map[string]string{}
		for k, v := range target.DefaultEnv {
			merged[k] = v
		}
		for k, v := range vars {
			merged[k] = v
		}
		return merged
	}

	for _, tt := range []struct {
		name     string
		disabled func(*config.Target)
		empty    func(*config.Target) map[string]string
		sp       uint64
	}{
		{
			name: "fdt",
			disabled: func(target *config.Target) {
				target.Features.FDT = false
			},
			empty: func(target *config.Target) map[string]string {
				target.Features.FDT = true
				target.FDTAddr = 0x41000000
				return withEnv(target, map[string]string{"fdtcontroladdr": "0"})
			},
			sp: 0x47b34ee0,
		},
		{
			name: "mmu",
			disabled: func(target *config.Target) {
				target.Features.MMU = false
			},
			empty: func(target *config.Target) map[string]string {
				target.Features.MMU = true
				target.PgtableSize = 0
				return nil
			},
			sp: 0x47b44ee0,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			boot := func(target *config.Target, vars map[string]string) *testBoard {
				if vars == nil {
					vars = target.DefaultEnv
				}
				img, err := arm.SyntheticImage(target.TextBase, codeSize, bssSize, storedEnv(t, target, vars))
				require.NoError(t, err)
				b := newTestBoard(t, target, armPlatform{}, img)
				require.NoError(t, b.InitF(0))
				require.Empty(t, b.halts.errs)
				return b
			}

			target := config.Default()
			tt.disabled(target)
			off := boot(target, nil)

			target = config.Default()
			vars := tt.empty(target)
			on := boot(target, vars)

			require.Equal(t, uint64(0x48000000), on.GD.RAMTop)
			require.Equal(t, tt.sp, off.GD.StartAddrSP)
			require.Equal(t, off.GD.StartAddrSP, on.GD.StartAddrSP)
			require.Equal(t, off.GD.IRQSP, on.GD.IRQSP)
			require.Equal(t, off.GD.NewGD, on.GD.NewGD)
			require.Equal(t, off.GD.RelocAddr, on.GD.RelocAddr)
			require.Equal(t, regionNames(off.Map), regionNames(on.Map))
			require.Zero(t, on.GD.FDTBlob)
			require.Zero(t, on.GD.FDTSize)
		})
	}
}

func TestInitFDRAMFailure(t *testing.T) {
	target := config.Default()
	img, err := arm.SyntheticImage(target.TextBase, codeSize, bssSize, nil)
	require.NoError(t, err)
	b := newTestBoard(t, target, failingDRAM{}, img)

	err = b.InitF(0)
	var stepErr *initcall.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "dram_init", stepErr.Name)
	require.Len(t, b.halts.errs, 1)
	require.Zero(t, b.GD.RelocAddr)
	require.Zero(t, b.GD.NewGD)
	require.Empty(t, b.Map.Regions)
	require.Contains(t, b.out.String(), "DRAM:  ")
	require.NotContains(t, b.out.String(), "MiB")
	require.Contains(t, b.out.String(), "DRAM controller timeout")
}

func TestInitFUnderflow(t *testing.T) {
	target := config.Default()
	target.SDRAM.Size = 0x100000
	img, err := arm.SyntheticImage(target.TextBase, codeSize, bssSize, nil)
	require.NoError(t, err)
	b := newTestBoard(t, target, armPlatform{}, img)

	err = b.InitF(0)
	require.ErrorIs(t, err, layout.ErrUnderflow)
	var stepErr *initcall.StepError
	require.ErrorAs(t, err, &stepErr)
	require.Equal(t, "reserve_malloc", stepErr.Name)
	require.Len(t, b.halts.errs, 1)
}

func TestInitFMemTopHide(t *testing.T) {
	b := defaultBoard(t)
	b.Target.MemTopHide = 0x100000
	require.NoError(t, b.InitF(0))
	require.Equal(t, uint64(0x7f00000), b.GD.RAMSize)
	require.Equal(t, uint64(0x47f00000), b.GD.RAMTop)
	require.Equal(t, uint64(0x47ef0000), b.GD.Arch.TLBAddr)
}

func TestInitFPRAM(t *testing.T) {
	target := config.Default()
	target.Features.PRAM = true
	vars := map[string]string{"pram": "1024"}
	img, err := arm.SyntheticImage(target.TextBase, codeSize, bssSize, storedEnv(t, target, vars))
	require.NoError(t, err)
	b := newTestBoard(t, target, armPlatform{}, img)

	require.NoError(t, b.InitF(0))
	pram, ok := b.Map.Lookup(RegionPRAM)
	require.True(t, ok)
	require.Equal(t, uint64(0x47f00000), pram.Base)
	require.Equal(t, uint64(1<<20), pram.Size)
	require.Equal(t, uint64(0x47ef0000), b.GD.Arch.TLBAddr)
	require.NoError(t, b.Map.Validate())
}

func TestInitFBaudrateFromEnv(t *testing.T) {
	target := config.Default()
	vars := map[string]string{"baudrate": "57600"}
	img, err := arm.SyntheticImage(target.TextBase, codeSize, bssSize, storedEnv(t, target, vars))
	require.NoError(t, err)
	b := newTestBoard(t, target, armPlatform{}, img)

	require.NoError(t, b.InitF(0))
	require.Equal(t, uint64(57600), b.GD.Baudrate)
}

func TestInitFBadEnvironment(t *testing.T) {
	target := config.Default()
	image := storedEnv(t, target, target.DefaultEnv)
	image[0] ^= 0xff
	img, err := arm.SyntheticImage(target.TextBase, codeSize, bssSize, image)
	require.NoError(t, err)
	b := newTestBoard(t, target, armPlatform{}, img)

	require.NoError(t, b.Boot(0))
	require.Zero(t, b.GD.EnvValid)
	require.Zero(t, b.GD.EnvAddr)
	require.Equal(t, uint64(115200), b.GD.Baudrate)
	require.ErrorIs(t, b.envErr, env.ErrBadCRC)
	require.Contains(t, b.out.String(), "*** Warning - bad CRC, using default environment")
}

func TestInitFFDT(t *testing.T) {
	target := config.Default()
	target.Features.FDT = true
	target.FDTAddr = 0x41000000
	b := defaultBoardFor(t, target)

	blob, err := fdt.Build(target.Model, target.Compatible)
	require.NoError(t, err)
	_, err = b.Mem.WriteAt(blob, int64(target.FDTAddr))
	require.NoError(t, err)

	require.NoError(t, b.InitF(0))
	size := fdt.ReserveSize(uint64(len(blob)))
	require.Equal(t, size, b.GD.FDTSize)
	require.Equal(t, uint64(0x47b34f00)-size, b.GD.NewFDT)
	require.Equal(t, b.GD.NewFDT, b.GD.FDTBlob)
	require.Equal(t, []string{
		RegionTLB, RegionUBoot, RegionMalloc, RegionBoardInfo, RegionGlobalData, RegionFDT, RegionStack, RegionArchStacks,
	}, regionNames(b.Map))
	require.NoError(t, b.Map.Validate())

	tree, err := fdt.Load(b.Mem, b.GD.FDTBlob)
	require.NoError(t, err)
	require.Equal(t, target.Model, fdt.Model(tree))
}

func TestInitFBadFDT(t *testing.T) {
	target := config.Default()
	target.Features.FDT = true
	target.FDTAddr = 0x41000000
	b := defaultBoardFor(t, target)

	var stepErr *initcall.StepError
	require.ErrorAs(t, b.InitF(0), &stepErr)
	require.Equal(t, "setup_fdt", stepErr.Name)
	var magic *fdt.ErrBadMagic
	require.ErrorAs(t, stepErr, &magic)
}

func defaultBoardFor(t *testing.T, target *config.Target) *testBoard {
	img, err := arm.SyntheticImage(target.TextBase, codeSize, bssSize, storedEnv(t, target, target.DefaultEnv))
	require.NoError(t, err)
	return newTestBoard(t, target, armPlatform{}, img)
}

func TestBoot(t *testing.T) {
	b := defaultBoard(t)
	require.NoError(t, b.Boot(global.Flags(0)))
	require.Empty(t, b.halts.errs)

	off := uint64(0x07f37000)
	gd := b.GD
	require.NotZero(t, gd.Flags&global.FlagReloc)
	require.NotZero(t, gd.Flags&global.FlagFullMallocInit)
	require.NotZero(t, gd.Flags&global.FlagEnvReady)
	require.Equal(t, uint64(0x47b34ee0), b.SP)

	jt, _ := b.Image.Symbol(arm.SymJumpTable)
	require.Equal(t, jt+off, gd.JT)
	serialDev, _ := b.Image.Symbol(arm.SymSerialDev)
	require.Equal(t, serialDev+off, gd.CurSerialDev)
	environment, _ := b.Image.Symbol(arm.SymEnvironment)
	require.Equal(t, environment+env.HeaderSize+off, gd.EnvAddr)
	require.Equal(t, uint64(0x47f39000)-b.Target.MallocLen, gd.MallocBase)

	v, ok := b.Env.Get("bootdelay")
	require.True(t, ok)
	require.Equal(t, b.Target.DefaultEnv["bootdelay"], v)

	require.Contains(t, b.out.String(), "Relocated to 47f39000 (offset 07f37000), stack at 47b34ee0")
	var names []string
	for _, r := range b.Stages.Records() {
		names = append(names, r.Name)
	}
	require.Equal(t, []string{"board_init_f", "board_init_r", "main_loop"}, names)

	raw, err := b.Mem.Read(gd.NewGD, global.DataSize)
	require.NoError(t, err)
	stored := global.New()
	require.NoError(t, stored.UnmarshalBinary(raw))
	require.Equal(t, gd.Flags, stored.Flags)
	require.Equal(t, gd.JT, stored.JT)
}

func TestBootGeneric(t *testing.T) {
	target := config.Default()
	target.Arch = config.ArchGeneric
	b := defaultBoardFor(t, target)

	names := b.SequenceF().Names()
	require.Equal(t, "jump_to_copy", names[len(names)-1])
	require.NotContains(t, names, "reserve_mmu")

	require.NoError(t, b.Boot(0))
	require.NotZero(t, b.GD.Flags&global.FlagReloc)
	require.Zero(t, b.GD.Arch.TLBAddr)
	require.Equal(t, uint64(0x47f49000), b.GD.RelocAddr)
	require.Equal(t, b.GD.StartAddrSP, b.SP)
}

type relocatorFunc func(newSP, newGD, dest uint64) error

func (f relocatorFunc) RelocateCode(newSP, newGD, dest uint64) error {
	return f(newSP, newGD, dest)
}

func TestBootRelocationFailureHalts(t *testing.T) {
	b := defaultBoard(t)
	errCopy := errors.New("copy failed")
	b.Relocator = relocatorFunc(func(newSP, newGD, dest uint64) error {
		require.Equal(t, uint64(0x47b34ee0), newSP)
		require.Equal(t, uint64(0x47b34f00), newGD)
		require.Equal(t, uint64(0x47f39000), dest)
		return errCopy
	})

	err := b.Boot(0)
	require.ErrorIs(t, err, errCopy)
	require.Len(t, b.halts.errs, 1)
	require.ErrorIs(t, b.halts.errs[0], errCopy)
	require.Contains(t, b.out.String(), "relocate_code: copy failed")
}

func TestBootContinuationFailureHaltsOnce(t *testing.T) {
	b := defaultBoard(t)
	b.Relocator = relocatorFunc(func(newSP, _, _ uint64) error {
		// The copy lacks the relocated flag.
		return b.InitR(b.GD.Clone(), newSP)
	})

	err := b.Boot(0)
	require.ErrorIs(t, err, ErrNotRelocated)
	require.Len(t, b.halts.errs, 1)
}

func TestInitRNotRelocated(t *testing.T) {
	b := defaultBoard(t)
	require.NoError(t, b.InitF(0))
	err := b.InitR(b.GD.Clone(), b.GD.StartAddrSP)
	require.ErrorIs(t, err, ErrNotRelocated)
	require.Len(t, b.halts.errs, 1)
}

func TestWeakUsableRAMTop(t *testing.T) {
	b := &Board{GD: global.New()}
	b.GD.RAMTop = 0x120000000
	require.Equal(t, uint64(1<<32), Weak{}.UsableRAMTop(b, 0))
	b.GD.RAMTop = 0x48000000
	require.Equal(t, uint64(0x48000000), Weak{}.UsableRAMTop(b, 0))
}

func TestNewImageMismatch(t *testing.T) {
	target := config.Default()
	mem, err := NewMemory(target)
	require.NoError(t, err)
	img, err := arm.SyntheticImage(0x40100000, 0x2000, 0, nil)
	require.NoError(t, err)
	_, err = New(target, Weak{}, mem, img, io.Discard)
	require.Error(t, err)
}
