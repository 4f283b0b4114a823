// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package boardinit

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/linuxboot/mxsboot/pkg/arm"
	"github.com/linuxboot/mxsboot/pkg/bootstage"
	"github.com/linuxboot/mxsboot/pkg/config"
	"github.com/linuxboot/mxsboot/pkg/env"
	"github.com/linuxboot/mxsboot/pkg/fdt"
	"github.com/linuxboot/mxsboot/pkg/global"
	"github.com/linuxboot/mxsboot/pkg/initcall"
)

// Banner is printed by display_options.
var Banner = "U-Boot 2014.10-mxsboot"

// Console messages.
const (
	msgWatchdog = "       Watchdog enabled\n"
	msgDRAM     = "DRAM:  "
	msgBadEnv   = "*** Warning - bad CRC, using default environment\n\n"
)

// SequenceF returns the pre-relocation init sequence for the board's
// target. Steps of disabled features are left out entirely.
func (b *Board) SequenceF() initcall.Sequence {
	t := b.Target
	f := t.Features
	arch := t.Arch == config.ArchARM

	return initcall.NewBuilder().
		AddFunc(b.setupMonLen).
		AddFunc(b.archCPUInit).
		AddFunc(b.markBootstage).
		AddFunc(b.boardEarlyInitF).
		AddIf(f.Watchdog, "", b.watchdogInit).
		AddFunc(b.timerInit).
		AddFunc(b.envInit).
		AddIf(f.FDT, "", b.setupFDT).
		AddFunc(b.initBaudRate).
		AddFunc(b.serialInit).
		AddFunc(b.consoleInitF).
		AddFunc(b.displayOptions).
		AddFunc(b.displayTextInfo).
		AddIf(f.DisplayCPUInfo, "print_cpuinfo", b.printCPUInfo).
		AddFunc(b.announceDRAMInit).
		AddFunc(b.dramInit).
		AddFunc(b.setupDestAddr).
		AddIf(f.PRAM, "", b.reservePRAM).
		Add("reserve_round_4k", b.reserveRound4K).
		AddIf(f.MMU && arch, "", b.reserveMMU).
		AddIf(f.Trace, "", b.reserveTrace).
		AddFunc(b.reserveUboot).
		AddIf(!f.SPL, "", b.reserveMalloc).
		AddIf(!f.SPL, "", b.reserveBoard).
		AddIf(t.MachType != 0, "", b.setupMachine).
		AddFunc(b.reserveGlobalData).
		AddIf(f.FDT, "", b.reserveFDT).
		AddFunc(b.reserveStacks).
		AddFunc(b.setupDRAMConfig).
		AddFunc(b.showDRAMConfig).
		AddFunc(b.displayNewSP).
		AddIf(f.FDT, "", b.relocFDT).
		AddFunc(b.setupReloc).
		AddIf(!arch, "", b.jumpToCopy).
		Build()
}

// InitF runs the pre-relocation sequence. A failing step halts the board;
// if the halter returns, the step error is returned.
func (b *Board) InitF(bootFlags global.Flags) error {
	b.GD.Flags = bootFlags
	b.GD.HaveConsole = false

	if err := b.run(b.SequenceF()); err != nil {
		b.halt(err)
		return err
	}
	return nil
}

// Boot runs the pre-relocation sequence and relocates into the computed
// layout, which continues with the post-relocation sequence. A relocation
// that fails before the hand-off halts the board like a failing step.
func (b *Board) Boot(bootFlags global.Flags) error {
	if err := b.InitF(bootFlags); err != nil {
		return err
	}
	if b.Target.Arch != config.ArchARM {
		// jump_to_copy already relocated.
		return nil
	}
	b.resumed = false
	err := b.Relocator.RelocateCode(b.GD.StartAddrSP, b.GD.NewGD, b.GD.RelocAddr)
	if err != nil && !b.resumed {
		err = fmt.Errorf("relocate_code: %w", err)
		b.halt(err)
	}
	return err
}

func (b *Board) run(seq initcall.Sequence) error {
	opts := []initcall.Option{initcall.WithObserver(stepLogger{b})}
	if b.Target.Features.Watchdog && b.Watchdog != nil {
		opts = append(opts, initcall.WithWatchdog(b.Watchdog))
	}
	return initcall.Run(seq, opts...)
}

func (b *Board) halt(err error) {
	if b.Logger != nil {
		b.Logger.Errorf("%v", err)
	}
	b.Console.Printf("initcall failed: %v\n", err)
	if b.Halter != nil {
		b.Halter.Halt(err)
	}
}

type stepLogger struct {
	b *Board
}

func (l stepLogger) Before(idx int, step initcall.Step) {
	l.b.debugf("initcall %d: %s", idx, step.Name)
}

func (l stepLogger) After(idx int, step initcall.Step, err error) {
	if err != nil {
		l.b.debugf("initcall %d: %s failed: %v", idx, step.Name, err)
	}
}

func (b *Board) setupMonLen() error {
	b.GD.MonLen = b.Image.MonLen()
	return nil
}

func (b *Board) archCPUInit() error {
	return b.Platform.ArchCPUInit(b)
}

func (b *Board) markBootstage() error {
	b.Stages.Mark(bootstage.IDStartUBootF, "board_init_f")
	return nil
}

func (b *Board) boardEarlyInitF() error {
	return b.Platform.BoardEarlyInitF(b)
}

func (b *Board) watchdogInit() error {
	if b.Watchdog == nil {
		return errors.New("no watchdog")
	}
	b.Watchdog.Start()
	b.Console.Puts(msgWatchdog)
	return nil
}

func (b *Board) timerInit() error {
	return b.Platform.TimerInit(b)
}

// envInit locates the environment stored in the image. A missing or
// corrupt environment falls back to the built-in defaults.
func (b *Board) envInit() error {
	addr, ok := b.Image.Symbol(arm.SymEnvironment)
	if ok && b.Target.EnvSize > env.HeaderSize {
		var raw []byte
		raw, b.envErr = b.Mem.Read(addr, b.Target.EnvSize)
		if b.envErr == nil {
			var e *env.Env
			if e, b.envErr = env.Parse(raw); b.envErr == nil {
				b.Env = e
				b.GD.EnvAddr = addr + env.HeaderSize
				b.GD.EnvValid = 1
				return nil
			}
		}
	} else {
		b.envErr = errors.New("no stored environment")
	}
	b.debugf("using default environment: %v", b.envErr)
	b.Env = env.New(b.Target.DefaultEnv)
	b.GD.EnvAddr = 0
	b.GD.EnvValid = 0
	return nil
}

func (b *Board) setupFDT() error {
	addr := fdt.ControlAddr(b.Env, b.Target.FDTAddr)
	if addr != 0 {
		if _, err := fdt.TotalSize(b.Mem, addr); err != nil {
			return err
		}
	}
	b.GD.FDTBlob = addr
	return nil
}

func (b *Board) initBaudRate() error {
	b.GD.Baudrate = b.Env.GetULong("baudrate", 10, b.Target.Baudrate)
	return nil
}

func (b *Board) serialInit() error {
	return b.Platform.SerialInit(b)
}

func (b *Board) consoleInitF() error {
	b.GD.HaveConsole = true
	b.Console.Enable()
	return nil
}

func (b *Board) displayOptions() error {
	b.Console.Printf("\n\n%s\n\n", Banner)
	return nil
}

func (b *Board) displayTextInfo() error {
	b.debugf("U-Boot code: %08X -> %08X  BSS: -> %08X", b.Image.TextBase, b.Image.BSSStart(), b.Image.BSSEnd())
	return nil
}

func (b *Board) printCPUInfo() error {
	return b.Platform.PrintCPUInfo(b)
}

func (b *Board) announceDRAMInit() error {
	b.Console.Puts(msgDRAM)
	return nil
}

func (b *Board) dramInit() error {
	if err := b.Platform.DRAMInit(b); err != nil {
		return err
	}
	if b.GD.RAMSize == 0 {
		return errors.New("no DRAM found")
	}
	return nil
}

func (b *Board) setupDestAddr() error {
	size := b.GD.RAMSize
	if hide := b.Target.MemTopHide; hide != 0 {
		if hide >= size {
			return fmt.Errorf("cannot hide 0x%x bytes of 0x%x bytes of DRAM", hide, size)
		}
		size -= hide
		b.GD.RAMSize = size
	}
	b.GD.RAMTop = b.Target.SDRAM.Base + size
	b.GD.RAMTop = b.Platform.UsableRAMTop(b, b.GD.MonLen)
	b.GD.RelocAddr = b.GD.RAMTop
	b.debugf("Ram size: %08X", size)
	b.debugf("Ram top: %08X", b.GD.RAMTop)

	b.Map.Floor = b.floor
	b.Map.Top = b.GD.RAMTop
	return nil
}

func (b *Board) setupDRAMConfig() error {
	return b.Platform.DRAMInitBanksize(b)
}

func (b *Board) showDRAMConfig() error {
	size := b.EffectiveMemsize()
	if b.BD != nil {
		size = b.BD.TotalDRAM()
	}
	b.Console.Printf("%s\n", humanize.IBytes(size))
	return nil
}

func (b *Board) displayNewSP() error {
	b.debugf("New Stack Pointer is: %08x", b.GD.StartAddrSP)
	return nil
}

func (b *Board) relocFDT() error {
	if b.GD.NewFDT == 0 {
		return nil
	}
	if err := b.Mem.Copy(b.GD.NewFDT, b.GD.FDTBlob, b.GD.FDTSize); err != nil {
		return err
	}
	b.GD.FDTBlob = b.GD.NewFDT
	tree, err := fdt.Load(b.Mem, b.GD.FDTBlob)
	if err != nil {
		return err
	}
	b.debugf("Model: %s", fdt.Model(tree))
	return nil
}

func (b *Board) setupReloc() error {
	b.GD.RelocOff = (b.GD.RelocAddr - b.Target.TextBase) & global.WordMask
	if err := b.StoreGlobalData(); err != nil {
		return err
	}
	b.debugf("Relocation Offset is: %08x", b.GD.RelocOff)
	b.debugf("Relocating to %08x, new gd at %08x, sp at %08x", b.GD.RelocAddr, b.GD.NewGD, b.GD.StartAddrSP)
	return nil
}

func (b *Board) jumpToCopy() error {
	return b.Relocator.RelocateCode(b.GD.StartAddrSP, b.GD.NewGD, b.GD.RelocAddr)
}
