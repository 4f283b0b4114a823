// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fdt

import (
	stdbytes "bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/u-root/u-root/pkg/dt"

	"github.com/linuxboot/mxsboot/pkg/bytes"
	"github.com/linuxboot/mxsboot/pkg/env"
	"github.com/linuxboot/mxsboot/pkg/physmem"
)

func newMemory(t *testing.T) *physmem.Memory {
	mem, err := physmem.New(physmem.Bank{Name: "dram", Range: bytes.Range{Offset: 0x40000000, Length: 0x100000}})
	require.NoError(t, err)
	return mem
}

func TestLoad(t *testing.T) {
	mem := newMemory(t)
	blob, err := Build("Freescale i.MX28 Evaluation Kit", "fsl,imx28-evk")
	require.NoError(t, err)
	_, err = mem.WriteAt(blob, 0x40010000)
	require.NoError(t, err)

	size, err := TotalSize(mem, 0x40010000)
	require.NoError(t, err)
	require.Equal(t, uint64(len(blob)), size)

	tree, err := Load(mem, 0x40010000)
	require.NoError(t, err)
	require.Equal(t, "Freescale i.MX28 Evaluation Kit", Model(tree))
}

func TestBuildWithoutCompatible(t *testing.T) {
	blob, err := Build("Freescale i.MX28 Evaluation Kit", "")
	require.NoError(t, err)
	require.Equal(t, uint32(Magic), binary.BigEndian.Uint32(blob))
	require.Equal(t, uint32(len(blob)), binary.BigEndian.Uint32(blob[4:]))

	tree, err := dt.ReadFDT(stdbytes.NewReader(blob))
	require.NoError(t, err)
	require.Len(t, tree.RootNode.Properties, 1)
	require.Equal(t, "Freescale i.MX28 Evaluation Kit", Model(tree))
}

func TestBadMagic(t *testing.T) {
	mem := newMemory(t)
	_, err := TotalSize(mem, 0x40000000)
	var errMagic *ErrBadMagic
	require.ErrorAs(t, err, &errMagic)
	require.Equal(t, uint64(0x40000000), errMagic.Addr)
}

func TestReserveSize(t *testing.T) {
	require.Equal(t, uint64(0x1060), ReserveSize(0x48))
	require.Equal(t, uint64(0x2000), ReserveSize(0x1000))
	require.Equal(t, uint64(0x2020), ReserveSize(0x1001))
}

func TestControlAddr(t *testing.T) {
	require.Equal(t, uint64(0x41000000), ControlAddr(nil, 0x41000000))
	e := env.New(map[string]string{"fdtcontroladdr": "0x42000000"})
	require.Equal(t, uint64(0x42000000), ControlAddr(e, 0x41000000))
}
