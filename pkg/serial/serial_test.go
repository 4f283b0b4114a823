// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package serial

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetBRG(t *testing.T) {
	for _, tc := range []struct {
		baud       uint64
		ibrd, fbrd uint32
	}{
		{115200, 13, 1},
		{57600, 26, 2},
		{9600, 156, 16},
	} {
		u := NewUART(24000000, nil)
		require.NoError(t, u.SetBRG(tc.baud))
		require.Equal(t, tc.ibrd, u.Reg(RegIBRD), "baud %d", tc.baud)
		require.Equal(t, tc.fbrd, u.Reg(RegFBRD), "baud %d", tc.baud)
	}

	u := NewUART(24000000, nil)
	require.Error(t, u.SetBRG(0))
	require.Error(t, u.SetBRG(24000000))
}

func TestPutcAddsCarriageReturn(t *testing.T) {
	var out bytes.Buffer
	u := NewUART(24000000, &out)
	require.Error(t, u.Putc('x'))

	require.NoError(t, u.Init(115200))
	require.Equal(t, uint32(LCRHWLen8|LCRHFEN), u.Reg(RegLCRH))
	require.Equal(t, uint32(CRUARTEN|CRTXE|CRRXE), u.Reg(RegCR))
	require.NoError(t, u.Puts("DRAM:  \nok"))
	require.Equal(t, "DRAM:  \r\nok", out.String())
}

func TestGetc(t *testing.T) {
	u := NewUART(24000000, nil)
	require.NoError(t, u.Init(115200))
	require.False(t, u.Tstc())

	require.Equal(t, 2, u.Feed([]byte("ab")))
	require.True(t, u.Tstc())
	c, err := u.Getc(context.Background())
	require.NoError(t, err)
	require.Equal(t, byte('a'), c)

	ctx, cancel := context.WithCancel(context.Background())
	_, _ = u.Getc(ctx)
	cancel()
	_, err = u.Getc(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConsoleDropsEarlyOutput(t *testing.T) {
	var out bytes.Buffer
	u := NewUART(24000000, &out)
	require.NoError(t, u.Init(115200))

	c := &Console{Dev: u}
	c.Printf("lost %d\n", 1)
	require.Zero(t, out.Len())

	c.Enable()
	require.True(t, c.Enabled())
	c.Puts("kept\n")
	require.Equal(t, "kept\r\n", out.String())
}
