// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeParse(t *testing.T) {
	e := New(map[string]string{
		"baudrate":       "57600",
		"fdtcontroladdr": "0x41000000",
	})
	image, err := e.Encode(0x4000)
	require.NoError(t, err)
	require.Len(t, image, 0x4000)
	require.Equal(t, "baudrate=57600\x00fdtcontroladdr=0x41000000\x00\x00", string(image[HeaderSize:HeaderSize+42]))

	parsed, err := Parse(image)
	require.NoError(t, err)
	require.Equal(t, e.Names(), parsed.Names())
	require.Equal(t, uint64(57600), parsed.GetULong("baudrate", 10, 115200))
	require.Equal(t, uint64(0x41000000), parsed.GetULong("fdtcontroladdr", 16, 0))
}

func TestParseBadCRC(t *testing.T) {
	image, err := New(map[string]string{"pram": "64"}).Encode(64)
	require.NoError(t, err)
	image[HeaderSize] ^= 0xff

	_, err = Parse(image)
	require.ErrorIs(t, err, ErrBadCRC)

	_, err = Parse([]byte{1, 2})
	require.Error(t, err)
}

func TestEncodeTooSmall(t *testing.T) {
	_, err := New(map[string]string{"bootcmd": "run something_long"}).Encode(16)
	require.Error(t, err)
}

func TestGetULong(t *testing.T) {
	e := New(map[string]string{"baudrate": "fast", "pram": " 64 "})
	require.Equal(t, uint64(115200), e.GetULong("baudrate", 10, 115200))
	require.Equal(t, uint64(64), e.GetULong("pram", 10, 0))
	require.Equal(t, uint64(7), e.GetULong("missing", 10, 7))

	e.Set("pram", "")
	_, ok := e.Get("pram")
	require.False(t, ok)
}
