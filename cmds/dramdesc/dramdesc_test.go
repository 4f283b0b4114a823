// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desc.bin")
	var out bytes.Buffer
	require.NoError(t, run([]string{"--size", "256", "-o", path}, &out))
	require.Zero(t, out.Len())

	require.NoError(t, run([]string{path}, &out))
	require.Equal(t, "256 MiB\n", out.String())
}

func TestHexDump(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-s", "128"}, &out))
	// Marker, length and the NUL terminated size string.
	require.Contains(t, out.String(), "fe 05 31 32 38 4d 00")
}

func TestUsage(t *testing.T) {
	require.Error(t, run(nil, &bytes.Buffer{}))
	require.Error(t, run([]string{"-s", "64", "extra"}, &bytes.Buffer{}))
	require.Error(t, run([]string{filepath.Join(t.TempDir(), "missing")}, &bytes.Buffer{}))
}
