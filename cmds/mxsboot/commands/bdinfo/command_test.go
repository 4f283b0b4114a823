// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bdinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	var out bytes.Buffer
	cmd := &Command{stdout: &out}
	cmd.Fuses = 0x1e2f3a4b
	require.NoError(t, cmd.Execute(nil))

	info := out.String()
	require.Contains(t, info, "arch_number = 0x00000e1d\n")
	require.Contains(t, info, "boot_params = 0x40000100\n")
	require.Contains(t, info, "-> size     = 0x08000000 (128 MiB)\n")
	require.Contains(t, info, "ethaddr     = 00:04:1e:2f:3a:4b\n")
	require.Contains(t, info, "baudrate    = 115200 bps\n")
	require.Contains(t, info, "relocaddr   = 0x47f39000\n")
	require.Contains(t, info, "RELOC")
}
