// Copyright 2021 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapperDebugGate(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Debugf("hidden %d", 1)
	require.Empty(t, buf.String())

	l.Debug = true
	l.Debugf("shown %d", 2)
	require.Contains(t, buf.String(), "[mxsboot][DEBUG] shown 2")
}

func TestWrapperLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Infof("a")
	l.Warnf("b")
	l.Errorf("c")
	out := buf.String()
	require.Contains(t, out, "[mxsboot][INFO] a")
	require.Contains(t, out, "[mxsboot][WARN] b")
	require.Contains(t, out, "[mxsboot][ERROR] c")
}
