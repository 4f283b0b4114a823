// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fdt

import (
	"bytes"
	"fmt"

	"github.com/u-root/u-root/pkg/dt"
)

const (
	version         = 17
	lastCompVersion = 16
)

// Build returns a blob with a single root node carrying the "model" and
// "compatible" properties. Empty values are left out.
//
// mxsboot uses it as the control device tree when the target enables one
// but none is given on the command line.
func Build(model, compatible string) ([]byte, error) {
	root := &dt.Node{}
	for _, p := range []struct{ name, value string }{
		{"model", model},
		{"compatible", compatible},
	} {
		if p.value == "" {
			continue
		}
		root.Properties = append(root.Properties, dt.Property{
			Name:  p.name,
			Value: append([]byte(p.value), 0),
		})
	}

	tree := &dt.FDT{
		Header: dt.Header{
			Magic:           Magic,
			Version:         version,
			LastCompVersion: lastCompVersion,
		},
		RootNode: root,
	}
	var buf bytes.Buffer
	if _, err := tree.Write(&buf); err != nil {
		return nil, fmt.Errorf("unable to write the device tree: %w", err)
	}
	return buf.Bytes(), nil
}
