// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package env implements the boot environment: a CRC protected list of
// NUL separated "name=value" strings.
package env

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sort"
	"strconv"
	"strings"
)

// HeaderSize is the size of the CRC header in front of the data.
const HeaderSize = 4

// ErrBadCRC means the stored CRC does not match the data.
var ErrBadCRC = errors.New("bad CRC")

// Env is a set of variables.
type Env struct {
	vars map[string]string
}

// New returns an environment holding a copy of vars.
func New(vars map[string]string) *Env {
	e := &Env{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

// Parse decodes an environment image.
func Parse(image []byte) (*Env, error) {
	if len(image) < HeaderSize+2 {
		return nil, fmt.Errorf("environment image too short: %d bytes", len(image))
	}
	want := binary.LittleEndian.Uint32(image)
	data := image[HeaderSize:]
	if got := crc32.ChecksumIEEE(data); got != want {
		return nil, fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", ErrBadCRC, want, got)
	}

	e := New(nil)
	for len(data) > 0 && data[0] != 0 {
		end := bytes.IndexByte(data, 0)
		if end < 0 {
			return nil, errors.New("unterminated environment entry")
		}
		entry := string(data[:end])
		data = data[end+1:]
		idx := strings.IndexByte(entry, '=')
		if idx <= 0 {
			return nil, fmt.Errorf("malformed environment entry '%s'", entry)
		}
		e.vars[entry[:idx]] = entry[idx+1:]
	}
	return e, nil
}

// Encode serializes the environment into an image of exactly size bytes.
// Variables are stored sorted by name.
func (e *Env) Encode(size int) ([]byte, error) {
	image := make([]byte, size)
	data := image[HeaderSize:]
	off := 0
	for _, k := range e.Names() {
		entry := k + "=" + e.vars[k]
		if off+len(entry)+2 > len(data) {
			return nil, fmt.Errorf("environment does not fit into %d bytes", size)
		}
		off += copy(data[off:], entry)
		data[off] = 0
		off++
	}
	binary.LittleEndian.PutUint32(image, crc32.ChecksumIEEE(data))
	return image, nil
}

// Names returns the sorted variable names.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for k := range e.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Get returns a variable.
func (e *Env) Get(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Set sets a variable. An empty value deletes it.
func (e *Env) Set(name, value string) {
	if value == "" {
		delete(e.vars, name)
		return
	}
	e.vars[name] = value
}

// GetULong parses a numeric variable in the given base and returns def if
// it is unset or malformed. Base 16 accepts an optional 0x prefix.
func (e *Env) GetULong(name string, base int, def uint64) uint64 {
	v, ok := e.vars[name]
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if base == 16 {
		v = strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
	}
	n, err := strconv.ParseUint(v, base, 64)
	if err != nil {
		return def
	}
	return n
}
