// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package initcall

// Builder assembles a Sequence, including or leaving out steps depending on
// the target's capabilities.
type Builder struct {
	seq Sequence
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends fn. An empty name is derived from the function name.
func (b *Builder) Add(name string, fn Func) *Builder {
	if name == "" {
		name = FuncName(fn)
	}
	b.seq = append(b.seq, Step{Name: name, Func: fn})
	return b
}

// AddFunc appends fn under its derived name.
func (b *Builder) AddFunc(fn Func) *Builder {
	return b.Add("", fn)
}

// AddIf appends fn only if cond is true. A skipped step leaves no trace in
// the sequence.
func (b *Builder) AddIf(cond bool, name string, fn Func) *Builder {
	if !cond {
		return b
	}
	return b.Add(name, fn)
}

// Build returns the assembled sequence.
func (b *Builder) Build() Sequence {
	return append(Sequence(nil), b.seq...)
}
