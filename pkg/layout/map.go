// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/linuxboot/mxsboot/pkg/bytes"
)

// Region is one reservation.
type Region struct {
	Name string
	// Base is the lowest address of the region.
	Base uint64
	// Size is the requested size. The region may be followed by alignment
	// slack up to Top.
	Size uint64
	// Top is the cursor value before the reservation was made.
	Top   uint64
	Align uint64
}

// Range returns the bytes occupied by the region.
func (r Region) Range() bytes.Range {
	return bytes.Range{Offset: r.Base, Length: r.Size}
}

// ErrOverlap means two regions share at least one byte.
type ErrOverlap struct {
	A, B Region
}

func (err *ErrOverlap) Error() string {
	return fmt.Sprintf("region '%s' %s overlaps region '%s' %s", err.A.Name, err.A.Range(), err.B.Name, err.B.Range())
}

// ErrOrder means a region was reserved above the previous one.
type ErrOrder struct {
	Prev, Next Region
}

func (err *ErrOrder) Error() string {
	return fmt.Sprintf("region '%s' at 0x%08x is not below region '%s' at 0x%08x", err.Next.Name, err.Next.Base, err.Prev.Name, err.Prev.Base)
}

// ErrOutOfBounds means a region leaves the [floor, top) range of the map.
type ErrOutOfBounds struct {
	Region     Region
	Floor, Top uint64
}

func (err *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("region '%s' %s is outside of [0x%08x, 0x%08x)", err.Region.Name, err.Region.Range(), err.Floor, err.Top)
}

// Map is the list of reservations in the order they were made.
type Map struct {
	Floor   uint64
	Top     uint64
	Regions []Region
}

// Add records a reservation made from cursor "from" that resulted in
// cursor "to".
func (m *Map) Add(name string, from, to Cursor, size, align uint64) Region {
	r := Region{Name: name, Base: to.Addr, Size: size, Top: from.Addr, Align: align}
	m.Regions = append(m.Regions, r)
	return r
}

// Lookup returns the region with the given name.
func (m *Map) Lookup(name string) (Region, bool) {
	for _, r := range m.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// Reserved returns the total number of bytes consumed below Top, including
// alignment slack.
func (m *Map) Reserved() uint64 {
	if len(m.Regions) == 0 {
		return 0
	}
	return m.Top - m.Regions[len(m.Regions)-1].Base
}

// Free returns the unreserved parts of [Floor, Top).
func (m *Map) Free() bytes.Ranges {
	used := make(bytes.Ranges, 0, len(m.Regions))
	for _, r := range m.Regions {
		used = append(used, r.Range())
	}
	return bytes.Range{Offset: m.Floor, Length: m.Top - m.Floor}.Exclude(used...)
}

// Span returns the reserved address ranges with adjacent regions merged.
func (m *Map) Span() bytes.Ranges {
	var s bytes.Ranges
	for _, r := range m.Regions {
		if r.Size != 0 {
			s = append(s, r.Range())
		}
	}
	s.SortAndMerge()
	return s
}

// Validate checks that the regions are in bounds, disjoint and strictly
// descending. All violations are reported.
func (m *Map) Validate() error {
	var result *multierror.Error
	for i, r := range m.Regions {
		if r.Base < m.Floor || r.Base+r.Size > m.Top {
			result = multierror.Append(result, &ErrOutOfBounds{Region: r, Floor: m.Floor, Top: m.Top})
		}
		if i > 0 {
			prev := m.Regions[i-1]
			if r.Base+r.Size > prev.Base {
				result = multierror.Append(result, &ErrOrder{Prev: prev, Next: r})
			}
		}
		for _, other := range m.Regions[i+1:] {
			if r.Range().Intersect(other.Range()) {
				result = multierror.Append(result, &ErrOverlap{A: r, B: other})
			}
		}
	}
	return result.ErrorOrNil()
}

// Table renders the map from the highest to the lowest address.
func (m *Map) Table() table.Writer {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Memory map [0x%08x - 0x%08x)", m.Floor, m.Top))
	t.AppendHeader(table.Row{"Region", "Start", "End", "Size", "Align"})
	for _, r := range m.Regions {
		t.AppendRow(table.Row{
			r.Name,
			fmt.Sprintf("0x%08x", r.Base),
			fmt.Sprintf("0x%08x", r.Base+r.Size),
			fmt.Sprintf("0x%x (%s)", r.Size, humanize.IBytes(r.Size)),
			fmt.Sprintf("0x%x", r.Align),
		})
	}
	t.AppendFooter(table.Row{"reserved", "", "", humanize.IBytes(m.Reserved()), ""})
	return t
}
