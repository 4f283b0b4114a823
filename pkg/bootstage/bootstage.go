// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bootstage records named progress markers with timestamps.
package bootstage

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// ID identifies a well-known boot stage.
type ID int

// Well-known boot stages.
const (
	IDAwake ID = iota
	IDStartUBootF
	IDStartUBootR
	IDMainLoop
	IDReloc
	IDUser = 1000
)

// Record is one marker.
type Record struct {
	ID   ID
	Name string
	// Time is in microseconds since the timer started.
	Time uint64
}

// Timer provides the time base. A nil Timer stamps every record with 0,
// which is what happens before the timer is initialized.
type Timer interface {
	Microseconds() uint64
}

// Stages collects markers in the order they were made.
type Stages struct {
	Timer   Timer
	records []Record
}

// Mark records a marker and returns its timestamp.
func (s *Stages) Mark(id ID, name string) uint64 {
	var now uint64
	if s.Timer != nil {
		now = s.Timer.Microseconds()
	}
	s.records = append(s.records, Record{ID: id, Name: name, Time: now})
	return now
}

// Records returns all markers.
func (s *Stages) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Report renders the markers with the delta to the previous one.
func (s *Stages) Report() table.Writer {
	t := table.NewWriter()
	t.SetTitle("Timer summary in microseconds")
	t.AppendHeader(table.Row{"Mark", "Elapsed", "Stage"})
	var prev uint64
	for _, r := range s.records {
		t.AppendRow(table.Row{fmt.Sprintf("%d", r.Time), fmt.Sprintf("%d", r.Time-prev), r.Name})
		prev = r.Time
	}
	return t
}
