//
// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package table turns raw comma-separated records into grouped counts that
// can be fed to the decision simulator as a true value.
//
// The parser is deliberately lenient: a data line whose field count does not
// match the header is dropped rather than reported, so that small upload
// irregularities do not abort an analysis.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput is returned when the text has no header and data line.
	ErrMalformedInput = errors.New("malformed input")
	// ErrMissingField is returned by CheckFields for a field no row carries.
	// Aggregation itself never fails on it: such rows group under UnknownGroup.
	ErrMissingField = errors.New("missing field")
)

// Row maps header names to the trimmed field values of one data line.
type Row map[string]string

// Table is a parsed comma-separated text.
type Table struct {
	Headers []string
	Rows    []Row
	// Dropped counts the non-blank data lines skipped for having the wrong
	// number of fields.
	Dropped int
}

// Parse splits text into a header line and data rows.
//
// Fields are separated by commas; a double quote toggles an in-quote state in
// which commas are literal. Quote characters are not kept and fields are
// trimmed. No other escaping exists. Blank lines are ignored. The header line
// is split like a data line, so a quoted header may contain commas.
func Parse(text string) (*Table, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("table is empty: %w", ErrMalformedInput)
	}
	lines := strings.Split(strings.ReplaceAll(trimmed, "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("table needs a header line and at least one data line, got %d line(s): %w", len(lines), ErrMalformedInput)
	}

	t := &Table{Headers: splitLine(lines[0])}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := splitLine(line)
		if len(values) != len(t.Headers) {
			t.Dropped++
			continue
		}
		row := make(Row, len(values))
		for i, h := range t.Headers {
			row[h] = values[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func splitLine(line string) []string {
	var (
		values   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, r := range strings.TrimRight(line, "\r") {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(values, strings.TrimSpace(current.String()))
}

// HasField reports whether field is one of the table's headers.
func (t *Table) HasField(field string) bool {
	for _, h := range t.Headers {
		if h == field {
			return true
		}
	}
	return false
}

// CheckFields returns an error wrapping ErrMissingField for the first
// non-empty field that is not a header. Empty names are skipped.
func (t *Table) CheckFields(fields ...string) error {
	for _, f := range fields {
		if f != "" && !t.HasField(f) {
			return fmt.Errorf("field %q is absent from every row (headers %v): %w", f, t.Headers, ErrMissingField)
		}
	}
	return nil
}
