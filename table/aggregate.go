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

package table

import "strings"

const (
	// TotalGroup labels the single record returned when no group field is set.
	TotalGroup = "total"
	// UnknownGroup collects rows that lack the group field or leave it empty.
	UnknownGroup = "unknown"
)

// Record is the count of rows in one group.
type Record struct {
	Group string
	Count int64
}

// Predicate selects the rows that take part in an aggregation.
type Predicate func(Row) bool

// FieldEquals returns a Predicate matching rows whose field equals value,
// ignoring case. Rows without the field, or with an empty value, never match.
func FieldEquals(field, value string) Predicate {
	return func(r Row) bool {
		v, ok := r[field]
		return ok && v != "" && strings.EqualFold(v, value)
	}
}

// Filter returns the rows accepted by p. A nil p accepts every row.
func Filter(rows []Row, p Predicate) []Row {
	if p == nil {
		return rows
	}
	var kept []Row
	for _, r := range rows {
		if p(r) {
			kept = append(kept, r)
		}
	}
	return kept
}

// Aggregate applies filter, then counts the surviving rows.
//
// With an empty groupBy the result is a single TotalGroup record. Otherwise
// there is one record per distinct value of groupBy, in order of first
// appearance.
func Aggregate(rows []Row, groupBy string, filter Predicate) []Record {
	kept := Filter(rows, filter)
	if groupBy == "" {
		return []Record{{Group: TotalGroup, Count: int64(len(kept))}}
	}

	index := make(map[string]int)
	var records []Record
	for _, r := range kept {
		key := r[groupBy]
		if key == "" {
			key = UnknownGroup
		}
		i, ok := index[key]
		if !ok {
			i = len(records)
			index[key] = i
			records = append(records, Record{Group: key})
		}
		records[i].Count++
	}
	return records
}

// Total returns the sum of the records' counts.
func Total(records []Record) int64 {
	var total int64
	for _, r := range records {
		total += r.Count
	}
	return total
}
