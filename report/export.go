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

package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/jahidul-arafat/civic-data/simulate"
	"github.com/jahidul-arafat/civic-data/table"
	"gopkg.in/yaml.v3"
)

// SampleHeaders are the column names of exported sample rows, in order.
var SampleHeaders = []string{"community_id", "epsilon", "true_value", "noisy_value", "threshold", "decision", "flip_flag", "sample_id"}

// WriteSamplesCSV writes rows as comma-separated text headed by SampleHeaders.
func WriteSamplesCSV(w io.Writer, rows []SampleRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(SampleHeaders); err != nil {
		return fmt.Errorf("couldn't write the csv header, err = %v", err)
	}
	for _, r := range rows {
		record := []string{
			r.CommunityID,
			formatFloat(r.Epsilon),
			strconv.FormatInt(r.TrueValue, 10),
			strconv.FormatInt(r.NoisyValue, 10),
			formatFloat(r.Threshold),
			string(r.Decision),
			strconv.Itoa(r.FlipFlag),
			strconv.Itoa(r.SampleID),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("couldn't write sample %d of %q, err = %v", r.SampleID, r.CommunityID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadSamplesCSV parses text written by WriteSamplesCSV. Rows with the wrong
// number of fields are dropped, as by table.Parse; rows with unparseable
// values are an error.
func ReadSamplesCSV(r io.Reader) ([]SampleRow, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("couldn't read samples, err = %v", err)
	}
	tbl, err := table.Parse(string(text))
	if err != nil {
		return nil, err
	}
	if err := tbl.CheckFields(SampleHeaders...); err != nil {
		return nil, err
	}

	rows := make([]SampleRow, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		var (
			s    = SampleRow{CommunityID: row["community_id"], Decision: simulate.Decision(row["decision"])}
			errs [6]error
		)
		s.Epsilon, errs[0] = strconv.ParseFloat(row["epsilon"], 64)
		s.TrueValue, errs[1] = strconv.ParseInt(row["true_value"], 10, 64)
		s.NoisyValue, errs[2] = strconv.ParseInt(row["noisy_value"], 10, 64)
		s.Threshold, errs[3] = strconv.ParseFloat(row["threshold"], 64)
		s.FlipFlag, errs[4] = strconv.Atoi(row["flip_flag"])
		s.SampleID, errs[5] = strconv.Atoi(row["sample_id"])
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("couldn't read sample row %d, err = %v: %w", i+1, err, table.ErrMalformedInput)
			}
		}
		rows = append(rows, s)
	}
	return rows, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Envelope wraps an exported value with the identity of the run that
// produced it.
type Envelope struct {
	RunID   string `json:"run_id" yaml:"run_id"`
	Kind    string `json:"kind" yaml:"kind"`
	Payload any    `json:"payload" yaml:"payload"`
}

// NewEnvelope wraps payload under a fresh random run id.
func NewEnvelope(kind string, payload any) Envelope {
	return Envelope{RunID: uuid.NewString(), Kind: kind, Payload: payload}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as a YAML document.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
