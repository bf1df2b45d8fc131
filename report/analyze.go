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
	"math"

	log "github.com/golang/glog"
	"github.com/jahidul-arafat/civic-data/checks"
	"github.com/jahidul-arafat/civic-data/noise"
	"github.com/jahidul-arafat/civic-data/simulate"
	"github.com/jahidul-arafat/civic-data/table"
)

// AnalysisConfig configures Analyze. Zero fields select the defaults.
type AnalysisConfig struct {
	// GroupBy counts rows per value of this field. Empty counts all rows.
	GroupBy string
	// FilterField and FilterValue keep only rows whose field equals the value,
	// ignoring case. The filter is off unless both are set.
	FilterField string
	FilterValue string
	Threshold   float64
	// Epsilons defaults to DefaultEpsilons.
	Epsilons []float64
	// Sensitivity defaults to DefaultSensitivity.
	Sensitivity float64
	// SamplesPerEpsilon defaults to DefaultSamplesPerEpsilon.
	SamplesPerEpsilon int
}

func (cfg AnalysisConfig) withDefaults() AnalysisConfig {
	if len(cfg.Epsilons) == 0 {
		cfg.Epsilons = DefaultEpsilons
	}
	if cfg.Sensitivity == 0 {
		cfg.Sensitivity = DefaultSensitivity
	}
	if cfg.SamplesPerEpsilon == 0 {
		cfg.SamplesPerEpsilon = DefaultSamplesPerEpsilon
	}
	return cfg
}

func (cfg AnalysisConfig) validate() error {
	if err := checks.CheckThreshold(cfg.Threshold); err != nil {
		return err
	}
	if err := checks.CheckEpsilons(cfg.Epsilons); err != nil {
		return err
	}
	if err := checks.CheckSensitivity(cfg.Sensitivity); err != nil {
		return err
	}
	return checks.CheckSampleCount(cfg.SamplesPerEpsilon, "SamplesPerEpsilon")
}

// SampleRow is one simulated publication of one group's count.
type SampleRow struct {
	CommunityID string            `json:"community_id" yaml:"community_id"`
	Epsilon     float64           `json:"epsilon" yaml:"epsilon"`
	TrueValue   int64             `json:"true_value" yaml:"true_value"`
	NoisyValue  int64             `json:"noisy_value" yaml:"noisy_value"`
	Threshold   float64           `json:"threshold" yaml:"threshold"`
	Decision    simulate.Decision `json:"decision" yaml:"decision"`
	// FlipFlag is 1 when Decision differs from the decision on TrueValue.
	FlipFlag int `json:"flip_flag" yaml:"flip_flag"`
	// SampleID numbers the samples of a (community, ε) pair from 1.
	SampleID int `json:"sample_id" yaml:"sample_id"`
}

// Analysis is the outcome of Analyze.
type Analysis struct {
	Format  table.Format
	Records []table.Record
	Samples []SampleRow
}

// Analyze counts the rows of tbl per group and publishes every count
// SamplesPerEpsilon times at each ε through the Laplace mechanism.
//
// Missing group or filter fields are logged and do not fail the analysis:
// rows lacking the group field count under table.UnknownGroup and rows lacking
// the filter field are filtered out. Parameters are validated before any
// noise is drawn.
func Analyze(lap *noise.Laplace, tbl *table.Table, cfg AnalysisConfig) (*Analysis, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := tbl.CheckFields(cfg.GroupBy, cfg.FilterField); err != nil {
		log.Warningf("Analyze: %v", err)
	}
	if tbl.Dropped > 0 {
		log.Warningf("Analyze: %d row(s) with a mismatched field count were dropped", tbl.Dropped)
	}

	var filter table.Predicate
	if cfg.FilterField != "" && cfg.FilterValue != "" {
		filter = table.FieldEquals(cfg.FilterField, cfg.FilterValue)
	}
	a := &Analysis{
		Format:  table.DetectFormat(tbl.Headers),
		Records: table.Aggregate(tbl.Rows, cfg.GroupBy, filter),
	}
	a.Samples = make([]SampleRow, 0, len(a.Records)*len(cfg.Epsilons)*cfg.SamplesPerEpsilon)
	for _, rec := range a.Records {
		want := simulate.Decide(float64(rec.Count), cfg.Threshold)
		for _, eps := range cfg.Epsilons {
			for i := 1; i <= cfg.SamplesPerEpsilon; i++ {
				noisy, err := lap.AddNoiseCount(rec.Count, cfg.Sensitivity, eps)
				if err != nil {
					return nil, err
				}
				got := simulate.Decide(float64(noisy), cfg.Threshold)
				row := SampleRow{
					CommunityID: rec.Group,
					Epsilon:     eps,
					TrueValue:   rec.Count,
					NoisyValue:  noisy,
					Threshold:   cfg.Threshold,
					Decision:    got,
					SampleID:    i,
				}
				if got != want {
					row.FlipFlag = 1
				}
				a.Samples = append(a.Samples, row)
			}
		}
	}
	log.V(1).Infof("Analyze: %d group(s), %d sample row(s)", len(a.Records), len(a.Samples))
	return a, nil
}

// Summarize folds sample rows into one EpsilonStat per (community, ε) pair,
// in order of first appearance.
func Summarize(rows []SampleRow) []EpsilonStat {
	type key struct {
		community string
		epsilon   float64
	}
	type acc struct {
		first      SampleRow
		n, flips   int
		totalError float64
	}
	index := make(map[key]int)
	var accs []*acc
	for _, r := range rows {
		k := key{r.CommunityID, r.Epsilon}
		i, ok := index[k]
		if !ok {
			i = len(accs)
			index[k] = i
			accs = append(accs, &acc{first: r})
		}
		a := accs[i]
		a.n++
		a.flips += r.FlipFlag
		a.totalError += math.Abs(float64(r.NoisyValue - r.TrueValue))
	}

	stats := make([]EpsilonStat, len(accs))
	for i, a := range accs {
		flip := 100 * float64(a.flips) / float64(a.n)
		stats[i] = newStat(a.first.CommunityID, a.first.Epsilon, float64(a.first.TrueValue), a.first.Threshold,
			flip, a.totalError/float64(a.n), a.n)
	}
	return stats
}
