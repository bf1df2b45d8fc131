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
	"fmt"

	"github.com/jahidul-arafat/civic-data/checks"
	"github.com/jahidul-arafat/civic-data/simulate"
)

// Summary describes the unperturbed decision a report is about.
type Summary struct {
	TotalRecords int     `json:"total_records" yaml:"total_records"`
	TrueCount    float64 `json:"true_count" yaml:"true_count"`
	Threshold    float64 `json:"threshold" yaml:"threshold"`
	// MarginFromThreshold is the signed distance to the threshold as a
	// percentage of it, e.g. "3.9%", or "n/a" for a zero threshold.
	MarginFromThreshold string `json:"margin_from_threshold" yaml:"margin_from_threshold"`
	// TrueDecision is APPROVED or DENIED.
	TrueDecision string `json:"true_decision" yaml:"true_decision"`
}

// RiskRow is the risk of one sweep entry.
type RiskRow struct {
	Group     string    `json:"group,omitempty" yaml:"group,omitempty"`
	Epsilon   float64   `json:"epsilon" yaml:"epsilon"`
	FlipRisk  string    `json:"flip_risk" yaml:"flip_risk"`
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`
}

// AnalysisReport is a complete, immutable risk report.
type AnalysisReport struct {
	Summary        Summary        `json:"summary" yaml:"summary"`
	RiskAssessment []RiskRow      `json:"risk_assessment" yaml:"risk_assessment"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
}

// BuildReport combines a summary of sc, one RiskRow per stat and the
// recommendation for stats. rawRecordCount is the number of input records the
// scenario was derived from.
func BuildReport(rawRecordCount int, sc simulate.Scenario, stats []EpsilonStat) (*AnalysisReport, error) {
	if rawRecordCount < 0 {
		return nil, fmt.Errorf("TotalRecords is %d, must not be negative: %w", rawRecordCount, checks.ErrInvalidParameter)
	}
	if err := checks.CheckThreshold(sc.Threshold); err != nil {
		return nil, err
	}

	margin := "n/a"
	if m, ok := sc.MarginFromThreshold(); ok {
		margin = fmt.Sprintf("%.1f%%", m)
	}
	decision := "DENIED"
	if sc.TrueDecision() == simulate.Approved {
		decision = "APPROVED"
	}

	rows := make([]RiskRow, len(stats))
	for i, s := range stats {
		rows[i] = RiskRow{
			Group:     s.Group,
			Epsilon:   s.Epsilon,
			FlipRisk:  fmt.Sprintf("%.2f%%", s.FlipProbabilityPercent),
			RiskLevel: ClassifyRisk(s.FlipProbabilityPercent),
		}
	}
	return &AnalysisReport{
		Summary: Summary{
			TotalRecords:        rawRecordCount,
			TrueCount:           sc.TrueValue,
			Threshold:           sc.Threshold,
			MarginFromThreshold: margin,
			TrueDecision:        decision,
		},
		RiskAssessment: rows,
		Recommendation: Recommend(stats),
	}, nil
}
