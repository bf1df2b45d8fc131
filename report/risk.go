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

import "math"

// RiskLevel buckets a flip probability.
type RiskLevel string

// Risk levels.
const (
	LowRisk    RiskLevel = "LOW"
	MediumRisk RiskLevel = "MEDIUM"
	HighRisk   RiskLevel = "HIGH"
)

const (
	mediumRiskFrom = 15.0
	highRiskAbove  = 30.0
)

// ClassifyRisk returns LowRisk below 15%, HighRisk above 30% and MediumRisk
// in between, both bounds included.
func ClassifyRisk(flipPercent float64) RiskLevel {
	switch {
	case flipPercent < mediumRiskFrom:
		return LowRisk
	case flipPercent <= highRiskAbove:
		return MediumRisk
	}
	return HighRisk
}

// Status is the overall verdict of a Recommendation.
type Status string

// Statuses, from least to most sensitive.
const (
	Stable    Status = "STABLE"
	Moderate  Status = "MODERATE"
	Sensitive Status = "SENSITIVE"
)

// Checkpoint ε values inspected by Recommend.
const (
	HighPrivacyCheckpoint  = 0.5
	BalancedCheckpoint     = 1.0
	HighAccuracyCheckpoint = 3.0
)

// Recommendation is the verdict on a sweep together with the flip
// probabilities it was derived from.
type Recommendation struct {
	Status           Status `json:"status" yaml:"status"`
	Message          string `json:"message" yaml:"message"`
	SuggestedEpsilon string `json:"suggested_epsilon" yaml:"suggested_epsilon"`
	// Flip probabilities at the checkpoints, 0 where the sweep lacks one.
	FlipAtHighPrivacy  float64 `json:"flip_at_0_5" yaml:"flip_at_0_5"`
	FlipAtBalanced     float64 `json:"flip_at_1_0" yaml:"flip_at_1_0"`
	FlipAtHighAccuracy float64 `json:"flip_at_3_0" yaml:"flip_at_3_0"`
}

var recommendations = map[Status]Recommendation{
	Stable: {
		Status:           Stable,
		Message:          "Decision is highly stable across privacy settings. Low risk of incorrect outcome.",
		SuggestedEpsilon: "ε ≥ 1.0 recommended for balanced privacy-accuracy",
	},
	Moderate: {
		Status:           Moderate,
		Message:          "Decision is moderately stable. Some risk at high privacy settings.",
		SuggestedEpsilon: "ε ≥ 2.0 recommended to reduce decision uncertainty",
	},
	Sensitive: {
		Status:           Sensitive,
		Message:          "Value is close to threshold. High risk of incorrect decision due to DP noise.",
		SuggestedEpsilon: "Consider ε ≥ 3.0 or review threshold margin",
	},
}

// Recommend judges a sweep by its flip probabilities at the checkpoints: under
// 5% at ε=3 is Stable, otherwise under 15% at ε=1 is Moderate, otherwise
// Sensitive. A checkpoint missing from stats counts as 0%.
func Recommend(stats []EpsilonStat) Recommendation {
	highPrivacy := flipAt(stats, HighPrivacyCheckpoint)
	balanced := flipAt(stats, BalancedCheckpoint)
	highAccuracy := flipAt(stats, HighAccuracyCheckpoint)

	var r Recommendation
	switch {
	case highAccuracy < 5:
		r = recommendations[Stable]
	case balanced < 15:
		r = recommendations[Moderate]
	default:
		r = recommendations[Sensitive]
	}
	r.FlipAtHighPrivacy, r.FlipAtBalanced, r.FlipAtHighAccuracy = highPrivacy, balanced, highAccuracy
	return r
}

// flipAt returns the flip probability of the first stat at ε, or 0.
func flipAt(stats []EpsilonStat, epsilon float64) float64 {
	for _, s := range stats {
		if math.Abs(s.Epsilon-epsilon) < 1e-9 {
			return s.FlipProbabilityPercent
		}
	}
	return 0
}
