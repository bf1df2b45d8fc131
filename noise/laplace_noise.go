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

package noise

import (
	"math"

	"github.com/jahidul-arafat/civic-data/checks"
	"github.com/jahidul-arafat/civic-data/rand"
)

// Laplace draws zero-centred Laplace noise from an injected uniform source.
//
// Sampling uses the inverse CDF: for u uniform on (-0.5, 0.5) the value
// -b·sign(u)·ln(1-2|u|) is Laplace distributed with scale b, i.e. it has mean
// 0 and variance 2b².
//
// A Laplace is safe for concurrent use if its Source is.
type Laplace struct {
	src rand.Source
}

// NewLaplace returns a Laplace that draws from src. A nil src selects
// rand.Secure().
func NewLaplace(src rand.Source) *Laplace {
	if src == nil {
		src = rand.Secure()
	}
	return &Laplace{src: src}
}

// Sample returns one draw from Laplace(0, scale). The scale is validated
// before any randomness is consumed.
func (l *Laplace) Sample(scale float64) (float64, error) {
	if err := checks.CheckScale(scale); err != nil {
		return 0, err
	}
	return l.sample(scale), nil
}

// SampleN returns n draws from Laplace(0, scale).
func (l *Laplace) SampleN(scale float64, n int) ([]float64, error) {
	if err := checks.CheckScale(scale); err != nil {
		return nil, err
	}
	if err := checks.CheckSampleCount(n); err != nil {
		return nil, err
	}
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = l.sample(scale)
	}
	return samples, nil
}

// AddNoiseCount publishes a count through the Laplace mechanism: it adds
// noise of scale sensitivity/ε, rounds to the nearest integer and clamps
// negative results to 0. The clamp is post-processing and biases small counts
// upwards. Results beyond the int64 range saturate at math.MaxInt64.
func (l *Laplace) AddNoiseCount(count int64, sensitivity, epsilon float64) (int64, error) {
	scale, err := Scale(sensitivity, epsilon)
	if err != nil {
		return 0, err
	}
	x, err := l.Sample(scale)
	if err != nil {
		return 0, err
	}
	noisy := math.Max(0, math.Round(float64(count)+x))
	// float64(math.MaxInt64) rounds up to 2⁶³, which int64 cannot hold.
	if noisy >= math.MaxInt64 {
		return math.MaxInt64, nil
	}
	return int64(noisy), nil
}

func (l *Laplace) sample(scale float64) float64 {
	u := l.centeredUniform()
	return -scale * sign(u) * math.Log(1-2*math.Abs(u))
}

// centeredUniform returns a uniform draw from (-0.5, 0.5). The source's
// half-open [0, 1) range would otherwise allow -0.5, whose log argument is 0.
func (l *Laplace) centeredUniform() float64 {
	for {
		if u := l.src.Float64() - 0.5; u > -0.5 {
			return u
		}
	}
}

func sign(u float64) float64 {
	switch {
	case u > 0:
		return 1
	case u < 0:
		return -1
	}
	return 0
}

func (*Laplace) String() string {
	return "Laplace Noise"
}
