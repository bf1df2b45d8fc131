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

// Package rand provides the sources of uniform randomness consumed by the
// noise and simulation packages.
//
// Callers never draw from a hidden process-wide generator: every consumer is
// handed a Source at construction time. Secure returns the default,
// unseeded source; NewSeeded returns a deterministic one for reproducible
// Monte Carlo runs.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	mathrand "math/rand"
	"sync"

	log "github.com/golang/glog"
)

// Source supplies uniformly distributed float64 values in [0, 1).
//
// Implementations must be safe for concurrent use.
type Source interface {
	Float64() float64
}

var (
	randBufLock sync.Mutex
	randBuf     io.Reader = bufio.NewReaderSize(cryptorand.Reader, 65536)
)

func readRandBuf(b []byte) (int, error) {
	randBufLock.Lock()
	defer randBufLock.Unlock()
	return io.ReadFull(randBuf, b)
}

// U64 returns a uniformly random uint64.
func U64() uint64 {
	var r [8]uint8
	if _, err := readRandBuf(r[:]); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return binary.LittleEndian.Uint64(r[:])
}

type secureSource struct{}

// Secure returns a Source backed by crypto/rand. It cannot be seeded, so
// results drawn from it are not reproducible across runs.
func Secure() Source {
	return secureSource{}
}

// Float64 keeps the top 53 bits of a random uint64, which gives every
// multiple of 2⁻⁵³ in [0, 1) the same probability.
func (secureSource) Float64() float64 {
	return float64(U64()>>11) / (1 << 53)
}

func (secureSource) String() string {
	return "secure source"
}

// lockedSource serializes access to a math/rand generator, which is not safe
// for concurrent use on its own.
type lockedSource struct {
	mu sync.Mutex
	r  *mathrand.Rand
}

// NewSeeded returns a deterministic Source. Two sources created with the same
// seed produce the same sequence.
func NewSeeded(seed int64) Source {
	return &lockedSource{r: mathrand.New(mathrand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
