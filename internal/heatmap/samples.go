// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package heatmap turns point observations along a traverse into gridded
// observation counts and value averages.
package heatmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mlnoga/heatmap/internal/grid"
	"github.com/mlnoga/heatmap/internal/kde"
)

// Reported for any invalid call configuration, before work begins
var ErrConfig=errors.New("invalid heatmap configuration")

// Reported with ErrConfig when supplied frequencies were computed on another grid
var ErrFrequencyGrid=errors.New("frequencies computed on another grid")

// Observations along a traverse, in acquisition order. Immutable once built.
type SampleSet struct {
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Values []float64 `json:"values"`
}

// Builds a sample set from parallel arrays. Entries with a NaN value are dropped
// together with their coordinates. Coordinates must be finite.
func NewSampleSet(x, y, values []float64) (*SampleSet, error) {
	if len(x)!=len(y) || len(x)!=len(values) {
		return nil, fmt.Errorf("%w: x, y and values have lengths %d, %d and %d", ErrConfig, len(x), len(y), len(values))
	}
	s:=&SampleSet{
		X     : make([]float64, 0, len(x)),
		Y     : make([]float64, 0, len(y)),
		Values: make([]float64, 0, len(values)),
	}
	for i:=range x {
		if math.IsNaN(values[i]) { continue }
		if !isFinite(x[i]) || !isFinite(y[i]) {
			return nil, fmt.Errorf("%w: sample %d has coordinates (%g, %g)", ErrConfig, i, x[i], y[i])
		}
		s.X     =append(s.X, x[i])
		s.Y     =append(s.Y, y[i])
		s.Values=append(s.Values, values[i])
	}
	if s.Len()==0 { return nil, fmt.Errorf("%w: no samples with defined values", ErrConfig) }
	return s, nil
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Number of samples
func (s *SampleSet) Len() int { return len(s.X) }

// Returns the extent of the sample locations
func (s *SampleSet) Bounds() grid.Bounds { return grid.ComputeBounds(s.X, s.Y) }

// Returns the sample locations as kernel training points
func (s *SampleSet) Points() []kde.Point {
	ps:=make([]kde.Point, s.Len())
	for i:=range ps { ps[i]=kde.Point{X: s.X[i], Y: s.Y[i]} }
	return ps
}

// Sum of all values
func (s *SampleSet) Sum() float64 { return floats.Sum(s.Values) }

// Fingerprint of the sample locations, used to match cached frequency fields
func (s *SampleSet) LocationsHash() uint64 {
	h:=fnv.New64a()
	var buf [16]byte
	for i:=range s.X {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(s.X[i]))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(s.Y[i]))
		h.Write(buf[:])
	}
	return h.Sum64()
}
