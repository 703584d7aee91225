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

// Package stats summarizes raster grids.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistics over the valid cells of a grid
type Stats struct {
	Valid  int     `json:"valid"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Mode   float64 `json:"mode"`   // center of the fullest of 256 histogram bins
}

// Returns the values of all valid cells, in grid order
func ValidValues(data []float32, nodata float32) []float64 {
	vs:=make([]float64, 0, len(data))
	for _, d:=range data {
		if d==nodata || isNaN32(d) { continue }
		vs=append(vs, float64(d))
	}
	return vs
}

// Calculates statistics over all cells that are not nodata or NaN. All zero if there are none
func Summarize(data []float32, nodata float32) Stats {
	vs:=ValidValues(data, nodata)
	if len(vs)==0 { return Stats{} }

	s:=Stats{Valid: len(vs), Min: floats.Min(vs), Max: floats.Max(vs)}
	s.Mean, s.StdDev=stat.MeanStdDev(vs, nil)
	if len(vs)==1 { s.StdDev=0 }

	bins:=make([]int32, 256)
	Histogram(data, nodata, float32(s.Min), float32(s.Max), bins)
	mode, _:=GetPeak(bins, float32(s.Min), float32(s.Max))
	if s.Max==s.Min { mode=float32(s.Min) }
	s.Mode=float64(mode)
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("valid %d min %.4g max %.4g mean %.4g stddev %.4g mode %.4g", s.Valid, s.Min, s.Max, s.Mean, s.StdDev, s.Mode)
}

// Estimates quantiles of the valid cells from a random sample of the given size.
// Uses all valid cells if there are no more than that. Probabilities must be in [0,1].
func SampledQuantiles(data []float32, nodata float32, ps []float64, samples int, seed uint32) []float64 {
	vs:=ValidValues(data, nodata)
	res:=make([]float64, len(ps))
	if len(vs)==0 {
		for i:=range res { res[i]=math.NaN() }
		return res
	}
	if samples>0 && len(vs)>samples {
		var rng fastrand.RNG
		rng.Seed(seed)
		sampled:=make([]float64, samples)
		for i:=range sampled { sampled[i]=vs[rng.Uint32n(uint32(len(vs)))] }
		vs=sampled
	}
	sort.Float64s(vs)
	for i, p:=range ps { res[i]=stat.Quantile(p, stat.Empirical, vs, nil) }
	return res
}
