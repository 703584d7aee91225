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

// Package kde estimates point densities with a finite support tophat kernel.
package kde

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/kdtree"
)

var ErrConfig=errors.New("invalid kernel configuration")

// A location in the plane
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// A fitted tophat kernel density estimator: each training point spreads its weight
// uniformly over an open disk of radius Bandwidth. Immutable after Fit, so one
// model can be scored from many goroutines at once.
type Model struct {
	Bandwidth float64
	points    []Point
	weights   []float64 // nil for unit weights
	norm      float64   // total weight, or 1 if that is zero
	volume    float64   // pi*h^2
	tree      *kdtree.Tree
}

// Fits the kernel to the given points. Weights may be nil for unit weights.
func Fit(bandwidth float64, points []Point, weights []float64) (*Model, error) {
	if !(bandwidth>0) || math.IsInf(bandwidth, 0) {
		return nil, fmt.Errorf("%w: bandwidth %g must be positive and finite", ErrConfig, bandwidth)
	}
	if len(points)==0 { return nil, fmt.Errorf("%w: no points to fit", ErrConfig) }
	if weights!=nil && len(weights)!=len(points) {
		return nil, fmt.Errorf("%w: %d weights for %d points", ErrConfig, len(weights), len(points))
	}

	m:=&Model{
		Bandwidth: bandwidth,
		points   : points,
		weights  : weights,
		norm     : float64(len(points)),
		volume   : math.Pi*bandwidth*bandwidth,
	}
	if weights!=nil {
		for i, w:=range weights {
			if math.IsNaN(w) || math.IsInf(w, 0) { return nil, fmt.Errorf("%w: weight %d is %g", ErrConfig, i, w) }
		}
		m.norm=floats.Sum(weights)
		if m.norm==0 { m.norm=1 }
	}

	s:=make(samples, len(points))
	for i, p:=range points { s[i]=sample{Point: p, index: i} }
	m.tree=kdtree.New(s, false)
	return m, nil
}

// The divisor applied to kernel sums: the total weight, or 1 if that is zero
func (m *Model) Normalizer() float64 { return m.norm }

// Number of training points
func (m *Model) Len() int { return len(m.points) }

// Returns the indices of all training points strictly closer than the bandwidth, ascending
func (m *Model) neighbors(q Point) []int {
	h2:=m.Bandwidth*m.Bandwidth
	keeper:=kdtree.NewDistKeeper(h2)
	m.tree.NearestSet(keeper, sample{Point: q, index: -1})
	idx:=make([]int, 0, len(keeper.Heap))
	for _, cd:=range keeper.Heap {
		if cd.Comparable==nil || cd.Dist>=h2 { continue }
		idx=append(idx, cd.Comparable.(sample).index)
	}
	sort.Ints(idx)
	return idx
}

// Kernel sum at q: the total weight of training points strictly within the bandwidth,
// accumulated in input order
func (m *Model) kernelSum(q Point) float64 {
	sum:=0.0
	for _, i:=range m.neighbors(q) {
		if m.weights==nil {
			sum+=1
		} else {
			sum+=m.weights[i]
		}
	}
	return sum
}

// Density at q, normalized by total weight and the kernel area
func (m *Model) Density(q Point) float64 {
	return m.kernelSum(q)/(m.norm*m.volume)
}

// Natural logarithm of the density. Minus infinity outside the support
func (m *Model) LogDensity(q Point) float64 {
	return math.Log(m.Density(q))
}

// Evaluates the density at every query point
func (m *Model) ScoreSamples(qs []Point) []float64 {
	res:=make([]float64, len(qs))
	for i, q:=range qs { res[i]=m.Density(q) }
	return res
}

// Scores the query points with the given number of goroutines
func (m *Model) ScoreParallel(qs []Point, processes int) ([]float64, error) {
	return ScoreParallel(qs, processes, func(chunk []Point) ([]float64, error) {
		return m.ScoreSamples(chunk), nil
	})
}
