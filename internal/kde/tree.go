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

package kde

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// A training sample for the kd-tree, remembering its position in the input
type sample struct {
	Point
	index int
}

func (p sample) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q:=c.(sample)
	if d==0 { return p.X-q.X }
	return p.Y-q.Y
}

func (p sample) Dims() int { return 2 }

// Squared euclidean distance
func (p sample) Distance(c kdtree.Comparable) float64 {
	q:=c.(sample)
	dx, dy:=p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

type samples []sample

func (s samples) Index(i int) kdtree.Comparable        { return s[i] }
func (s samples) Len() int                             { return len(s) }
func (s samples) Slice(start, end int) kdtree.Interface { return s[start:end] }

// Median of medians keeps the tree shape independent of any random state
func (s samples) Pivot(d kdtree.Dim) int {
	p:=samplePlane{samples: s, Dim: d}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

type samplePlane struct {
	samples
	kdtree.Dim
}

func (p samplePlane) Less(i, j int) bool {
	if p.Dim==0 { return p.samples[i].X < p.samples[j].X }
	return p.samples[i].Y < p.samples[j].Y
}

func (p samplePlane) Slice(start, end int) kdtree.SortSlicer {
	p.samples=p.samples[start:end]
	return p
}

func (p samplePlane) Swap(i, j int) {
	p.samples[i], p.samples[j]=p.samples[j], p.samples[i]
}
