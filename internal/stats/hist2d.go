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

package stats

import (
	"math"

	"github.com/mlnoga/heatmap/internal/grid"
)

// Counts and weight sums over a rectangle divided into equal bins. Rows run
// from the top. Bins are half-open towards the right and the top, except
// the last column and the top row, which also hold their far edge.
type Histogram2D struct {
	Bounds grid.Bounds
	Width  int
	Height int
	Counts []uint32
	Sums   []float64
}

func NewHistogram2D(b grid.Bounds, width, height int) *Histogram2D {
	return &Histogram2D{
		Bounds: b,
		Width : width,
		Height: height,
		Counts: make([]uint32, width*height),
		Sums  : make([]float64, width*height),
	}
}

// Returns the bin for a point, or false if it lies outside
func (h *Histogram2D) Bin(x, y float64) (row, col int, ok bool) {
	if x<h.Bounds.Left || x>h.Bounds.Right || y<h.Bounds.Bottom || y>h.Bounds.Top { return 0, 0, false }
	col=int(math.Floor((x-h.Bounds.Left  )/h.Bounds.Width() *float64(h.Width )))
	yi :=int(math.Floor((y-h.Bounds.Bottom)/h.Bounds.Height()*float64(h.Height)))
	if col>=h.Width  { col=h.Width-1 }
	if yi >=h.Height { yi =h.Height-1 }
	return h.Height-1-yi, col, true
}

// Adds a weighted point. Returns false if it lies outside
func (h *Histogram2D) Add(x, y, w float64) bool {
	row, col, ok:=h.Bin(x, y)
	if !ok { return false }
	h.Counts[row*h.Width+col]++
	h.Sums  [row*h.Width+col]+=w
	return true
}

// Returns the mean weight per bin, nodata for empty bins
func (h *Histogram2D) Means(nodata float64) []float64 {
	means:=make([]float64, len(h.Counts))
	for i, c:=range h.Counts {
		if c==0 {
			means[i]=nodata
		} else {
			means[i]=h.Sums[i]/float64(c)
		}
	}
	return means
}
