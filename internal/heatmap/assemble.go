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

package heatmap

import (
	"fmt"
	"math"

	"github.com/mlnoga/heatmap/internal/grid"
	"github.com/mlnoga/heatmap/internal/mask"
)

// Output of a density heatmap call. Grids are row-major over Window, row 0 at the top.
type DensityResult struct {
	Transform   grid.Transform  `json:"transform"`
	Window      grid.Window     `json:"window"`
	Nodata      float64         `json:"nodata"`
	Counts      []uint32        `json:"counts"`
	Average     []float32       `json:"average"`
	Frequencies *FrequencyField `json:"frequencies,omitempty"`
	Mask        *mask.Mask      `json:"-"`
}

func (r *DensityResult) Width()  int { return r.Window.Width }
func (r *DensityResult) Height() int { return r.Window.Height }

// Transform of the upper left cell of the result grids
func (r *DensityResult) WindowTransform() grid.Transform { return r.Transform.Shift(r.Window) }

// Average of the given cell
func (r *DensityResult) AverageAt(row, col int) float32 { return r.Average[row*r.Window.Width+col] }

// Count of the given cell
func (r *DensityResult) CountAt(row, col int) uint32 { return r.Counts[row*r.Window.Width+col] }

// Scatters per-cell averages and counts onto window-sized grids. Cells not listed
// hold nodata and a zero count. Each cell may be listed once only.
func Assemble(w grid.Window, cells []grid.Cell, average, counts []float64, nodata float64) ([]float32, []uint32, error) {
	if len(average)!=len(cells) || len(counts)!=len(cells) {
		return nil, nil, fmt.Errorf("%d averages and %d counts for %d cells", len(average), len(counts), len(cells))
	}
	avgGrid  :=make([]float32, w.Cells())
	countGrid:=make([]uint32,  w.Cells())
	visited  :=make([]bool,    w.Cells())
	for i:=range avgGrid { avgGrid[i]=float32(nodata) }

	for i, c:=range cells {
		if c.Row<0 || c.Row>=w.Height || c.Col<0 || c.Col>=w.Width {
			return nil, nil, fmt.Errorf("cell %v outside window %v", c, w)
		}
		offset:=c.Row*w.Width+c.Col
		if visited[offset] { return nil, nil, fmt.Errorf("cell %v listed twice", c) }
		visited[offset]=true
		avgGrid[offset]  =float32(average[i])
		countGrid[offset]=toCount(counts[i])
	}
	return avgGrid, countGrid, nil
}

func toCount(c float64) uint32 {
	if !(c>0) { return 0 }
	if c>=math.MaxUint32 { return math.MaxUint32 }
	return uint32(c)
}
