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
	"github.com/mlnoga/heatmap/internal/stats"
)

// Output of an area binning call. Grids are row-major over Window, row 0 at the top.
type AreaBinResult struct {
	Transform grid.Transform `json:"transform"`
	Window    grid.Window    `json:"window"`
	Nodata    float64        `json:"nodata"`
	Counts    []uint32       `json:"counts"`
	Average   []float32      `json:"average"`
}

func (r *AreaBinResult) Width()  int { return r.Window.Width }
func (r *AreaBinResult) Height() int { return r.Window.Height }

func (r *AreaBinResult) WindowTransform() grid.Transform { return r.Transform.Shift(r.Window) }

// Snaps the bounds outward to multiples of the bin size. Every axis gets at least one bin.
func AreaBinTransform(b grid.Bounds, binSize float64) (grid.Transform, grid.Window) {
	left  :=math.Floor(b.Left  /binSize)*binSize
	bottom:=math.Floor(b.Bottom/binSize)*binSize
	width :=int(math.Ceil(b.Right/binSize)-math.Floor(b.Left  /binSize))
	height:=int(math.Ceil(b.Top  /binSize)-math.Floor(b.Bottom/binSize))
	if width <1 { width =1 }
	if height<1 { height=1 }
	top:=bottom+float64(height)*binSize
	return grid.FromOrigin(left, top, binSize, binSize), grid.Window{Width: width, Height: height}
}

// Bins the samples into the window of the given transform. Samples outside are ignored.
func AreaBin(s *SampleSet, t grid.Transform, w grid.Window, nodata float64) *AreaBinResult {
	h:=stats.NewHistogram2D(t.Bounds(w), w.Width, w.Height)
	for i:=range s.X { h.Add(s.X[i], s.Y[i], s.Values[i]) }

	means:=h.Means(nodata)
	avg:=make([]float32, len(means))
	for i, m:=range means { avg[i]=float32(m) }
	return &AreaBinResult{
		Transform: t,
		Window   : w,
		Nodata   : nodata,
		Counts   : h.Counts,
		Average  : avg,
	}
}

// Computes per-bin sample counts and average values on a grid of square bins
func GenerateAreaBinHeatmap(x, y, values []float64, binSize, nodata float64) (*AreaBinResult, error) {
	if !(binSize>0) || math.IsInf(binSize, 0) {
		return nil, fmt.Errorf("%w: bin size %g; need a positive finite value", ErrConfig, binSize)
	}
	s, err:=NewSampleSet(x, y, values)
	if err!=nil { return nil, err }
	t, w:=AreaBinTransform(s.Bounds(), binSize)
	return AreaBin(s, t, w, nodata), nil
}
