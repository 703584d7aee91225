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

package grid

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// An axis-aligned world rectangle
type Bounds struct {
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
}

// Returns the extent of the given coordinates. Empty input yields inverted infinite bounds
func ComputeBounds(xs, ys []float64) Bounds {
	b:=Bounds{Left: math.Inf(1), Bottom: math.Inf(1), Right: math.Inf(-1), Top: math.Inf(-1)}
	for i:=range xs {
		if xs[i]<b.Left   { b.Left  =xs[i] }
		if xs[i]>b.Right  { b.Right =xs[i] }
		if ys[i]<b.Bottom { b.Bottom=ys[i] }
		if ys[i]>b.Top    { b.Top   =ys[i] }
	}
	return b
}

// Converts an orb bound
func FromBound(b orb.Bound) Bounds {
	return Bounds{Left: b.Min.X(), Bottom: b.Min.Y(), Right: b.Max.X(), Top: b.Max.Y()}
}

func (b Bounds) Width()  float64 { return b.Right-b.Left }
func (b Bounds) Height() float64 { return b.Top-b.Bottom }

func (b Bounds) IsEmpty() bool { return b.Left>b.Right || b.Bottom>b.Top }

// Pads the bounds by the given number of cells and snaps every edge outward
// onto the global grid of the given size, anchored at (0,0)
func (b Bounds) PadGridAlign(gsd float64, padPixels int) Bounds {
	pad:=float64(padPixels)
	return Bounds{
		Left  : (math.Floor(b.Left  /gsd)-pad)*gsd,
		Bottom: (math.Floor(b.Bottom/gsd)-pad)*gsd,
		Right : (math.Ceil (b.Right /gsd)+pad)*gsd,
		Top   : (math.Ceil (b.Top   /gsd)+pad)*gsd,
	}
}

// Number of whole cells needed to cover a buffer distance
func PaddingPixels(buffer, gsd float64) int {
	return int(math.Ceil(buffer/gsd))
}

func (b Bounds) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", b.Left, b.Bottom, b.Right, b.Top)
}
