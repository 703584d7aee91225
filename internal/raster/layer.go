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

// Package raster writes heatmap grids to georeferenced files and images.
package raster

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/mlnoga/heatmap/internal/grid"
)

// A single band raster on a north-up grid. Row 0 is at the top
type Layer struct {
	Name      string
	Transform grid.Transform // of the upper left cell
	Width     int
	Height    int
	Nodata    float64
	Data      []float64
	bits      int            // precision of the source values for text output, 32 or 64
}

// Creates a layer from a window of a float32 grid
func FromFloat32(name string, t grid.Transform, w grid.Window, data []float32, nodata float64) *Layer {
	l:=&Layer{Name: name, Transform: t.Shift(w), Width: w.Width, Height: w.Height, Nodata: nodata, Data: make([]float64, len(data)), bits: 32}
	for i, d:=range data { l.Data[i]=float64(d) }
	return l
}

// Creates a layer from a window of a count grid. Counts have no nodata value, zero is used
func FromUint32(name string, t grid.Transform, w grid.Window, data []uint32) *Layer {
	l:=&Layer{Name: name, Transform: t.Shift(w), Width: w.Width, Height: w.Height, Nodata: 0, Data: make([]float64, len(data)), bits: 32}
	for i, d:=range data { l.Data[i]=float64(d) }
	return l
}

func (l *Layer) At(row, col int) float64 { return l.Data[row*l.Width+col] }

// Checks whether a value carries data
func (l *Layer) IsValid(v float64) bool { return v!=l.Nodata && !math.IsNaN(v) }

// Returns the range of valid values, or NaNs if there are none
func (l *Layer) Range() (min, max float64) {
	min, max=math.Inf(1), math.Inf(-1)
	for _, v:=range l.Data {
		if !l.IsValid(v) { continue }
		if v<min { min=v }
		if v>max { max=v }
	}
	if min>max { return math.NaN(), math.NaN() }
	return min, max
}

func (l *Layer) Bounds() grid.Bounds {
	return l.Transform.Bounds(grid.Window{Width: l.Width, Height: l.Height})
}

func (l *Layer) precision() int {
	if l.bits==0 { return 64 }
	return l.bits
}

// Dims, X, Y and Z make the layer a gonum plotter.GridXYZ. Plot rows run from the bottom.
func (l *Layer) Dims() (c, r int) { return l.Width, l.Height }

func (l *Layer) X(c int) float64 {
	x, _:=l.Transform.XY(0, c)
	return x
}

func (l *Layer) Y(r int) float64 {
	_, y:=l.Transform.XY(l.Height-1-r, 0)
	return y
}

// Nodata is NaN
func (l *Layer) Z(c, r int) float64 {
	v:=l.At(l.Height-1-r, c)
	if !l.IsValid(v) { return math.NaN() }
	return v
}

// Replaces the extension of a file name
func sidecarName(fileName, ext string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))+ext
}
