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

// Package grid maps between raster cell indices and world coordinates.
package grid

import (
	"fmt"
	"math"
)

// A north-up affine transform. Cell (row, col) has its upper left corner at
// (OriginX + col*CellSizeX, OriginY - row*CellSizeY).
type Transform struct {
	OriginX   float64 `json:"originX"`
	OriginY   float64 `json:"originY"`
	CellSizeX float64 `json:"cellSizeX"`
	CellSizeY float64 `json:"cellSizeY"`
}

// Creates a transform from the upper left corner and the cell sizes
func FromOrigin(west, north, xsize, ysize float64) Transform {
	return Transform{OriginX: west, OriginY: north, CellSizeX: xsize, CellSizeY: ysize}
}

// Returns the world coordinates of the center of the given cell
func (t Transform) XY(row, col int) (x, y float64) {
	x=t.OriginX + (float64(col)+0.5)*t.CellSizeX
	y=t.OriginY - (float64(row)+0.5)*t.CellSizeY
	return x, y
}

// Returns the cell containing the given world coordinates
func (t Transform) RowCol(x, y float64) (row, col int) {
	col=int(math.Floor((x-t.OriginX)/t.CellSizeX))
	row=int(math.Floor((t.OriginY-y)/t.CellSizeY))
	return row, col
}

// Returns the smallest window of cells covering the given bounds.
// Offsets are floored, far edges ceiled.
func (t Transform) Window(b Bounds) Window {
	colOff:=math.Floor((b.Left  -t.OriginX)/t.CellSizeX)
	rowOff:=math.Floor((t.OriginY-b.Top   )/t.CellSizeY)
	colEnd:=math.Ceil ((b.Right -t.OriginX)/t.CellSizeX)
	rowEnd:=math.Ceil ((t.OriginY-b.Bottom)/t.CellSizeY)
	return Window{ColOff: int(colOff), RowOff: int(rowOff), Width: clampSize(colEnd-colOff), Height: clampSize(rowEnd-rowOff)}
}

// Largest window width or height. Keeps Cells within int64 for any extent
const MaxSize=math.MaxInt32

func clampSize(n float64) int {
	if !(n>0) { return 0 }
	if n>MaxSize { return MaxSize }
	return int(n)
}

// Returns the transform whose origin is the upper left corner of the window
func (t Transform) Shift(w Window) Transform {
	return Transform{
		OriginX  : t.OriginX + float64(w.ColOff)*t.CellSizeX,
		OriginY  : t.OriginY - float64(w.RowOff)*t.CellSizeY,
		CellSizeX: t.CellSizeX,
		CellSizeY: t.CellSizeY,
	}
}

// Returns the world bounds of the given window
func (t Transform) Bounds(w Window) Bounds {
	s:=t.Shift(w)
	return Bounds{
		Left  : s.OriginX,
		Bottom: s.OriginY - float64(w.Height)*s.CellSizeY,
		Right : s.OriginX + float64(w.Width )*s.CellSizeX,
		Top   : s.OriginY,
	}
}

// Returns the six coefficients in GDAL order: origin x, pixel width, row rotation,
// origin y, column rotation, negative pixel height
func (t Transform) GeoTransform() [6]float64 {
	return [6]float64{t.OriginX, t.CellSizeX, 0, t.OriginY, 0, -t.CellSizeY}
}

// Checks whether the cell sizes match the given ground sample distance exactly
func (t Transform) HasCellSize(gsd float64) bool {
	return t.CellSizeX==gsd && t.CellSizeY==gsd
}

func (t Transform) String() string {
	return fmt.Sprintf("origin (%g, %g) cell %gx%g", t.OriginX, t.OriginY, t.CellSizeX, t.CellSizeY)
}


// A rectangular range of cells relative to a transform
type Window struct {
	ColOff int `json:"colOff"`
	RowOff int `json:"rowOff"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Number of cells in the window
func (w Window) Cells() int { return w.Width*w.Height }

// Whether the window has more than limit cells, without overflowing
func (w Window) Exceeds(limit int) bool {
	if w.Width<=0 || w.Height<=0 { return false }
	return w.Width>limit/w.Height
}

func (w Window) String() string {
	return fmt.Sprintf("%dx%d at (%d,%d)", w.Width, w.Height, w.RowOff, w.ColOff)
}


// A cell index relative to a window
type Cell struct {
	Row int
	Col int
}
