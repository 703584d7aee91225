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

package mask

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mlnoga/heatmap/internal/grid"
)

// A boolean raster over a window of a grid. Skip is true for cells outside
// the shape, which are not evaluated. Immutable once built.
type Mask struct {
	Transform grid.Transform // of the full grid
	Window    grid.Window
	Skip      []bool         // row-major, Window.Height rows of Window.Width
	count     int
}

// Rasterizes the exterior of the given polygonal shape. The mask covers the
// bounding window of the shape only. A cell belongs to the shape if its center does.
func New(shape orb.Geometry, t grid.Transform) (*Mask, error) {
	polys, err:=Polygons(shape)
	if err!=nil { return nil, err }
	if len(polys)==0 { return nil, fmt.Errorf("%w: empty shape", ErrGeometry) }

	w:=t.Window(grid.FromBound(shape.Bound()))
	if w.Cells()==0 { return nil, fmt.Errorf("%w: shape covers no cells", ErrGeometry) }

	m:=&Mask{Transform: t, Window: w, Skip: make([]bool, w.Cells())}
	for i:=range m.Skip { m.Skip[i]=true }

	wt:=t.Shift(w)
	for _,poly:=range polys {
		if len(poly)==0 { continue }
		pw:=wt.Window(grid.FromBound(poly.Bound()))
		rowStart, rowEnd:=max(pw.RowOff, 0), min(pw.RowOff+pw.Height, w.Height)
		colStart, colEnd:=max(pw.ColOff, 0), min(pw.ColOff+pw.Width,  w.Width )
		for row:=rowStart; row<rowEnd; row++ {
			offset:=row*w.Width
			for col:=colStart; col<colEnd; col++ {
				if !m.Skip[offset+col] { continue }
				x, y:=wt.XY(row, col)
				if planar.PolygonContains(poly, orb.Point{x, y}) {
					m.Skip[offset+col]=false
					m.count++
				}
			}
		}
	}
	return m, nil
}

// Number of cells to evaluate
func (m *Mask) Count() int { return m.count }

// Whether the given window-relative cell is skipped
func (m *Mask) At(row, col int) bool { return m.Skip[row*m.Window.Width+col] }

// Returns the cells to evaluate, in row-major order
func (m *Mask) Unmasked() []grid.Cell {
	cells:=make([]grid.Cell, 0, m.count)
	for i, skip:=range m.Skip {
		if skip { continue }
		cells=append(cells, grid.Cell{Row: i/m.Window.Width, Col: i%m.Window.Width})
	}
	return cells
}

// Returns the transform of the upper left cell of the mask window
func (m *Mask) WindowTransform() grid.Transform { return m.Transform.Shift(m.Window) }
