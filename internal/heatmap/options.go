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
	"io"
	"math"

	"github.com/paulmach/orb"

	"github.com/mlnoga/heatmap/internal/grid"
	"github.com/mlnoga/heatmap/internal/mask"
)

// Settings for a density heatmap
type DensityOptions struct {
	GSD          float64         // cell size, in the units of the coordinates
	Radius       float64         // kernel radius
	Padding      *int            // cells of padding beyond the radius. nil pads by the radius only
	Nodata       float64         // average of cells without observations
	Transform    *grid.Transform // optional caller-supplied grid. Must have cells of size GSD
	Processes    int             // goroutines per scoring pass, at least 1
	SampleBounds orb.Geometry    // optional polygon or multipolygon restricting the sampled traverse
	Frequencies  *FrequencyField // optional result of an earlier call over the same locations
	MaxCells     int             // limit on the evaluated window size, 0 for none
	Log          io.Writer       // progress output, nil for none
}

// Returns options with a single process, no padding and nodata 0
func NewDensityOptions(gsd, radius float64) DensityOptions {
	return DensityOptions{GSD: gsd, Radius: radius, Processes: 1}
}

func (o *DensityOptions) validate() error {
	if o.Processes<1 {
		return fmt.Errorf("%w: processes=%d; need at least 1", ErrConfig, o.Processes)
	}
	if !(o.GSD>0) || math.IsInf(o.GSD, 0) {
		return fmt.Errorf("%w: gsd=%g; need a positive finite value", ErrConfig, o.GSD)
	}
	if !(o.Radius>0) || math.IsInf(o.Radius, 0) {
		return fmt.Errorf("%w: radius=%g; need a positive finite value", ErrConfig, o.Radius)
	}
	if o.Padding!=nil && *o.Padding<0 {
		return fmt.Errorf("%w: padding=%d; need a non-negative value", ErrConfig, *o.Padding)
	}
	if o.Transform!=nil && !o.Transform.HasCellSize(o.GSD) {
		return fmt.Errorf("%w: transform cell size %gx%g differs from gsd %g", ErrConfig, o.Transform.CellSizeX, o.Transform.CellSizeY, o.GSD)
	}
	if o.SampleBounds!=nil {
		if _, err:=mask.Polygons(o.SampleBounds); err!=nil { return fmt.Errorf("%w: sample bounds: %w", ErrConfig, err) }
	}
	if o.MaxCells<0 {
		return fmt.Errorf("%w: maxCells=%d; need a non-negative value", ErrConfig, o.MaxCells)
	}
	return nil
}

// Distance the traverse is buffered by to find the cells worth evaluating
func (o *DensityOptions) buffer() float64 {
	if o.Padding==nil { return o.Radius }
	return float64(*o.Padding)*o.GSD + o.Radius
}

// Rejects a cell size larger than a non-zero extent of the data. A zero extent
// means all samples share that coordinate, and the window collapses to the buffer.
func checkExtent(b grid.Bounds, gsd float64) error {
	w, h:=b.Width(), b.Height()
	if (w>0 && gsd>w) || (h>0 && gsd>h) {
		return fmt.Errorf("%w: gsd %g is larger than the %gx%g extent of the data", ErrConfig, gsd, w, h)
	}
	return nil
}
