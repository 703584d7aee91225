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
	"time"

	"github.com/paulmach/orb"

	"github.com/mlnoga/heatmap/internal/grid"
	"github.com/mlnoga/heatmap/internal/kde"
	"github.com/mlnoga/heatmap/internal/mask"
)

// Kernel outputs with a magnitude at or below this are treated as zero
const NoiseFloor=1e-9

// Computes a density heatmap from parallel coordinate and value arrays.
// Entries with NaN values are dropped together with their coordinates.
func GenerateDensityHeatmap(x, y, values []float64, opts DensityOptions) (*DensityResult, error) {
	if err:=opts.validate(); err!=nil { return nil, err }
	s, err:=NewSampleSet(x, y, values)
	if err!=nil { return nil, err }
	return GenerateDensity(s, opts)
}

// Computes a density heatmap: per cell near the traverse, the estimated number of
// observations within the radius and their average value
func GenerateDensity(s *SampleSet, opts DensityOptions) (*DensityResult, error) {
	if err:=opts.validate(); err!=nil { return nil, err }
	logWriter:=opts.Log
	if logWriter==nil { logWriter=io.Discard }
	start:=time.Now()

	// the traverse, optionally restricted to the sampling region
	var path orb.Geometry=mask.Path(s.X, s.Y)
	extent:=s.Bounds()
	if opts.SampleBounds!=nil {
		clipped, err:=mask.Clip(path.(orb.LineString), opts.SampleBounds)
		if err!=nil { return nil, fmt.Errorf("%w: %w", ErrConfig, err) }
		if len(clipped)==0 { return nil, fmt.Errorf("%w: sample bounds do not intersect the traverse", ErrConfig) }
		path  =clipped
		extent=grid.FromBound(opts.SampleBounds.Bound())
	}
	buffer:=opts.buffer()

	var t grid.Transform
	if opts.Transform!=nil {
		t=*opts.Transform
	} else {
		if err:=checkExtent(extent, opts.GSD); err!=nil { return nil, err }
		padded:=extent.PadGridAlign(opts.GSD, grid.PaddingPixels(buffer, opts.GSD))
		t=grid.FromOrigin(padded.Left, padded.Top, opts.GSD, opts.GSD)
	}

	// size the window before rasterizing the shape into it
	shape:=mask.Buffer(path, buffer, mask.QuadSegs)
	if w:=t.Window(grid.FromBound(shape.Bound())); opts.MaxCells>0 && w.Exceeds(opts.MaxCells) {
		return nil, fmt.Errorf("%w: window %v exceeds the limit of %d cells", ErrConfig, w, opts.MaxCells)
	}
	m, err:=mask.New(shape, t)
	if err!=nil { return nil, fmt.Errorf("%w: %w", ErrConfig, err) }
	freq:=opts.Frequencies
	if freq!=nil {
		if err:=freq.check(s, opts.Radius, m); err!=nil { return nil, err }
	}
	fmt.Fprintf(logWriter, "Grid %v, window %v, evaluating %d of %d cells for %d samples\n",
	            t, m.Window, m.Count(), m.Window.Cells(), s.Len())

	cells:=m.Unmasked()
	coords:=cellCenters(m.WindowTransform(), cells)
	points:=s.Points()

	if freq==nil {
		passStart:=time.Now()
		values, err:=frequencyPass(points, coords, opts.Radius, opts.Processes)
		if err!=nil { return nil, err }
		freq=&FrequencyField{
			Transform: t,
			Window   : m.Window,
			Radius   : opts.Radius,
			Samples  : s.Len(),
			Locations: s.LocationsHash(),
			Values   : values,
		}
		fmt.Fprintf(logWriter, "Frequencies for %d cells with %d processes after %v\n", len(coords), opts.Processes, time.Since(passStart))
	} else {
		fmt.Fprintf(logWriter, "Reusing frequencies for %d cells\n", len(freq.Values))
	}

	passStart:=time.Now()
	weighted, normalizer, err:=weightedPass(points, s.Values, coords, opts.Radius, opts.Processes)
	if err!=nil { return nil, err }
	fmt.Fprintf(logWriter, "Weighted density for %d cells with %d processes after %v\n", len(coords), opts.Processes, time.Since(passStart))

	average, counts:=deriveStats(freq.Values, weighted, normalizer, opts.Radius, opts.Nodata)
	avgGrid, countGrid, err:=Assemble(m.Window, cells, average, counts, opts.Nodata)
	if err!=nil { return nil, err }

	fmt.Fprintf(logWriter, "Density heatmap done after %v\n", time.Since(start))
	return &DensityResult{
		Transform  : t,
		Window     : m.Window,
		Nodata     : opts.Nodata,
		Counts     : countGrid,
		Average    : avgGrid,
		Frequencies: freq,
		Mask       : m,
	}, nil
}

func cellCenters(t grid.Transform, cells []grid.Cell) []kde.Point {
	coords:=make([]kde.Point, len(cells))
	for i, c:=range cells {
		x, y:=t.XY(c.Row, c.Col)
		coords[i]=kde.Point{X: x, Y: y}
	}
	return coords
}

// Unweighted pass: kernel density scaled by the sample count into an
// absolute observation density, noise-floored
func frequencyPass(points, coords []kde.Point, radius float64, processes int) ([]float64, error) {
	model, err:=kde.Fit(radius, points, nil)
	if err!=nil { return nil, fmt.Errorf("%w: %w", ErrConfig, err) }
	scores, err:=model.ScoreParallel(coords, processes)
	if err!=nil { return nil, err }
	n:=float64(model.Len())
	for i, d:=range scores { scores[i]=floorNoise(d*n) }
	return scores, nil
}

// Weighted pass: kernel density with the values as weights, noise-floored.
// Also returns the normalizer the density was divided by.
func weightedPass(points []kde.Point, values []float64, coords []kde.Point, radius float64, processes int) ([]float64, float64, error) {
	model, err:=kde.Fit(radius, points, values)
	if err!=nil { return nil, 0, fmt.Errorf("%w: %w", ErrConfig, err) }
	scores, err:=model.ScoreParallel(coords, processes)
	if err!=nil { return nil, 0, err }
	for i, d:=range scores { scores[i]=floorNoise(d) }
	return scores, model.Normalizer(), nil
}

func floorNoise(v float64) float64 {
	if math.Abs(v)<=NoiseFloor { return 0 }
	return v
}

// Average is the weighted mass over the frequency, nodata where that is not finite.
// Count is the frequency times the kernel area, rounded half to even.
func deriveStats(freq, weighted []float64, normalizer, radius, nodata float64) (average, counts []float64) {
	average=make([]float64, len(freq))
	counts =make([]float64, len(freq))
	area:=math.Pi*radius*radius
	for i, f:=range freq {
		total:=normalizer*weighted[i]
		ratio:=total/f
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			average[i]=nodata
		} else {
			average[i]=ratio
		}
		counts[i]=math.RoundToEven(f*area)
	}
	return average, counts
}
