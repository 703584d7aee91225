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

package raster

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Creates a plot of the layer in world coordinates with a heat palette. Nodata is left blank
func PlotLayer(l *Layer, title string) (*plot.Plot, error) {
	if min, _:=l.Range(); math.IsNaN(min) {
		return nil, fmt.Errorf("layer %s has no valid values to plot", l.Name)
	}
	p:=plot.New()
	p.Title.Text=title
	p.X.Label.Text="x"
	p.Y.Label.Text="y"

	h:=plotter.NewHeatMap(l, palette.Heat(32, 1))
	h.NaN=color.Transparent
	p.Add(h)

	b:=l.Bounds()
	p.X.Min, p.X.Max=b.Left, b.Right
	p.Y.Min, p.Y.Max=b.Bottom, b.Top
	return p, nil
}

// Saves a plot of the layer. The format follows the file extension, as supported by gonum/plot
func WritePlotToFile(fileName string, l *Layer, title string, width, height vg.Length) error {
	p, err:=PlotLayer(l, title)
	if err!=nil { return err }
	return p.Save(width, height, fileName)
}
