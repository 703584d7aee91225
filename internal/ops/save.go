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

package ops

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot/vg"

	"github.com/mlnoga/heatmap/internal/raster"
	"github.com/mlnoga/heatmap/internal/stats"
	"github.com/mlnoga/heatmap/internal/vector"
)

// Saves the heatmap of a product under a file name pattern, where %s is replaced by
// the column name. The extension selects the format: .asc ASCII grid, .tif 16-bit TIFF,
// .png or .jpg color relief or plot, .svg, .pdf or .eps plot, .json the full result,
// .geojson the outline of the heatmap extent.
// Takes one input, produces one output (the materialized but unchanged input)
type OpSave struct {
	OpUnaryBase
	FilePattern  string `json:"filePattern"`
	Counts       bool   `json:"counts"`       // save the count grid instead of the average
	Plot         bool   `json:"plot"`         // render images as plots with axes
	ColorMapFile string `json:"colorMapFile"` // gdaldem color-relief text file, default ramp if empty
}

func init() { SetOperatorFactory(func() Operator { return NewOpSaveDefault() }) } // register the operator for JSON decoding

func NewOpSaveDefault() *OpSave { return NewOpSave("", false) }

func NewOpSave(filePattern string, counts bool) *OpSave {
	op:=&OpSave{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "save", Active: filePattern!=""}},
		FilePattern: filePattern,
		Counts     : counts,
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return op
}

func (op *OpSave) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if op.OpUnaryBase.Apply==nil { op.OpUnaryBase.Apply=op.Apply } // after JSON decoding
	for _, p:=range []string{op.FilePattern, op.ColorMapFile} {
		if err:=checkPath(p, c); err!=nil { return nil, err }
	}
	return op.OpUnaryBase.MakePromises(ins, c)
}

// Returns the layer to save, and the result it was taken from
func (op *OpSave) layer(p *Product) (*raster.Layer, interface{}, error) {
	switch {
	case p.Density!=nil:
		r:=p.Density
		if op.Counts { return raster.FromUint32(p.Name+" counts", r.Transform, r.Window, r.Counts), r, nil }
		return raster.FromFloat32(p.Name+" average", r.Transform, r.Window, r.Average, r.Nodata), r, nil
	case p.AreaBin!=nil:
		r:=p.AreaBin
		if op.Counts { return raster.FromUint32(p.Name+" counts", r.Transform, r.Window, r.Counts), r, nil }
		return raster.FromFloat32(p.Name+" average", r.Transform, r.Window, r.Average, r.Nodata), r, nil
	}
	return nil, nil, fmt.Errorf("%d: %s has no heatmap to save", p.ID, p.Name)
}

func (op *OpSave) Apply(p *Product, c *Context) (result *Product, err error) {
	if !op.Active || op.FilePattern=="" { return p, nil }
	fileName:=op.FilePattern
	if strings.Contains(fileName, "%s") {
		fileName=fmt.Sprintf(op.FilePattern, p.Name)
	}
	fnLower:=strings.ToLower(fileName)

	l, res, err:=op.layer(p)
	if err!=nil { return nil, err }
	min, max:=l.Range()

	if strings.HasSuffix(fnLower, ".asc") {
		fmt.Fprintf(c.Log, "%d: Writing %dx%d ASCII grid to %s\n", p.ID, l.Width, l.Height, fileName)
		err=raster.WriteASCIIGridToFile(fileName, l, c.CRS)
	} else if strings.HasSuffix(fnLower, ".tif") || strings.HasSuffix(fnLower, ".tiff") {
		fmt.Fprintf(c.Log, "%d: Writing %dx%d 16-bit TIFF for range [%g,%g] to %s\n", p.ID, l.Width, l.Height, min, max, fileName)
		err=raster.WriteTIFF16ToFile(fileName, l, min, max)
	} else if strings.HasSuffix(fnLower, ".svg") || strings.HasSuffix(fnLower, ".pdf") || strings.HasSuffix(fnLower, ".eps") ||
	          (op.Plot && (strings.HasSuffix(fnLower, ".png") || strings.HasSuffix(fnLower, ".jpg") || strings.HasSuffix(fnLower, ".jpeg"))) {
		fmt.Fprintf(c.Log, "%d: Writing plot of %s to %s\n", p.ID, l.Name, fileName)
		err=raster.WritePlotToFile(fileName, l, l.Name, 16*vg.Centimeter, 12*vg.Centimeter)
	} else if strings.HasSuffix(fnLower, ".png") || strings.HasSuffix(fnLower, ".jpg") || strings.HasSuffix(fnLower, ".jpeg") {
		m:=raster.DefaultColorMap()
		if op.ColorMapFile!="" {
			if m, err=raster.ReadColorMapFile(op.ColorMapFile); err!=nil { return nil, err }
		}
		fmt.Fprintf(c.Log, "%d: Writing %dx%d color relief to %s\n", p.ID, l.Width, l.Height, fileName)
		err=raster.WriteReliefToFile(fileName, l, m, 95)
	} else if strings.HasSuffix(fnLower, ".json") {
		fmt.Fprintf(c.Log, "%d: Writing result as JSON to %s\n", p.ID, fileName)
		var b []byte
		if b, err=json.Marshal(res); err==nil { err=os.WriteFile(fileName, b, 0666) }
	} else if strings.HasSuffix(fnLower, ".geojson") {
		fmt.Fprintf(c.Log, "%d: Writing outline to %s\n", p.ID, fileName)
		props:=map[string]interface{}{"name": l.Name, "width": l.Width, "height": l.Height}
		if !math.IsNaN(min) { props["min"], props["max"]=min, max }
		var b []byte
		if b, err=vector.MarshalOutline(outline(l), props); err==nil { err=os.WriteFile(fileName, b, 0666) }
	} else {
		err=fmt.Errorf("unknown suffix")
	}
	if err!=nil { return nil, fmt.Errorf("%d: error writing to file %s: %w", p.ID, fileName, err) }

	info:=raster.Describe(l, c.CRS, fileName)
	if b, err:=json.MarshalIndent(info, "", "  "); err==nil {
		fmt.Fprintf(c.Log, "%d: %s\n", p.ID, string(b))
	}
	data:=make([]float32, len(l.Data))
	for i, v:=range l.Data { data[i]=float32(v) }
	qs:=stats.SampledQuantiles(data, float32(l.Nodata), []float64{0.05, 0.5, 0.95}, 100000, uint32(p.ID+1))
	fmt.Fprintf(c.Log, "%d: Quantiles 5%% %.4g, 50%% %.4g, 95%% %.4g\n", p.ID, qs[0], qs[1], qs[2])
	return p, nil
}

// Rectangle around all cells of the layer
func outline(l *raster.Layer) orb.Polygon {
	b:=l.Bounds()
	return orb.Polygon{{{b.Left, b.Bottom}, {b.Right, b.Bottom}, {b.Right, b.Top}, {b.Left, b.Top}, {b.Left, b.Bottom}}}
}
