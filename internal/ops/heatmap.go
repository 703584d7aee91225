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
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"github.com/mlnoga/heatmap/internal/heatmap"
	"github.com/mlnoga/heatmap/internal/vector"
)

// Computes a tophat density heatmap of each input. Inputs sharing sample
// locations reuse the frequency field of the first one.
type OpDensity struct {
	OpUnaryBase
	GSD              float64    `json:"gsd"`
	Radius           float64    `json:"radius"`
	Padding          int        `json:"padding"`          // cells beyond the radius. -1 pads by the radius only
	Nodata           float64    `json:"nodata"`
	Processes        int        `json:"processes"`        // 0 uses all threads of the context
	SampleBoundsFile string     `json:"sampleBoundsFile"` // GeoJSON polygon restricting the sampled traverse
	FreqIn           string     `json:"freqIn"`           // frequency field from an earlier run
	FreqOut          string     `json:"freqOut"`          // writes frequency fields, %s is replaced by the column name

	mutex            sync.Mutex
	cache            []*heatmap.FrequencyField
	bounds           orb.Geometry
	boundsLoaded     bool
}

func init() { SetOperatorFactory(func() Operator { return NewOpDensityDefault() }) } // register the operator for JSON decoding

func NewOpDensityDefault() *OpDensity { return NewOpDensity(1, 1, -1, 0) }

func NewOpDensity(gsd, radius float64, padding int, nodata float64) *OpDensity {
	op:=&OpDensity{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "density", Active: true}},
		GSD        : gsd,
		Radius     : radius,
		Padding    : padding,
		Nodata     : nodata,
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return op
}

func (op *OpDensity) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if op.OpUnaryBase.Apply==nil { op.OpUnaryBase.Apply=op.Apply } // after JSON decoding
	for _, p:=range []string{op.SampleBoundsFile, op.FreqIn, op.FreqOut} {
		if err:=checkPath(p, c); err!=nil { return nil, err }
	}
	return op.OpUnaryBase.MakePromises(ins, c)
}

// Densities are computed one at a time, each with all processes
func (op *OpDensity) Apply(p *Product, c *Context) (result *Product, err error) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	s, err:=heatmap.NewSampleSet(p.X, p.Y, p.Values)
	if err!=nil { return nil, fmt.Errorf("%d: %s: %w", p.ID, p.Name, err) }
	opts, err:=op.options(s, c)
	if err!=nil { return nil, err }
	opts.Log=&prefixWriter{w: c.Log, prefix: fmt.Sprintf("%d: ", p.ID)}

	fmt.Fprintf(c.Log, "%d: Density heatmap of %s with %d samples, gsd %g radius %g\n", p.ID, p.Name, s.Len(), op.GSD, op.Radius)
	r, err:=heatmap.GenerateDensity(s, opts)
	if opts.Frequencies!=nil && errors.Is(err, heatmap.ErrFrequencyGrid) {
		fmt.Fprintf(c.Log, "%d: Recomputing frequencies, %s\n", p.ID, err.Error())
		opts.Frequencies=nil
		r, err=heatmap.GenerateDensity(s, opts)
	}
	if err!=nil { return nil, fmt.Errorf("%d: %s: %w", p.ID, p.Name, err) }

	if opts.Frequencies==nil { op.cache=append(op.cache, r.Frequencies) }
	if op.FreqOut!="" {
		fileName:=op.FreqOut
		if strings.Contains(fileName, "%s") { fileName=fmt.Sprintf(op.FreqOut, p.Name) }
		fmt.Fprintf(c.Log, "%d: Writing frequencies to %s\n", p.ID, fileName)
		if err:=r.Frequencies.WriteFile(fileName); err!=nil { return nil, err }
	}
	p.Density=r
	return p, nil
}

// Must be called with the mutex held
func (op *OpDensity) options(s *heatmap.SampleSet, c *Context) (heatmap.DensityOptions, error) {
	opts:=heatmap.NewDensityOptions(op.GSD, op.Radius)
	opts.Nodata=op.Nodata
	opts.MaxCells=c.MaxCells
	opts.Processes=op.Processes
	if opts.Processes==0 { opts.Processes=c.MaxThreads }
	if op.Padding>=0 {
		padding:=op.Padding
		opts.Padding=&padding
	}

	if op.SampleBoundsFile!="" && !op.boundsLoaded {
		b, err:=vector.ReadBoundsFile(op.SampleBoundsFile)
		if err!=nil { return opts, err }
		op.bounds, op.boundsLoaded=b, true
	}
	opts.SampleBounds=op.bounds

	if op.FreqIn!="" && len(op.cache)==0 {
		f, err:=heatmap.ReadFrequencyFieldFile(op.FreqIn)
		if err!=nil { return opts, err }
		op.cache=append(op.cache, f)
	}
	for _, f:=range op.cache {
		if f.ReusableFor(s, op.Radius) {
			opts.Frequencies=f
			break
		}
	}
	return opts, nil
}


// Bins each input into a grid of square bins and averages per bin
type OpAreaBin struct {
	OpUnaryBase
	BinSize float64 `json:"binSize"`
	Nodata  float64 `json:"nodata"`
}

func init() { SetOperatorFactory(func() Operator { return NewOpAreaBinDefault() }) } // register the operator for JSON decoding

func NewOpAreaBinDefault() *OpAreaBin { return NewOpAreaBin(1, 0) }

func NewOpAreaBin(binSize, nodata float64) *OpAreaBin {
	op:=&OpAreaBin{
		OpUnaryBase: OpUnaryBase{OpBase: OpBase{Type: "areaBin", Active: true}},
		BinSize    : binSize,
		Nodata     : nodata,
	}
	op.OpUnaryBase.Apply=op.Apply // assign class method to superclass abstract method
	return op
}

func (op *OpAreaBin) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if op.OpUnaryBase.Apply==nil { op.OpUnaryBase.Apply=op.Apply } // after JSON decoding
	return op.OpUnaryBase.MakePromises(ins, c)
}

func (op *OpAreaBin) Apply(p *Product, c *Context) (result *Product, err error) {
	r, err:=heatmap.GenerateAreaBinHeatmap(p.X, p.Y, p.Values, op.BinSize, op.Nodata)
	if err!=nil { return nil, fmt.Errorf("%d: %s: %w", p.ID, p.Name, err) }
	fmt.Fprintf(c.Log, "%d: Area bins of %s with size %g, grid %v\n", p.ID, p.Name, op.BinSize, r.Window)
	p.AreaBin=r
	return p, nil
}


// Prefixes every line written to the underlying writer
type prefixWriter struct {
	w      io.Writer
	prefix string
}

func (pw *prefixWriter) Write(b []byte) (int, error) {
	if _, err:=pw.w.Write([]byte(pw.prefix)); err!=nil { return 0, err }
	return pw.w.Write(b)
}
