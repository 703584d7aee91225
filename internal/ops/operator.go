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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"

	"github.com/mlnoga/heatmap/internal/heatmap"
)

// Approximate bytes held per window cell while computing a density heatmap
const bytesPerCell=64

// An execution context for operators
type Context struct {
	Log           io.Writer
	MemoryMB      int          // memory.TotalMemory()/1024/1024
	HeatmapMemMB  int          // MemoryMB*7/10
	MaxThreads    int          `json:"maxThreads"`
	MaxCells      int          // largest density window that fits into HeatmapMemMB
	CRS           string       // coordinate reference system of the samples, for sidecar files
	RestrictPaths bool         // only allow relative paths inside the working directory
}

func NewContext(log io.Writer) *Context {
	memoryMB:=int(memory.TotalMemory()/1024/1024)
	heatmapMemMB:=memoryMB*7/10
	return &Context{
		Log          : log,
		MemoryMB     : memoryMB,
		HeatmapMemMB : heatmapMemMB,
		MaxThreads   : defaultThreads(),
		MaxCells     : MaxCellsFor(heatmapMemMB),
	}
}

// Largest density window that fits into the given memory
func MaxCellsFor(memMB int) int {
	return memMB*1024*(1024/bytesPerCell)
}

// Logical cores as reported by the CPU, falling back to the Go runtime
func defaultThreads() int {
	if n:=cpuid.CPU.LogicalCores; n>0 {
		if max:=runtime.GOMAXPROCS(0); n>max { return max }
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// Data flowing between operators: one value column of a traverse, and the
// heatmaps computed from it
type Product struct {
	ID      int
	Name    string                 // name of the value column
	Source  string                 // file the samples were read from
	X       []float64
	Y       []float64
	Values  []float64
	Density *heatmap.DensityResult
	AreaBin *heatmap.AreaBinResult
}

// A promise for a product. Returns a materialized product, or an error
type Promise func() (p *Product, err error)

// Materializes all promises with given concurrency limit
func MaterializeAll(ins []Promise, maxThreads int, forget bool) (outs []*Product, err error) {
	if len(ins)==0 { return nil, nil }
	if maxThreads<1 { maxThreads=1 }
	if !forget {
		outs=make([]*Product, len(ins))
	}
	limiter:=make(chan bool, maxThreads)
	errs   :=make(chan error, len(ins))
	for i, in:=range ins {
		limiter <- true
		go func(i int, theIn Promise) {
			defer func() { <-limiter }()
			p, err:=theIn() // materialize the promise
			if err!=nil {
				errs <- err
				return
			}
			if !forget {
				outs[i]=p
			}
			errs <- nil
		}(i, in)
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}
	var all []error
	for i:=0; i<len(ins); i++ {  // collect errors
		if e:= <-errs; e!=nil { all=append(all, e) }
	}
	return RemoveNils(outs), errors.Join(all...)
}

// Remove nils from an array of products, editing the underlying array in place
func RemoveNils(ps []*Product) []*Product {
	o:=0
	for i:=0; i<len(ps); i++ {
		if ps[i]!=nil {
			ps[o]=ps[i]
			o++
		}
	}
	for i:=o; i<len(ps); i++ {
		ps[i]=nil
	}
	return ps[:o]
}


// A general heatmap operator: takes n promises as inputs,
// and produces m promises as output or an error
type Operator interface {
	GetType() string
	IsActive() bool
	MakePromises(ins []Promise, c *Context) (outs []Promise, err error)
}

// Base type for operators, including type information for JSON serializing/deserializing
type OpBase struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool { return op.Active }

// Factory method for operators. For JSON serializing/deserializing
type OperatorFactory func() Operator

// Mapping from operator type strings to factory method for the type
var operatorFactories=map[string]OperatorFactory{}

// Returns the operator factory for a given type string
func GetOperatorFactory(t string) OperatorFactory {
	return operatorFactories[t]
}

// Registers a given type string for a given type of operator, identified via an exemplar generator
func SetOperatorFactory(f OperatorFactory) {
	op:=f()
	t:=op.GetType()
	if GetOperatorFactory(t)!=nil { panic(fmt.Sprintf("error: re-registering operator key %s\n", t)) }
	operatorFactories[t]=f
}

// Decodes a single operator from JSON, using its type field to pick the factory
func UnmarshalOperator(raw []byte) (Operator, error) {
	var base OpBase
	if err:=json.Unmarshal(raw, &base); err!=nil { return nil, err }
	factory:=GetOperatorFactory(base.Type)
	if factory==nil { return nil, fmt.Errorf("unknown operator type '%s' in raw JSON message '%s'", base.Type, string(raw)) }
	op:=factory()
	if err:=json.Unmarshal(raw, op); err!=nil { return nil, err }
	return op, nil
}


// A unary operator: given n promises as inputs,
// applies itself to each of them individually and returns n output promises or an error
type OperatorUnary interface {
	Operator
	Apply(p *Product, c *Context) (pOut *Product, err error)
}

// Abstract base type for unary operators. Uses golang workaround for abstract classes
// from https://golangbyexample.com/go-abstract-class/
type OpUnaryBase struct {
	OpBase
	Apply func(p *Product, c *Context) (pOut *Product, err error) `json:"-"`
}

func (op *OpUnaryBase) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins)==0 { return nil, fmt.Errorf("%s operator with %d inputs", op.Type, len(ins)) }
	outs=make([]Promise, len(ins))
	for i, in:=range ins {
		outs[i]=op.MakePromise(in, c)
	}
	return outs, nil
}

func (op *OpUnaryBase) MakePromise(in Promise, c *Context) (out Promise) {
	return func() (p *Product, err error) {
		if p, err=in();          err!=nil { return nil, err } // materialize input promise
		if !op.Active { return p, nil }
		if p, err=op.Apply(p,c); err!=nil { return nil, err } // apply unary operator
		return p, nil                                         // wrap output in promise
	}
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) { return false }          // relative paths only
	if strings.Contains(p, "..") { return false }  // no going outside the tree
	return true
}

func checkPath(p string, c *Context) error {
	if c.RestrictPaths && p!="" && !isPathAllowed(p) {
		return fmt.Errorf("file name %s outside current directory tree, aborting", p)
	}
	return nil
}


// Applies a sequence of operators to a promise. Number of inputs, outputs as per the chained steps
type OpSequence struct {
	OpBase
	Steps    []Operator        `json:"-"`      // the actual steps
	StepsRaw []json.RawMessage `json:"steps"`  // helper for unmarshaling
}

func init() { SetOperatorFactory(func() Operator { return NewOpSequenceDefault() }) } // register the operator for JSON decoding

func NewOpSequenceDefault() *OpSequence { return NewOpSequence() }

func NewOpSequence(steps ...Operator) *OpSequence {
	return &OpSequence{
		OpBase: OpBase{Type: "seq", Active: len(steps)>0},
		Steps : steps,
	}
}

// Unmarshals a sequence of polymorphic operators from JSON.
// Uses temporary op.StepsRaw inspired by https://alexkappa.medium.com/json-polymorphism-in-go-4cade1e58ed1
func (op *OpSequence) UnmarshalJSON(b []byte) error {
	type alias OpSequence
	if err:=json.Unmarshal(b, (*alias)(op)); err!=nil { return err }

	for _, raw:=range op.StepsRaw {
		step, err:=UnmarshalOperator(raw)
		if err!=nil { return err }
		op.Steps=append(op.Steps, step)
	}
	op.StepsRaw=nil
	return nil
}

// Appends one or more operators to the existing sequence
func (op *OpSequence) Append(steps ...Operator) {
	op.Steps=append(op.Steps, steps...)
	op.Active=op.Active || len(steps)>0
}

// Marshals a sequence with polymorphic operators to JSON.
// Uses the actual op.Steps with label "steps", and ignores op.StepsRaw
func (op *OpSequence) MarshalJSON() (bs []byte, err error) {
	buf:=bytes.Buffer{}
	buf.WriteString("{\"type\":")
	inner, err:=json.Marshal(op.Type)
	if err!=nil { return nil, err }
	buf.Write(inner)
	fmt.Fprintf(&buf, ", \"active\":%v, \"steps\":", op.Active)
	steps:=op.Steps
	if steps==nil { steps=[]Operator{} }
	inner, err=json.Marshal(steps)
	if err!=nil { return nil, err }
	buf.Write(inner)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (op *OpSequence) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	return op.applyRecursive(op.Steps, ins, c)
}

func (op *OpSequence) applyRecursive(steps []Operator, ins []Promise, c *Context) (outs []Promise, err error) {
	if len(steps)==0 { return ins, nil }
	ins, err=steps[0].MakePromises(ins, c)
	if err!=nil { return nil, err }
	return op.applyRecursive(steps[1:], ins, c)
}

// Builds the promises of the sequence from no inputs and materializes them
func (op *OpSequence) Run(c *Context) ([]*Product, error) {
	promises, err:=op.MakePromises(nil, c)
	if err!=nil { return nil, err }
	return MaterializeAll(promises, c.MaxThreads, false)
}
