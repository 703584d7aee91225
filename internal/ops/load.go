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
	"fmt"
	"strings"
	"sync"

	"github.com/mlnoga/heatmap/internal/vector"
)

// Load a traverse from a CSV or GeoJSON file. Takes zero inputs,
// produces one output per value column
type OpLoad struct {
	OpBase
	FileName     string   `json:"fileName"`
	XColumn      string   `json:"xColumn"`
	YColumn      string   `json:"yColumn"`
	ValueColumns []string `json:"valueColumns"`  // all non-coordinate CSV columns if empty. Required for GeoJSON
}

func init() { SetOperatorFactory(func() Operator { return NewOpLoadDefault() }) } // register the operator for JSON decoding

func NewOpLoadDefault() *OpLoad { return NewOpLoad("", "x", "y", nil) }

func NewOpLoad(fileName, xColumn, yColumn string, valueColumns []string) *OpLoad {
	return &OpLoad{
		OpBase      : OpBase{Type: "load", Active: true},
		FileName    : fileName,
		XColumn     : xColumn,
		YColumn     : yColumn,
		ValueColumns: valueColumns,
	}
}

func (op *OpLoad) read(c *Context) (*vector.Traverse, error) {
	fnLower:=strings.ToLower(op.FileName)
	if strings.HasSuffix(fnLower, ".geojson") || strings.HasSuffix(fnLower, ".json") {
		if len(op.ValueColumns)==0 { return nil, fmt.Errorf("%s operator needs value properties for GeoJSON file %s", op.Type, op.FileName) }
		return vector.ReadPointsFile(op.FileName, op.ValueColumns)
	}
	return vector.ReadCSVFile(op.FileName, op.XColumn, op.YColumn, op.ValueColumns)
}

// Reads the file once, when the first of the output promises is materialized
func (op *OpLoad) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins)>0 { return nil, fmt.Errorf("%s operator with non-zero input", op.Type) }
	if op.FileName=="" { return nil, fmt.Errorf("%s operator without file name", op.Type) }
	if err:=checkPath(op.FileName, c); err!=nil { return nil, err }

	names:=op.ValueColumns
	var traverse *vector.Traverse
	if len(names)==0 {
		// column names are only known after reading
		if traverse, err=op.read(c); err!=nil { return nil, err }
		names=traverse.Names
		fmt.Fprintf(c.Log, "Loaded %d samples with columns %v from %s\n", traverse.Len(), names, op.FileName)
		if len(names)==0 { return nil, fmt.Errorf("%s operator found no value columns in %s", op.Type, op.FileName) }
	}

	var once sync.Once
	var readErr error
	load:=func() (*vector.Traverse, error) {
		once.Do(func() {
			if traverse!=nil { return }
			traverse, readErr=op.read(c)
			if readErr==nil { fmt.Fprintf(c.Log, "Loaded %d samples with columns %v from %s\n", traverse.Len(), names, op.FileName) }
		})
		return traverse, readErr
	}

	for i, name:=range names {
		id, name:=i, name
		outs=append(outs, func() (*Product, error) {
			t, err:=load()
			if err!=nil { return nil, err }
			values, err:=t.Column(name)
			if err!=nil { return nil, err }
			return &Product{ID: id, Name: name, Source: op.FileName, X: t.X, Y: t.Y, Values: values}, nil
		})
	}
	return outs, nil
}
