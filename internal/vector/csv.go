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

// Package vector reads traverse samples and sampling regions.
package vector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var ErrFormat=errors.New("invalid vector file")

// Ordered sample locations along a traverse, with one or more named value columns
type Traverse struct {
	X      []float64
	Y      []float64
	Names  []string
	Values [][]float64  // one slice per name, parallel to X and Y
}

func (t *Traverse) Len() int { return len(t.X) }

// Returns the values of the named column
func (t *Traverse) Column(name string) ([]float64, error) {
	for i, n:=range t.Names {
		if n==name { return t.Values[i], nil }
	}
	return nil, fmt.Errorf("%w: no value column %q", ErrFormat, name)
}

func ReadCSVFile(fileName, xCol, yCol string, valueCols []string) (*Traverse, error) {
	file, err:=os.Open(fileName)
	if err!=nil { return nil, err }
	defer file.Close()
	t, err:=ReadCSV(file, xCol, yCol, valueCols)
	if err!=nil { return nil, fmt.Errorf("%s: %w", fileName, err) }
	return t, nil
}

// Reads samples from CSV with a header line. Lines starting with # are skipped.
// Without value columns, all columns other than x and y are read. Empty cells
// and cells that do not parse as numbers are NaN values; coordinates must parse.
func ReadCSV(r io.Reader, xCol, yCol string, valueCols []string) (*Traverse, error) {
	reader:=csv.NewReader(r)
	reader.Comment='#'
	reader.TrimLeadingSpace=true
	header, err:=reader.Read()
	if err==io.EOF { return nil, fmt.Errorf("%w: missing header", ErrFormat) }
	if err!=nil { return nil, fmt.Errorf("%w: %w", ErrFormat, err) }

	index:=map[string]int{}
	for i, h:=range header { index[strings.TrimSpace(h)]=i }
	xi, okx:=index[xCol]
	yi, oky:=index[yCol]
	if !okx || !oky { return nil, fmt.Errorf("%w: missing coordinate columns %q and %q in %v", ErrFormat, xCol, yCol, header) }
	if len(valueCols)==0 {
		for i, h:=range header {
			if i!=xi && i!=yi { valueCols=append(valueCols, strings.TrimSpace(h)) }
		}
	}
	vis:=make([]int, len(valueCols))
	for i, c:=range valueCols {
		vi, ok:=index[c]
		if !ok { return nil, fmt.Errorf("%w: missing value column %q in %v", ErrFormat, c, header) }
		vis[i]=vi
	}

	t:=&Traverse{Names: valueCols, Values: make([][]float64, len(valueCols))}
	for line:=2; ; line++ {
		rec, err:=reader.Read()
		if err==io.EOF { break }
		if err!=nil { return nil, fmt.Errorf("%w: %w", ErrFormat, err) }
		x, errx:=strconv.ParseFloat(strings.TrimSpace(rec[xi]), 64)
		y, erry:=strconv.ParseFloat(strings.TrimSpace(rec[yi]), 64)
		if errx!=nil || erry!=nil { return nil, fmt.Errorf("%w: record %d: invalid coordinates (%q, %q)", ErrFormat, line, rec[xi], rec[yi]) }
		t.X=append(t.X, x)
		t.Y=append(t.Y, y)
		for i, vi:=range vis {
			v, err:=strconv.ParseFloat(strings.TrimSpace(rec[vi]), 64)
			if err!=nil { v=math.NaN() }
			t.Values[i]=append(t.Values[i], v)
		}
	}
	if t.Len()==0 { return nil, fmt.Errorf("%w: no samples", ErrFormat) }
	return t, nil
}
