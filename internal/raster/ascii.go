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
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mlnoga/heatmap/internal/grid"
)

var ErrFormat=errors.New("invalid raster file")

// Write a layer as Esri ASCII grid to a file. If crs is not empty, it is
// written as well-known text into a .prj file next to it.
func WriteASCIIGridToFile(fileName string, l *Layer, crs string) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	if err:=WriteASCIIGrid(writer, l); err!=nil { return err }
	if err:=writer.Flush(); err!=nil { return err }

	if crs!="" {
		if err:=os.WriteFile(sidecarName(fileName, ".prj"), []byte(crs), 0666); err!=nil { return err }
	}
	return nil
}

// Write a layer as Esri ASCII grid. Cells must be square
func WriteASCIIGrid(w io.Writer, l *Layer) error {
	t:=l.Transform
	if t.CellSizeX!=t.CellSizeY {
		return fmt.Errorf("%w: ASCII grids need square cells, have %gx%g", ErrFormat, t.CellSizeX, t.CellSizeY)
	}
	b:=l.Bounds()
	bits:=l.precision()
	fmt.Fprintf(w, "ncols        %d\n", l.Width)
	fmt.Fprintf(w, "nrows        %d\n", l.Height)
	fmt.Fprintf(w, "xllcorner    %s\n", strconv.FormatFloat(b.Left, 'g', -1, 64))
	fmt.Fprintf(w, "yllcorner    %s\n", strconv.FormatFloat(b.Bottom, 'g', -1, 64))
	fmt.Fprintf(w, "cellsize     %s\n", strconv.FormatFloat(t.CellSizeX, 'g', -1, 64))
	fmt.Fprintf(w, "NODATA_value %s\n", strconv.FormatFloat(l.Nodata, 'g', -1, bits))

	line:=make([]byte, 0, 16*l.Width)
	for row:=0; row<l.Height; row++ {
		line=line[:0]
		for col:=0; col<l.Width; col++ {
			if col>0 { line=append(line, ' ') }
			line=strconv.AppendFloat(line, l.At(row, col), 'g', -1, bits)
		}
		line=append(line, '\n')
		if _, err:=w.Write(line); err!=nil { return err }
	}
	return nil
}

func ReadASCIIGridFile(fileName string) (*Layer, error) {
	file, err:=os.Open(fileName)
	if err!=nil { return nil, err }
	defer file.Close()
	l, err:=ReadASCIIGrid(bufio.NewReader(file))
	if err!=nil { return nil, fmt.Errorf("%s: %w", fileName, err) }
	return l, nil
}

// Read an Esri ASCII grid. Both corner and center registration are accepted
func ReadASCIIGrid(r io.Reader) (*Layer, error) {
	scanner:=bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	scanner.Split(bufio.ScanWords)
	next:=func() (string, bool) {
		if !scanner.Scan() { return "", false }
		return scanner.Text(), true
	}

	header:=map[string]float64{}
	var pending string
	for {
		key, ok:=next()
		if !ok { return nil, fmt.Errorf("%w: truncated header", ErrFormat) }
		k:=strings.ToLower(key)
		if k!="ncols" && k!="nrows" && k!="xllcorner" && k!="yllcorner" && k!="xllcenter" && k!="yllcenter" && k!="cellsize" && k!="nodata_value" {
			pending=key
			break
		}
		val, ok:=next()
		if !ok { return nil, fmt.Errorf("%w: missing value for %s", ErrFormat, key) }
		v, err:=strconv.ParseFloat(val, 64)
		if err!=nil { return nil, fmt.Errorf("%w: %s: %w", ErrFormat, key, err) }
		header[k]=v
	}

	ncols, nrows, cell:=header["ncols"], header["nrows"], header["cellsize"]
	if !(ncols>=1) || !(nrows>=1) || !(cell>0) {
		return nil, fmt.Errorf("%w: ncols %g nrows %g cellsize %g", ErrFormat, ncols, nrows, cell)
	}
	left, okx:=header["xllcorner"]
	bottom, oky:=header["yllcorner"]
	if cx, ok:=header["xllcenter"]; ok && !okx { left, okx=cx-cell/2, true }
	if cy, ok:=header["yllcenter"]; ok && !oky { bottom, oky=cy-cell/2, true }
	if !okx || !oky { return nil, fmt.Errorf("%w: missing lower left coordinates", ErrFormat) }
	nodata, ok:=header["nodata_value"]
	if !ok { nodata=-9999 }

	width, height:=int(ncols), int(nrows)
	l:=&Layer{
		Transform: grid.FromOrigin(left, bottom+float64(height)*cell, cell, cell),
		Width    : width,
		Height   : height,
		Nodata   : nodata,
		Data     : make([]float64, width*height),
	}
	for i:=range l.Data {
		tok:=pending
		if i>0 || tok=="" {
			var ok bool
			if tok, ok=next(); !ok { return nil, fmt.Errorf("%w: %d of %d values", ErrFormat, i, len(l.Data)) }
		}
		v, err:=strconv.ParseFloat(tok, 64)
		if err!=nil { return nil, fmt.Errorf("%w: value %d: %w", ErrFormat, i, err) }
		l.Data[i]=v
	}
	if err:=scanner.Err(); err!=nil { return nil, err }
	return l, nil
}
