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
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// A color at a value, or at a percentage of the value range
type ColorStop struct {
	Value   float64
	Percent bool
	Color   colorful.Color
	Alpha   float64
}

// Maps values to colors by blending between stops in CIE HCL space.
// Values outside the stops take the color of the nearest stop
type ColorMap struct {
	Stops  []ColorStop
	Nodata color.NRGBA
}

// A dark blue to yellow to red ramp over the full value range. Nodata is transparent
func DefaultColorMap() *ColorMap {
	hex:=[]string{"#30123b", "#2a7bd6", "#1fc8a3", "#a4fc3c", "#faba39", "#e4460a", "#7a0403"}
	m:=&ColorMap{}
	for i, h:=range hex {
		c, _:=colorful.Hex(h)
		m.Stops=append(m.Stops, ColorStop{Value: 100*float64(i)/float64(len(hex)-1), Percent: true, Color: c, Alpha: 1})
	}
	return m
}

func ReadColorMapFile(fileName string) (*ColorMap, error) {
	file, err:=os.Open(fileName)
	if err!=nil { return nil, err }
	defer file.Close()
	m, err:=ParseColorMap(file)
	if err!=nil { return nil, fmt.Errorf("%s: %w", fileName, err) }
	return m, nil
}

// Parses a gdaldem color-relief text file. Each line holds a value, a percentage
// like 50% or nv for nodata, followed by red, green, blue and optional alpha in 0..255.
// Blank lines and lines starting with # are skipped
func ParseColorMap(r io.Reader) (*ColorMap, error) {
	m:=&ColorMap{}
	scanner:=bufio.NewScanner(r)
	lineNo:=0
	for scanner.Scan() {
		lineNo++
		line:=strings.TrimSpace(scanner.Text())
		if line=="" || strings.HasPrefix(line, "#") { continue }
		fields:=strings.FieldsFunc(line, func(r rune) bool { return r==' ' || r=='\t' || r==',' || r==':' })
		if len(fields)<4 || len(fields)>5 { return nil, fmt.Errorf("%w: line %d: need 4 or 5 fields, have %d", ErrFormat, lineNo, len(fields)) }

		var rgba [4]float64
		rgba[3]=255
		for i, f:=range fields[1:] {
			v, err:=strconv.ParseFloat(f, 64)
			if err!=nil || v<0 || v>255 { return nil, fmt.Errorf("%w: line %d: invalid color component %q", ErrFormat, lineNo, f) }
			rgba[i]=v
		}
		c:=colorful.Color{R: rgba[0]/255, G: rgba[1]/255, B: rgba[2]/255}

		key:=strings.ToLower(fields[0])
		if key=="nv" {
			m.Nodata=toNRGBA(c, rgba[3]/255)
			continue
		}
		s:=ColorStop{Color: c, Alpha: rgba[3]/255}
		if strings.HasSuffix(key, "%") {
			s.Percent=true
			key=strings.TrimSuffix(key, "%")
		}
		v, err:=strconv.ParseFloat(key, 64)
		if err!=nil { return nil, fmt.Errorf("%w: line %d: invalid value %q", ErrFormat, lineNo, fields[0]) }
		s.Value=v
		m.Stops=append(m.Stops, s)
	}
	if err:=scanner.Err(); err!=nil { return nil, err }
	if len(m.Stops)==0 { return nil, fmt.Errorf("%w: no color stops", ErrFormat) }
	return m, nil
}

// Converts percentages into values for the given range and sorts the stops
func (m *ColorMap) resolve(min, max float64) []ColorStop {
	stops:=make([]ColorStop, len(m.Stops))
	for i, s:=range m.Stops {
		if s.Percent {
			s.Value=min + s.Value/100*(max-min)
			s.Percent=false
		}
		stops[i]=s
	}
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Value<stops[j].Value })
	return stops
}

func colorAt(stops []ColorStop, v float64) color.NRGBA {
	i:=sort.Search(len(stops), func(i int) bool { return stops[i].Value>=v })
	if i==len(stops) { return toNRGBA(stops[i-1].Color, stops[i-1].Alpha) }
	if i==0 || stops[i].Value==v { return toNRGBA(stops[i].Color, stops[i].Alpha) }
	lo, hi:=stops[i-1], stops[i]
	t:=(v-lo.Value)/(hi.Value-lo.Value)
	return toNRGBA(lo.Color.BlendHcl(hi.Color, t).Clamped(), lo.Alpha+t*(hi.Alpha-lo.Alpha))
}

func toNRGBA(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b:=c.Clamped().RGB255()
	return color.NRGBA{r, g, b, uint8(alpha*255+0.5)}
}

// Colors a layer. Percentages in the color map refer to the range of valid values
func ColorRelief(l *Layer, m *ColorMap) *image.NRGBA {
	img:=image.NewNRGBA(image.Rectangle{image.Point{0, 0}, image.Point{l.Width, l.Height}})
	min, max:=l.Range()
	stops:=m.resolve(min, max)
	for y:=0; y<l.Height; y++ {
		for x:=0; x<l.Width; x++ {
			v:=l.At(y, x)
			if !l.IsValid(v) {
				img.SetNRGBA(x, y, m.Nodata)
			} else {
				img.SetNRGBA(x, y, colorAt(stops, v))
			}
		}
	}
	return img
}

// Write a color relief of the layer as PNG or JPG, depending on the file extension
func WriteReliefToFile(fileName string, l *Layer, m *ColorMap, quality int) error {
	ext:=strings.ToLower(filepath.Ext(fileName))
	if ext!=".png" && ext!=".jpg" && ext!=".jpeg" {
		return fmt.Errorf("%w: unsupported image extension %q", ErrFormat, ext)
	}
	img:=ColorRelief(l, m)

	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()
	writer:=bufio.NewWriter(file)
	if ext==".png" {
		err=png.Encode(writer, img)
	} else {
		err=jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
	}
	if err!=nil { return err }
	return writer.Flush()
}
