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
	"io"
	"math"
	"os"

	"golang.org/x/image/tiff"

	"github.com/mlnoga/heatmap/internal/grid"
)

// Write a layer to 16-bit grayscale TIFF with an ESRI world file next to it,
// mapping [min,max] to 1..65535. Nodata is written as 0.
func WriteTIFF16ToFile(fileName string, l *Layer, min, max float64) error {
	file, err:=os.Create(fileName)
	if err!=nil { return err }
	defer file.Close()

	writer:=bufio.NewWriter(file)
	if err:=WriteTIFF16(writer, l, min, max); err!=nil { return err }
	if err:=writer.Flush(); err!=nil { return err }

	tfw, err:=os.Create(sidecarName(fileName, ".tfw"))
	if err!=nil { return err }
	defer tfw.Close()
	return WriteWorldFile(tfw, l.Transform)
}

// Write a layer to 16-bit grayscale TIFF, mapping [min,max] to 1..65535. Nodata is written as 0.
func WriteTIFF16(writer io.Writer, l *Layer, min, max float64) error {
	img:=image.NewGray16(image.Rectangle{image.Point{0, 0}, image.Point{l.Width, l.Height}})
	scale:=0.0
	if max>min { scale=65534/(max-min) }
	for y:=0; y<l.Height; y++ {
		for x:=0; x<l.Width; x++ {
			v:=l.At(y, x)
			if !l.IsValid(v) { continue }
			gray:=(v-min)*scale
			if gray<0     { gray=0 }
			if gray>65534 { gray=65534 }
			img.SetGray16(x, y, color.Gray16{uint16(1+math.Round(gray))})
		}
	}
	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// Write the six lines of an ESRI world file. The origin is the center of the upper left cell
func WriteWorldFile(w io.Writer, t grid.Transform) error {
	x, y:=t.XY(0, 0)
	_, err:=fmt.Fprintf(w, "%.12g\n0\n0\n%.12g\n%.12g\n%.12g\n", t.CellSizeX, -t.CellSizeY, x, y)
	return err
}
