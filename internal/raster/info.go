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
	"github.com/mlnoga/heatmap/internal/stats"
)

type Resolution struct {
	X float64 `json:"xResolution"`
	Y float64 `json:"yResolution"`
}

type Corners struct {
	Center     [2]float64 `json:"center"`
	LowerLeft  [2]float64 `json:"lowerLeft"`
	UpperLeft  [2]float64 `json:"upperLeft"`
	LowerRight [2]float64 `json:"lowerRight"`
	UpperRight [2]float64 `json:"upperRight"`
}

// Metadata of a written layer, in the style of gdalinfo JSON output
type Info struct {
	Name              string      `json:"name"`
	Files             []string    `json:"files,omitempty"`
	Size              [2]int      `json:"size"`            // rows, columns
	CoordinateSystem  string      `json:"coordinateSystem,omitempty"`
	GeoTransform      [6]float64  `json:"geoTransform"`
	Resolution        Resolution  `json:"resolution"`
	NoDataValue       float64     `json:"noDataValue"`
	CornerCoordinates Corners     `json:"cornerCoordinates"`
	Stats             stats.Stats `json:"stats"`
}

func Describe(l *Layer, crs string, files ...string) Info {
	gt:=l.Transform.GeoTransform()
	b:=l.Bounds()
	data:=make([]float32, len(l.Data))
	for i, v:=range l.Data { data[i]=float32(v) }
	return Info{
		Name            : l.Name,
		Files           : files,
		Size            : [2]int{l.Height, l.Width},
		CoordinateSystem: crs,
		GeoTransform    : gt,
		Resolution      : Resolution{X: gt[1], Y: gt[5]},
		NoDataValue     : l.Nodata,
		CornerCoordinates: Corners{
			Center    : [2]float64{(b.Left+b.Right)/2, (b.Top+b.Bottom)/2},
			LowerLeft : [2]float64{b.Left, b.Bottom},
			UpperLeft : [2]float64{b.Left, b.Top},
			LowerRight: [2]float64{b.Right, b.Bottom},
			UpperRight: [2]float64{b.Right, b.Top},
		},
		Stats: stats.Summarize(data, float32(l.Nodata)),
	}
}
