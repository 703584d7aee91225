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

package stats

import (
	"math"
)

// Calculate histogram of valid data between min and max into given bins.
// Nodata and values outside [min,max] are skipped.
func Histogram(data []float32, nodata, min, max float32, bins []int32) {
	for i:=range bins { bins[i]=0 }
	if !(max>min) { return }
	scale:=float32(len(bins)) / (max-min)
	for _, d:=range data {
		if d==nodata || d<min || d>max || isNaN32(d) { continue }
		index:=int((d-min)*scale)
		if index>=len(bins) { index=len(bins)-1 }
		bins[index]++
	}
}

// Returns the center and the count of the fullest histogram bin
func GetPeak(bins []int32, min, max float32) (x float32, y int32) {
	maxIndex, maxValue:=-1, int32(math.MinInt32)
	for i, v:=range bins {
		if v>maxValue { maxIndex, maxValue=i, v }
	}
	if maxIndex<0 { return float32(math.NaN()), 0 }
	x=min + (float32(maxIndex)+0.5)*(max-min)/float32(len(bins))
	return x, maxValue
}

func isNaN32(f float32) bool { return f!=f }
