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

package grid

import (
	"math"
	"testing"
)

type padGridAlignTestCase struct {
	West, North, Buffer, GSD float64
	Want                     Transform
}

func TestPadGridAlign(t *testing.T) {
	tcs:=[]padGridAlignTestCase{
		{0,   10,  1, 1,   FromOrigin(-1,  11, 1,   1  )},
		{0,   10,  0, 1,   FromOrigin( 0,  10, 1,   1  )},
		{0,   10,  0, 0.1, FromOrigin( 0,  10, 0.1, 0.1)},
		{1,    9,  0, 2,   FromOrigin( 0,  10, 2,   2  )},
		{-3.5, 7.2,1, 2,   FromOrigin(-6,  10, 2,   2  )},
	}
	for _,tc:=range tcs {
		b:=Bounds{Left: tc.West, Bottom: tc.North, Right: tc.West, Top: tc.North}
		pb:=b.PadGridAlign(tc.GSD, PaddingPixels(tc.Buffer, tc.GSD))
		got:=FromOrigin(pb.Left, pb.Top, tc.GSD, tc.GSD)
		if got!=tc.Want { t.Errorf("west=%g north=%g buffer=%g gsd=%g: got %v; want %v", tc.West, tc.North, tc.Buffer, tc.GSD, got, tc.Want) }
	}
}

func TestPadGridAlignIsAligned(t *testing.T) {
	gsd:=0.25
	for _,off:=range []float64{0, 0.37, -12.9, 1003.01} {
		b:=Bounds{Left: 2.3+off, Bottom: -1.7+off, Right: 8.9+off, Top: 4.4+off}
		pb:=b.PadGridAlign(gsd, 3)
		for _,v:=range []float64{pb.Left, pb.Bottom, pb.Right, pb.Top} {
			k:=v/gsd
			if math.Abs(k-math.Round(k))>1e-9 { t.Errorf("offset %g: edge %g is not a multiple of %g", off, v, gsd) }
		}
		if pb.Left>b.Left-3*gsd || pb.Top<b.Top+3*gsd || pb.Right<b.Right+3*gsd || pb.Bottom>b.Bottom-3*gsd {
			t.Errorf("offset %g: padded %v does not contain %v", off, pb, b)
		}
	}
}

func TestXYRowCol(t *testing.T) {
	tr:=FromOrigin(-1, 10, 0.5, 0.5)
	x, y:=tr.XY(0, 0)
	if x!=-0.75 || y!=9.75 { t.Errorf("XY(0,0)=(%g,%g); want (-0.75,9.75)", x, y) }
	x, y=tr.XY(3, 4)
	if x!=1.25 || y!=8.25 { t.Errorf("XY(3,4)=(%g,%g); want (1.25,8.25)", x, y) }
	for r:=0; r<5; r++ {
		for c:=0; c<5; c++ {
			x, y:=tr.XY(r, c)
			gr, gc:=tr.RowCol(x, y)
			if gr!=r || gc!=c { t.Errorf("RowCol(XY(%d,%d))=(%d,%d)", r, c, gr, gc) }
		}
	}
}

type windowTestCase struct {
	B    Bounds
	Want Window
}

func TestWindow(t *testing.T) {
	tr:=FromOrigin(-1, 10, 1, 1)
	tcs:=[]windowTestCase{
		{Bounds{-1, 0, 9, 10},          Window{0, 0, 10, 10}},
		{Bounds{-0.5, -0.5, 9.5, 9.5},  Window{0, 0, 11, 11}},
		{Bounds{2, 3, 4, 5},            Window{3, 5, 2, 2}},
		{Bounds{2.2, 3.1, 3.9, 4.9},    Window{3, 5, 2, 2}},
		{Bounds{4, 4, 4, 4},            Window{5, 6, 0, 0}},
	}
	for _,tc:=range tcs {
		got:=tr.Window(tc.B)
		if got!=tc.Want { t.Errorf("Window(%v)=%v; want %v", tc.B, got, tc.Want) }
	}
}

func TestShiftAndBounds(t *testing.T) {
	tr:=FromOrigin(-1, 10, 2, 2)
	w:=Window{ColOff: 2, RowOff: 3, Width: 4, Height: 5}
	s:=tr.Shift(w)
	if s!=FromOrigin(3, 4, 2, 2) { t.Errorf("Shift=%v; want origin (3,4)", s) }
	b:=tr.Bounds(w)
	want:=Bounds{Left: 3, Bottom: -6, Right: 11, Top: 4}
	if b!=want { t.Errorf("Bounds=%v; want %v", b, want) }
	if tr.Window(b)!=w { t.Errorf("Window(Bounds(w))=%v; want %v", tr.Window(b), w) }
}

func TestComputeBounds(t *testing.T) {
	b:=ComputeBounds([]float64{3, -1, 2}, []float64{0, 5, -2})
	want:=Bounds{Left: -1, Bottom: -2, Right: 3, Top: 5}
	if b!=want { t.Errorf("ComputeBounds=%v; want %v", b, want) }
	if !ComputeBounds(nil, nil).IsEmpty() { t.Errorf("bounds of no samples should be empty") }
}

func TestGeoTransform(t *testing.T) {
	gt:=FromOrigin(100, 200, 0.5, 0.5).GeoTransform()
	want:=[6]float64{100, 0.5, 0, 200, 0, -0.5}
	if gt!=want { t.Errorf("GeoTransform=%v; want %v", gt, want) }
}

func TestWindowExceeds(t *testing.T) {
	huge:=FromOrigin(0, 1e300, 1e-300, 1e-300).Window(Bounds{0, 0, 1e300, 1e300})
	if huge.Width!=MaxSize || huge.Height!=MaxSize { t.Errorf("window=%v; want sizes clamped to %d", huge, MaxSize) }

	tcs:=[]struct {
		w     Window
		limit int
		want  bool
	}{
		{Window{0, 0, 10, 10},           100,         false},
		{Window{0, 0, 10, 10},           99,          true},
		{Window{0, 0, 0, 10},            0,           false},
		{Window{0, 0, 20200, 20200},     1000,        true},
		{huge,                           math.MaxInt, false},
		{huge,                           1<<40,       true},
	}
	for _, tc:=range tcs {
		if got:=tc.w.Exceeds(tc.limit); got!=tc.want { t.Errorf("%v.Exceeds(%d)=%v; want %v", tc.w, tc.limit, got, tc.want) }
	}
}
