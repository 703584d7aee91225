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

package mask

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/mlnoga/heatmap/internal/grid"
)

func square(x0, y0, x1, y1 float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}}
}

func TestPathCollapsesDuplicates(t *testing.T) {
	p:=Path([]float64{1, 1, 1, 2, 2}, []float64{1, 1, 1, 3, 3})
	want:=orb.LineString{{1, 1}, {2, 3}}
	if len(p)!=len(want) || p[0]!=want[0] || p[1]!=want[1] { t.Errorf("Path=%v; want %v", p, want) }
}

func TestBufferedSquarePathCoversWindow(t *testing.T) {
	path:=orb.LineString{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	tr:=grid.FromOrigin(-1, 2, 1, 1)
	m, err:=New(Buffer(path, 1, QuadSegs), tr)
	if err!=nil { t.Fatalf("New: %v", err) }
	if m.Window!=(grid.Window{ColOff: 0, RowOff: 0, Width: 3, Height: 3}) { t.Errorf("window=%v; want 3x3 at (0,0)", m.Window) }
	for i, skip:=range m.Skip {
		if skip { t.Errorf("cell %d skipped; want all cells evaluated", i) }
	}
	if m.Count()!=9 { t.Errorf("count=%d; want 9", m.Count()) }
}

func TestBufferSinglePointIsDisk(t *testing.T) {
	g:=Buffer(orb.LineString{{1, 1}}, 1, QuadSegs)
	poly, ok:=g.(orb.Polygon)
	if !ok { t.Fatalf("Buffer of a point is %T; want orb.Polygon", g) }
	if len(poly[0])!=4*QuadSegs+1 { t.Errorf("disk has %d vertices; want %d", len(poly[0]), 4*QuadSegs+1) }
	b:=grid.FromBound(poly.Bound())
	want:=grid.Bounds{Left: 0, Bottom: 0, Right: 2, Top: 2}
	if b!=want { t.Errorf("disk bounds=%v; want %v", b, want) }

	m, err:=New(g, grid.FromOrigin(0, 2, 1, 1))
	if err!=nil { t.Fatalf("New: %v", err) }
	if m.Window!=(grid.Window{Width: 2, Height: 2}) || m.Count()!=4 { t.Errorf("window=%v count=%d; want 2x2 fully evaluated", m.Window, m.Count()) }
}

func TestBufferIsMultiPart(t *testing.T) {
	g:=Buffer(orb.LineString{{0, 0}, {3, 0}, {3, 4}}, 0.5, QuadSegs)
	mp, ok:=g.(orb.MultiPolygon)
	if !ok { t.Fatalf("Buffer of two segments is %T; want orb.MultiPolygon", g) }
	if len(mp)!=2 { t.Errorf("parts=%d; want 2", len(mp)) }
	b:=grid.FromBound(mp.Bound())
	want:=grid.Bounds{Left: -0.5, Bottom: -0.5, Right: 3.5, Top: 4.5}
	if b!=want { t.Errorf("bounds=%v; want %v", b, want) }
}

func TestMaskExcludesCorners(t *testing.T) {
	// a single horizontal segment leaves the cells diagonally off its ends outside
	path:=orb.LineString{{0.5, 0.5}, {2.5, 0.5}}
	tr:=grid.FromOrigin(-1, 2, 1, 1)
	m, err:=New(Buffer(path, 1.2, QuadSegs), tr)
	if err!=nil { t.Fatalf("New: %v", err) }
	if m.Window!=(grid.Window{ColOff: 0, RowOff: 0, Width: 5, Height: 3}) { t.Fatalf("window=%v; want 5x3 at (0,0)", m.Window) }
	want:=[]bool{
		true,  false, false, false, true,
		false, false, false, false, false,
		true,  false, false, false, true,
	}
	for i:=range want {
		if m.Skip[i]!=want[i] { t.Errorf("skip[%d][%d]=%v; want %v", i/5, i%5, m.Skip[i], want[i]) }
	}
	cells:=m.Unmasked()
	if len(cells)!=m.Count() { t.Errorf("unmasked=%d; want %d", len(cells), m.Count()) }
	for i:=1; i<len(cells); i++ {
		prev, cur:=cells[i-1], cells[i]
		if cur.Row<prev.Row || (cur.Row==prev.Row && cur.Col<=prev.Col) { t.Errorf("cells not in row-major order at %d", i) }
	}
	for _,c:=range cells {
		if m.At(c.Row, c.Col) { t.Errorf("unmasked cell %v is skipped", c) }
	}
}

func TestClipKeepsInsidePieces(t *testing.T) {
	path:=orb.LineString{{0, 1}, {4, 1}, {4, 3}, {0, 3}}
	ml, err:=Clip(path, square(1, 0, 3, 4))
	if err!=nil { t.Fatalf("Clip: %v", err) }
	if len(ml)!=2 { t.Fatalf("pieces=%d; want 2: %v", len(ml), ml) }
	want:=[]orb.LineString{{{1, 1}, {3, 1}}, {{3, 3}, {1, 3}}}
	for i:=range want {
		if len(ml[i])!=2 || ml[i][0]!=want[i][0] || ml[i][1]!=want[i][1] { t.Errorf("piece %d=%v; want %v", i, ml[i], want[i]) }
	}
}

func TestClipContinuesAcrossVertices(t *testing.T) {
	path:=orb.LineString{{1, 1}, {2, 1}, {2, 2}}
	ml, err:=Clip(path, orb.MultiPolygon{square(0, 0, 5, 5), square(10, 10, 11, 11)})
	if err!=nil { t.Fatalf("Clip: %v", err) }
	if len(ml)!=1 || len(ml[0])!=3 { t.Errorf("Clip=%v; want the path unchanged", ml) }
}

func TestClipKeepsSinglePointTouches(t *testing.T) {
	cases:=[]struct {
		name string
		path orb.LineString
		want orb.Point
	}{
		{"corner crossing", orb.LineString{{-1, 0}, {1, 2}},             orb.Point{0, 1}},
		{"vertex on edge",  orb.LineString{{-1, 0.5}, {0, 0.5}, {-1, 1}}, orb.Point{0, 0.5}},
		{"end on edge",     orb.LineString{{-1, 0.5}, {0, 0.5}},          orb.Point{0, 0.5}},
	}
	for _, c:=range cases {
		ml, err:=Clip(c.path, square(0, 0, 1, 1))
		if err!=nil { t.Fatalf("%s: Clip: %v", c.name, err) }
		if len(ml)!=1 || len(ml[0])!=1 || ml[0][0]!=c.want { t.Errorf("%s: Clip=%v; want [[%v]]", c.name, ml, c.want) }
	}

	ml, err:=Clip(orb.LineString{{-1, 2}, {2, 2}}, square(0, 0, 1, 1))
	if err!=nil { t.Fatalf("Clip: %v", err) }
	if len(ml)!=0 { t.Errorf("Clip of a disjoint path=%v; want empty", ml) }
}

func TestClipRejectsNonPolygons(t *testing.T) {
	_, err:=Clip(orb.LineString{{0, 0}, {1, 1}}, orb.LineString{{0, 0}, {1, 0}})
	if !errors.Is(err, ErrGeometry) { t.Errorf("err=%v; want ErrGeometry", err) }
}

func TestTrigIsExactOnAxes(t *testing.T) {
	tr:=newTrig(3)
	for k:=0; k<12; k++ {
		c, s:=tr.at(k)
		if math.Abs(math.Hypot(c, s)-1)>1e-15 { t.Errorf("step %d not unit length", k) }
		if k%3==0 && c!=math.Round(c) { t.Errorf("step %d cos=%g; want exact", k, c) }
	}
	if c, s:=tr.at(-3); c!=0 || s!=-1 { t.Errorf("at(-3)=(%g,%g); want (0,-1)", c, s) }
}
