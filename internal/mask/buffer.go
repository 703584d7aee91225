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
	"math"

	"github.com/paulmach/orb"
)

// Segments per quarter circle used when buffering a traverse
const QuadSegs=2

// Buffers points and lines by the given distance. Each segment becomes a capsule
// with round caps approximated by quadSegs segments per quarter circle, each isolated
// point a disk. The parts may overlap; their union is the buffered shape.
// Returns a Polygon for a single part, else a MultiPolygon.
func Buffer(g orb.Geometry, distance float64, quadSegs int) orb.Geometry {
	if quadSegs<1 { quadSegs=1 }
	tr:=newTrig(quadSegs)
	var parts orb.MultiPolygon
	addLine:=func(ls orb.LineString) {
		segs:=0
		for i:=0; i+1<len(ls); i++ {
			if ls[i]==ls[i+1] { continue }
			parts=append(parts, orb.Polygon{tr.capsule(ls[i], ls[i+1], distance)})
			segs++
		}
		if segs==0 && len(ls)>0 { parts=append(parts, orb.Polygon{tr.disk(ls[0], distance)}) }
	}

	switch v:=g.(type) {
	case orb.Point:
		addLine(orb.LineString{v})
	case orb.MultiPoint:
		for _,p:=range v { addLine(orb.LineString{p}) }
	case orb.LineString:
		addLine(v)
	case orb.MultiLineString:
		for _,ls:=range v { addLine(ls) }
	}

	if len(parts)==1 { return parts[0] }
	return parts
}

// Unit vectors at multiples of a quarter circle divided by quadSegs.
// Exact at the axes so buffered bounds of axis-aligned paths land on the grid.
type trig struct {
	q   int
	cos []float64
	sin []float64
}

func newTrig(q int) trig {
	n:=4*q
	t:=trig{q: q, cos: make([]float64, n), sin: make([]float64, n)}
	for k:=0; k<n; k++ {
		if k%q==0 {
			quadrant:=k/q
			t.cos[k]=[]float64{1, 0, -1, 0}[quadrant]
			t.sin[k]=[]float64{0, 1, 0, -1}[quadrant]
			continue
		}
		a:=float64(k)*math.Pi/float64(2*q)
		t.cos[k], t.sin[k]=math.Cos(a), math.Sin(a)
	}
	return t
}

// Unit vector for step m (any integer)
func (t trig) at(m int) (c, s float64) {
	n:=len(t.cos)
	m=((m%n)+n)%n
	return t.cos[m], t.sin[m]
}

func (t trig) disk(p orb.Point, r float64) orb.Ring {
	n:=len(t.cos)
	ring:=make(orb.Ring, 0, n+1)
	for k:=0; k<n; k++ {
		ring=append(ring, orb.Point{p[0]+r*t.cos[k], p[1]+r*t.sin[k]})
	}
	return append(ring, ring[0])
}

// Counter-clockwise ring around the stadium of radius r around segment ab
func (t trig) capsule(a, b orb.Point, r float64) orb.Ring {
	dx, dy:=b[0]-a[0], b[1]-a[1]
	l:=math.Hypot(dx, dy)
	dx, dy=dx/l, dy/l
	nx, ny:=-dy, dx

	// offset of angle step m measured from the segment direction
	offset:=func(m int) (float64, float64) {
		c, s:=t.at(m)
		return r*(c*dx+s*nx), r*(c*dy+s*ny)
	}

	ring:=make(orb.Ring, 0, 4*t.q+3)
	for m:=-t.q; m<=t.q; m++ {  // cap around b, from right side through the front to left side
		ox, oy:=offset(m)
		ring=append(ring, orb.Point{b[0]+ox, b[1]+oy})
	}
	for m:=t.q; m<=3*t.q; m++ {  // cap around a, from left side through the back to right side
		ox, oy:=offset(m)
		ring=append(ring, orb.Point{a[0]+ox, a[1]+oy})
	}
	return append(ring, ring[0])
}
