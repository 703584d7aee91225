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

// Package mask turns a sample traverse into the set of grid cells worth
// evaluating: the path is stroked with a disk and rasterized.
package mask

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var ErrGeometry=errors.New("invalid geometry")

// Builds the traverse through the given coordinates in order.
// Consecutive duplicate points are collapsed.
func Path(xs, ys []float64) orb.LineString {
	ls:=make(orb.LineString, 0, len(xs))
	for i:=range xs {
		p:=orb.Point{xs[i], ys[i]}
		if len(ls)>0 && ls[len(ls)-1]==p { continue }
		ls=append(ls, p)
	}
	return ls
}

// Returns the parts of a polygonal geometry. Polygons, multipolygons
// and bounds are accepted, anything else is an error.
func Polygons(g orb.Geometry) ([]orb.Polygon, error) {
	switch v:=g.(type) {
	case orb.Polygon:
		return []orb.Polygon{v}, nil
	case orb.MultiPolygon:
		return []orb.Polygon(v), nil
	case orb.Bound:
		return []orb.Polygon{v.ToPolygon()}, nil
	case nil:
		return nil, fmt.Errorf("%w: no geometry", ErrGeometry)
	default:
		return nil, fmt.Errorf("%w: %s is not polygonal", ErrGeometry, g.GeoJSONType())
	}
}

func containedIn(polys []orb.Polygon, p orb.Point) bool {
	for _,poly:=range polys {
		if planar.PolygonContains(poly, p) { return true }
	}
	return false
}

// Intersects the path with a polygonal region. Pieces of the path inside the region
// are returned as separate lines, in path order. A path that only touches the region
// boundary in a point yields that point as a single-point line.
func Clip(path orb.LineString, region orb.Geometry) (orb.MultiLineString, error) {
	polys, err:=Polygons(region)
	if err!=nil { return nil, err }

	var out orb.MultiLineString
	if len(path)==1 {
		if containedIn(polys, path[0]) { out=append(out, orb.LineString{path[0]}) }
		return out, nil
	}

	var cur orb.LineString
	flush:=func() {
		if len(cur)>0 { out=append(out, cur) }
		cur=nil
	}
	prevInside:=false
	for i:=0; i+1<len(path); i++ {
		a, b:=path[i], path[i+1]
		ts:=crossings(a, b, polys)
		last:=i+2==len(path)
		for j:=range ts {
			inside:=false
			if j+1<len(ts) { inside=containedIn(polys, lerp(a, b, 0.5*(ts[j]+ts[j+1]))) }
			// a crossing or vertex touching the region between two outside pieces.
			// Segment ends are visited as the start of the next segment
			if !prevInside && !inside && (j+1<len(ts) || last) {
				if p:=lerp(a, b, ts[j]); containedIn(polys, p) {
					flush()
					out=append(out, orb.LineString{p})
				}
			}
			if j+1==len(ts) { break }
			prevInside=inside
			if !inside { flush(); continue }
			p, q:=lerp(a, b, ts[j]), lerp(a, b, ts[j+1])
			if len(cur)==0 || cur[len(cur)-1]!=p {
				flush()
				cur=append(cur, p)
			}
			cur=append(cur, q)
		}
	}
	flush()
	return out, nil
}

// Returns the sorted segment parameters in [0,1] where segment ab crosses any ring edge,
// including both endpoints
func crossings(a, b orb.Point, polys []orb.Polygon) []float64 {
	ts:=[]float64{0, 1}
	for _,poly:=range polys {
		for _,ring:=range poly {
			n:=len(ring)
			for k:=0; k<n; k++ {
				c, d:=ring[k], ring[(k+1)%n]
				if c==d { continue }
				if t, ok:=intersect(a, b, c, d); ok && t>0 && t<1 { ts=append(ts, t) }
			}
		}
	}
	sort.Float64s(ts)
	uniq:=ts[:1]
	for _,t:=range ts[1:] {
		if t!=uniq[len(uniq)-1] { uniq=append(uniq, t) }
	}
	return uniq
}

// Parameter t along ab where it meets cd, if the segments intersect in a single point
func intersect(a, b, c, d orb.Point) (t float64, ok bool) {
	rx, ry:=b[0]-a[0], b[1]-a[1]
	sx, sy:=d[0]-c[0], d[1]-c[1]
	denom:=rx*sy - ry*sx
	if denom==0 { return 0, false } // parallel or collinear
	qx, qy:=c[0]-a[0], c[1]-a[1]
	t=(qx*sy - qy*sx)/denom
	u:=(qx*ry - qy*rx)/denom
	if t<0 || t>1 || u<0 || u>1 { return 0, false }
	return t, true
}

func lerp(a, b orb.Point, t float64) orb.Point {
	if t==0 { return a }
	if t==1 { return b }
	return orb.Point{a[0]+t*(b[0]-a[0]), a[1]+t*(b[1]-a[1])}
}
