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

package vector

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/paulmach/orb"
)

func TestReadCSV(t *testing.T) {
	in:="# rover traverse\neasting, northing, h2o, temp\n1, 2, 0.5, 10\n3,4,,11\n5,6,x,12\n"
	tr, err:=ReadCSV(strings.NewReader(in), "easting", "northing", nil)
	if err!=nil { t.Fatalf("ReadCSV: %v", err) }
	if diff:=cmp.Diff([]string{"h2o", "temp"}, tr.Names); diff!="" { t.Errorf("names mismatch (-want +got):\n%s", diff) }
	if diff:=cmp.Diff([]float64{1, 3, 5}, tr.X); diff!="" { t.Errorf("x mismatch (-want +got):\n%s", diff) }
	if diff:=cmp.Diff([]float64{2, 4, 6}, tr.Y); diff!="" { t.Errorf("y mismatch (-want +got):\n%s", diff) }
	h2o, err:=tr.Column("h2o")
	if err!=nil { t.Fatalf("Column: %v", err) }
	if diff:=cmp.Diff([]float64{0.5, math.NaN(), math.NaN()}, h2o, cmpopts.EquateNaNs()); diff!="" {
		t.Errorf("h2o mismatch (-want +got):\n%s", diff)
	}
	if _, err:=tr.Column("co2"); !errors.Is(err, ErrFormat) { t.Errorf("missing column err=%v; want %v", err, ErrFormat) }

	tr, err=ReadCSV(strings.NewReader(in), "easting", "northing", []string{"temp"})
	if err!=nil { t.Fatalf("ReadCSV: %v", err) }
	if diff:=cmp.Diff([][]float64{{10, 11, 12}}, tr.Values); diff!="" { t.Errorf("values mismatch (-want +got):\n%s", diff) }
}

func TestReadCSVErrors(t *testing.T) {
	cases:=[]struct {
		in   string
		cols []string
	}{
		{"", nil},
		{"a,b\n1,2\n", nil},
		{"x,y,v\n1,2,3\n", []string{"w"}},
		{"x,y,v\n1,,3\n", nil},
		{"x,y,v\n", nil},
		{"x,y,v\n1,2\n", nil},
	}
	for _, c:=range cases {
		if _, err:=ReadCSV(strings.NewReader(c.in), "x", "y", c.cols); !errors.Is(err, ErrFormat) {
			t.Errorf("ReadCSV(%q) err=%v; want %v", c.in, err, ErrFormat)
		}
	}
}

func TestReadBounds(t *testing.T) {
	square:=`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`
	g, err:=ReadBounds([]byte(square))
	if err!=nil { t.Fatalf("ReadBounds: %v", err) }
	if p, ok:=g.(orb.Polygon); !ok || len(p[0])!=5 { t.Errorf("geometry=%v; want a square polygon", g) }

	fc:=`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":`+square+`},
		{"type":"Feature","properties":{},"geometry":{"type":"MultiPolygon","coordinates":[[[[2,2],[3,2],[3,3],[2,2]]]]}}]}`
	g, err=ReadBounds([]byte(fc))
	if err!=nil { t.Fatalf("ReadBounds: %v", err) }
	if mp, ok:=g.(orb.MultiPolygon); !ok || len(mp)!=2 { t.Errorf("geometry=%v; want two polygons", g) }

	for _, bad:=range []string{`{"type":"Point","coordinates":[1,2]}`, `{"coordinates":[1,2]}`, `{"type":"FeatureCollection","features":[]}`, `[`} {
		if _, err:=ReadBounds([]byte(bad)); !errors.Is(err, ErrFormat) { t.Errorf("ReadBounds(%s) err=%v; want %v", bad, err, ErrFormat) }
	}
}

func TestReadPoints(t *testing.T) {
	in:=`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"h2o":1.5},"geometry":{"type":"Point","coordinates":[10,20]}},
		{"type":"Feature","properties":{"h2o":"n/a"},"geometry":{"type":"Point","coordinates":[11,21]}}]}`
	tr, err:=ReadPoints([]byte(in), []string{"h2o"})
	if err!=nil { t.Fatalf("ReadPoints: %v", err) }
	if diff:=cmp.Diff([]float64{10, 11}, tr.X); diff!="" { t.Errorf("x mismatch (-want +got):\n%s", diff) }
	if diff:=cmp.Diff([][]float64{{1.5, math.NaN()}}, tr.Values, cmpopts.EquateNaNs()); diff!="" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	line:=`{"type":"LineString","coordinates":[[0,0],[1,1]]}`
	if _, err:=ReadPoints([]byte(line), nil); !errors.Is(err, ErrFormat) { t.Errorf("line string err=%v; want %v", err, ErrFormat) }
}

func TestMarshalOutline(t *testing.T) {
	b, err:=MarshalOutline(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}, map[string]interface{}{"cells": 4})
	if err!=nil { t.Fatalf("MarshalOutline: %v", err) }
	g, err:=ReadBounds(b)
	if err!=nil { t.Fatalf("ReadBounds: %v", err) }
	if _, ok:=g.(orb.Polygon); !ok { t.Errorf("geometry=%T; want polygon", g) }
	if !strings.Contains(string(b), `"cells":4`) { t.Errorf("properties missing in %s", b) }
}
