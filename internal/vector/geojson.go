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
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Decodes a FeatureCollection, a single Feature or a bare geometry into features
func decodeFeatures(data []byte) ([]*geojson.Feature, error) {
	var head struct{ Type string `json:"type"` }
	if err:=json.Unmarshal(data, &head); err!=nil { return nil, fmt.Errorf("%w: %w", ErrFormat, err) }

	switch head.Type {
	case "FeatureCollection":
		fc, err:=geojson.UnmarshalFeatureCollection(data)
		if err!=nil { return nil, fmt.Errorf("%w: %w", ErrFormat, err) }
		return fc.Features, nil
	case "Feature":
		f, err:=geojson.UnmarshalFeature(data)
		if err!=nil { return nil, fmt.Errorf("%w: %w", ErrFormat, err) }
		return []*geojson.Feature{f}, nil
	case "":
		return nil, fmt.Errorf("%w: missing GeoJSON type", ErrFormat)
	default:
		g, err:=geojson.UnmarshalGeometry(data)
		if err!=nil { return nil, fmt.Errorf("%w: %w", ErrFormat, err) }
		return []*geojson.Feature{geojson.NewFeature(g.Geometry())}, nil
	}
}

// Reads a sampling region. All polygons of all features are combined;
// the result is a Polygon if there is only one, else a MultiPolygon
func ReadBounds(data []byte) (orb.Geometry, error) {
	features, err:=decodeFeatures(data)
	if err!=nil { return nil, err }
	var mp orb.MultiPolygon
	for i, f:=range features {
		switch g:=f.Geometry.(type) {
		case orb.Polygon:
			mp=append(mp, g)
		case orb.MultiPolygon:
			mp=append(mp, g...)
		default:
			return nil, fmt.Errorf("%w: feature %d is a %T, not a polygon", ErrFormat, i, f.Geometry)
		}
	}
	switch len(mp) {
	case 0 : return nil, fmt.Errorf("%w: no polygons", ErrFormat)
	case 1 : return mp[0], nil
	default: return mp, nil
	}
}

func ReadBoundsFile(fileName string) (orb.Geometry, error) {
	data, err:=os.ReadFile(fileName)
	if err!=nil { return nil, err }
	g, err:=ReadBounds(data)
	if err!=nil { return nil, fmt.Errorf("%s: %w", fileName, err) }
	return g, nil
}

// Reads samples from Point features in file order. The named numeric properties
// become value columns; missing or non-numeric ones are NaN
func ReadPoints(data []byte, props []string) (*Traverse, error) {
	features, err:=decodeFeatures(data)
	if err!=nil { return nil, err }
	t:=&Traverse{Names: props, Values: make([][]float64, len(props))}
	for i, f:=range features {
		p, ok:=f.Geometry.(orb.Point)
		if !ok { return nil, fmt.Errorf("%w: feature %d is a %T, not a point", ErrFormat, i, f.Geometry) }
		t.X=append(t.X, p.X())
		t.Y=append(t.Y, p.Y())
		for j, name:=range props {
			t.Values[j]=append(t.Values[j], f.Properties.MustFloat64(name, math.NaN()))
		}
	}
	if t.Len()==0 { return nil, fmt.Errorf("%w: no samples", ErrFormat) }
	return t, nil
}

func ReadPointsFile(fileName string, props []string) (*Traverse, error) {
	data, err:=os.ReadFile(fileName)
	if err!=nil { return nil, err }
	t, err:=ReadPoints(data, props)
	if err!=nil { return nil, fmt.Errorf("%s: %w", fileName, err) }
	return t, nil
}

// Encodes a region outline as a GeoJSON Feature with the given properties
func MarshalOutline(g orb.Geometry, props map[string]interface{}) ([]byte, error) {
	f:=geojson.NewFeature(g)
	for k, v:=range props { f.Properties[k]=v }
	return f.MarshalJSON()
}
