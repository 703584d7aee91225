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

package heatmap

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mlnoga/heatmap/internal/grid"
	"github.com/mlnoga/heatmap/internal/mask"
)

// Unweighted observation density per evaluated cell, in mask order. Depends on the
// sample locations, radius and grid only, so it can be carried from one call to
// the next when several quantities were measured at the same locations.
type FrequencyField struct {
	Transform grid.Transform `json:"transform"`
	Window    grid.Window    `json:"window"`
	Radius    float64        `json:"radius"`
	Samples   int            `json:"samples"`
	Locations uint64         `json:"locations,string"`
	Values    []float64      `json:"values"`
}

// Cheap check whether the field was computed for these locations and radius.
// The grid is only known, and checked, once the mask has been built. A field on
// another grid then fails with ErrFrequencyGrid.
func (f *FrequencyField) ReusableFor(s *SampleSet, radius float64) bool {
	return f.Radius==radius && f.Samples==s.Len() && f.Locations==s.LocationsHash()
}

func (f *FrequencyField) check(s *SampleSet, radius float64, m *mask.Mask) error {
	switch {
	case f.Radius!=radius:
		return fmt.Errorf("%w: frequencies computed for radius %g, not %g", ErrConfig, f.Radius, radius)
	case f.Samples!=s.Len() || f.Locations!=s.LocationsHash():
		return fmt.Errorf("%w: frequencies computed for different sample locations", ErrConfig)
	case f.Transform!=m.Transform || f.Window!=m.Window:
		return fmt.Errorf("%w: %w: window %v of %v, not %v of %v", ErrConfig, ErrFrequencyGrid, f.Window, f.Transform, m.Window, m.Transform)
	case len(f.Values)!=m.Count():
		return fmt.Errorf("%w: %w: %d frequencies for %d evaluated cells", ErrConfig, ErrFrequencyGrid, len(f.Values), m.Count())
	}
	return nil
}

// Stores the field as JSON
func (f *FrequencyField) WriteFile(fileName string) error {
	b, err:=json.Marshal(f)
	if err!=nil { return err }
	return os.WriteFile(fileName, b, 0666)
}

// Loads a field stored with WriteFile
func ReadFrequencyFieldFile(fileName string) (*FrequencyField, error) {
	b, err:=os.ReadFile(fileName)
	if err!=nil { return nil, err }
	f:=&FrequencyField{}
	if err:=json.Unmarshal(b, f); err!=nil { return nil, fmt.Errorf("%s: %w", fileName, err) }
	return f, nil
}
