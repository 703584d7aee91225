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

package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/mlnoga/heatmap/internal/grid"
	"github.com/mlnoga/heatmap/internal/ops"
	"github.com/mlnoga/heatmap/internal/stats"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testRouter() *gin.Engine {
	c:=ops.NewContext(io.Discard)
	c.MaxThreads=2
	return NewRouter(c)
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req:=httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w:=httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w:=do(t, testRouter(), http.MethodGet, "/api/v1/ping", "")
	if w.Code!=http.StatusOK { t.Fatalf("status=%d; want %d", w.Code, http.StatusOK) }
	var got map[string]string
	if err:=json.Unmarshal(w.Body.Bytes(), &got); err!=nil { t.Fatalf("Unmarshal: %v", err) }
	if got["message"]!="pong" { t.Errorf("message=%q; want pong", got["message"]) }
}

func TestIndex(t *testing.T) {
	w:=do(t, testRouter(), http.MethodGet, "/", "")
	if w.Code!=http.StatusOK || !strings.Contains(w.Body.String(), "/api/v1/density") {
		t.Errorf("status=%d body=%s; want API overview", w.Code, w.Body)
	}
}

// Samples at the cell centers of a 3x3 grid of unit cells, all with value 1
const gridBody=`"x":[0.5,1.5,2.5,0.5,1.5,2.5,0.5,1.5,2.5],"y":[0.5,0.5,0.5,1.5,1.5,1.5,2.5,2.5,2.5],"values":[1,1,1,1,1,1,1,1,1]`

func TestDensity(t *testing.T) {
	r:=testRouter()
	w:=do(t, r, http.MethodPost, "/api/v1/density", `{`+gridBody+`,"gsd":1,"radius":1,"padding":0,"nodata":-9999}`)
	if w.Code!=http.StatusOK { t.Fatalf("status=%d body=%s; want %d", w.Code, w.Body, http.StatusOK) }

	var got struct {
		Transform   grid.Transform   `json:"transform"`
		Window      grid.Window      `json:"window"`
		Average     []float32        `json:"average"`
		Counts      []uint32         `json:"counts"`
		Frequencies *json.RawMessage `json:"frequencies"`
		Stats       stats.Stats      `json:"stats"`
	}
	if err:=json.Unmarshal(w.Body.Bytes(), &got); err!=nil { t.Fatalf("Unmarshal: %v", err) }
	if want:=grid.FromOrigin(-1, 4, 1, 1); got.Transform!=want { t.Errorf("transform=%v; want %v", got.Transform, want) }
	if want:=(grid.Window{Width: 5, Height: 5}); got.Window!=want { t.Errorf("window=%v; want %v", got.Window, want) }
	if len(got.Average)!=25 || got.Average[12]!=1 || got.Average[0]!=-9999 {
		t.Errorf("average=%v; want 1 at the center and nodata in the corner", got.Average)
	}
	if got.Frequencies!=nil { t.Errorf("frequencies included without asking") }
	if got.Stats.Valid!=9 || got.Stats.Mean!=1 { t.Errorf("stats=%+v; want 9 valid cells with mean 1", got.Stats) }

	w=do(t, r, http.MethodPost, "/api/v1/density", `{`+gridBody+`,"gsd":1,"radius":1,"frequencies":true}`)
	if w.Code!=http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"frequencies":{`)) {
		t.Errorf("status=%d body=%s; want frequencies", w.Code, w.Body)
	}
}

func TestDensityErrors(t *testing.T) {
	r:=testRouter()
	cases:=[]struct {
		name string
		body string
	}{
		{"malformed",   `{`},
		{"zero gsd",    `{`+gridBody+`,"gsd":0,"radius":1}`},
		{"lengths",     `{"x":[1,2],"y":[1],"values":[1,2],"gsd":1,"radius":1}`},
		{"bad bounds",  `{`+gridBody+`,"gsd":1,"radius":1,"sampleBounds":{"type":"Point","coordinates":[1,1]}}`},
		{"far bounds",  `{`+gridBody+`,"gsd":1,"radius":1,"sampleBounds":{"type":"Polygon","coordinates":[[[10,10],[11,10],[11,11],[10,10]]]}}`},
	}
	for _, c:=range cases {
		if w:=do(t, r, http.MethodPost, "/api/v1/density", c.body); w.Code!=http.StatusBadRequest {
			t.Errorf("%s: status=%d body=%s; want %d", c.name, w.Code, w.Body, http.StatusBadRequest)
		}
	}
}

func TestAreaBin(t *testing.T) {
	r:=testRouter()
	w:=do(t, r, http.MethodPost, "/api/v1/areabin", `{`+gridBody+`,"binSize":1.5,"nodata":-1}`)
	if w.Code!=http.StatusOK { t.Fatalf("status=%d body=%s; want %d", w.Code, w.Body, http.StatusOK) }
	var got struct {
		Counts []uint32 `json:"counts"`
	}
	if err:=json.Unmarshal(w.Body.Bytes(), &got); err!=nil { t.Fatalf("Unmarshal: %v", err) }
	sum:=uint32(0)
	for _, n:=range got.Counts { sum+=n }
	if sum!=9 { t.Errorf("binned samples=%d; want 9", sum) }

	if w:=do(t, r, http.MethodPost, "/api/v1/areabin", `{`+gridBody+`,"binSize":-1}`); w.Code!=http.StatusBadRequest {
		t.Errorf("negative bin size: status=%d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestJob(t *testing.T) {
	r:=testRouter()
	w:=do(t, r, http.MethodPost, "/api/v1/job", `{"type":"seq","active":true,"steps":[{"type":"load","active":true,"fileName":"/etc/passwd"}]}`)
	if w.Code!=http.StatusOK { t.Fatalf("status=%d; want %d", w.Code, http.StatusOK) }
	if diff:=cmp.Diff("text/plain", w.Header().Get("Content-Type")); diff!="" { t.Errorf("content type mismatch (-want +got):\n%s", diff) }
	if !strings.Contains(w.Body.String(), "outside current directory tree") {
		t.Errorf("body=%s; want path rejection", w.Body)
	}

	if w:=do(t, r, http.MethodPost, "/api/v1/job", `{"type":"sharpen"}`); w.Code!=http.StatusBadRequest {
		t.Errorf("unknown operator: status=%d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestProcessesAreClampedToThreads(t *testing.T) {
	s:=&server{ctx: &ops.Context{MaxThreads: 4}}
	for _, tc:=range []struct{ requested, want int }{
		{0, 4}, {1, 1}, {4, 4}, {5, 4}, {math.MaxInt32, 4}, {-1, -1},
	} {
		if got:=s.processes(tc.requested); got!=tc.want { t.Errorf("processes(%d)=%d; want %d", tc.requested, got, tc.want) }
	}

	r:=testRouter()
	if w:=do(t, r, http.MethodPost, "/api/v1/density", `{`+gridBody+`,"gsd":1,"radius":1,"processes":5000000}`); w.Code!=http.StatusOK {
		t.Errorf("huge processes: status=%d body=%s; want %d", w.Code, w.Body, http.StatusOK)
	}
	if w:=do(t, r, http.MethodPost, "/api/v1/density", `{`+gridBody+`,"gsd":1,"radius":1,"processes":-1}`); w.Code!=http.StatusBadRequest {
		t.Errorf("negative processes: status=%d body=%s; want %d", w.Code, w.Body, http.StatusBadRequest)
	}
}

// Samples of gridBody, with the value of the last one missing
const gridBodyWithNull=`"x":[0.5,1.5,2.5,0.5,1.5,2.5,0.5,1.5,2.5],"y":[0.5,0.5,0.5,1.5,1.5,1.5,2.5,2.5,2.5],"values":[1,1,1,1,1,1,1,1,null]`

func TestNullValuesAreDropped(t *testing.T) {
	r:=testRouter()
	w:=do(t, r, http.MethodPost, "/api/v1/density", `{`+gridBodyWithNull+`,"gsd":1,"radius":1,"padding":0,"nodata":-9999}`)
	if w.Code!=http.StatusOK { t.Fatalf("status=%d body=%s; want %d", w.Code, w.Body, http.StatusOK) }
	var dens struct {
		Stats stats.Stats `json:"stats"`
	}
	if err:=json.Unmarshal(w.Body.Bytes(), &dens); err!=nil { t.Fatalf("Unmarshal: %v", err) }
	if dens.Stats.Valid==0 || math.Abs(dens.Stats.Mean-1)>1e-6 { t.Errorf("stats=%+v; want mean 1 over the remaining samples", dens.Stats) }

	w=do(t, r, http.MethodPost, "/api/v1/areabin", `{`+gridBodyWithNull+`,"binSize":1.5,"nodata":-1}`)
	if w.Code!=http.StatusOK { t.Fatalf("status=%d body=%s; want %d", w.Code, w.Body, http.StatusOK) }
	var bin struct {
		Counts []uint32 `json:"counts"`
	}
	if err:=json.Unmarshal(w.Body.Bytes(), &bin); err!=nil { t.Fatalf("Unmarshal: %v", err) }
	sum:=uint32(0)
	for _, n:=range bin.Counts { sum+=n }
	if sum!=8 { t.Errorf("binned samples=%d; want 8", sum) }
}
