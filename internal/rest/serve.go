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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mlnoga/heatmap/internal/grid"
	"github.com/mlnoga/heatmap/internal/heatmap"
	"github.com/mlnoga/heatmap/internal/ops"
	"github.com/mlnoga/heatmap/internal/stats"
	"github.com/mlnoga/heatmap/internal/vector"
	"github.com/mlnoga/heatmap/web"
)

// Serves the API on the given address, e.g. ":8080"
func Serve(addr string, c *ops.Context) error {
	return NewRouter(c).Run(addr)
}

// Routes of the API. Jobs submitted over the network may only access
// relative paths below the working directory
func NewRouter(c *ops.Context) *gin.Engine {
	ctx:=*c
	ctx.RestrictPaths=true
	s:=&server{ctx: &ctx}

	r:=gin.Default()
	r.GET("/", getIndex)
	api:=r.Group("/api")
	{
		v1:=api.Group("/v1")
		{
			v1.GET ("/ping",    getPing)
			v1.POST("/density", s.postDensity)
			v1.POST("/areabin", s.postAreaBin)
			v1.POST("/job",     s.postJob)
		}
	}
	return r
}

type server struct {
	ctx *ops.Context
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

type postDensityArgs struct {
	X            []float64       `json:"x"`
	Y            []float64       `json:"y"`
	Values       []*float64      `json:"values"` // null for a missing value
	GSD          float64         `json:"gsd"`
	Radius       float64         `json:"radius"`
	Padding      *int            `json:"padding"`
	Nodata       float64         `json:"nodata"`
	Processes    int             `json:"processes"`
	Transform    *grid.Transform `json:"transform"`
	SampleBounds json.RawMessage `json:"sampleBounds"` // GeoJSON polygon
	Frequencies  bool            `json:"frequencies"`  // include the frequency field in the result
}

type densityResponse struct {
	*heatmap.DensityResult
	Stats stats.Stats `json:"stats"`
}

func (s *server) postDensity(c *gin.Context) {
	var args postDensityArgs
	if err:=c.ShouldBindJSON(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts:=heatmap.NewDensityOptions(args.GSD, args.Radius)
	opts.Padding  =args.Padding
	opts.Nodata   =args.Nodata
	opts.Transform=args.Transform
	opts.MaxCells =s.ctx.MaxCells
	opts.Processes=s.processes(args.Processes)
	if len(args.SampleBounds)>0 {
		b, err:=vector.ReadBounds(args.SampleBounds)
		if err!=nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.SampleBounds=b
	}

	r, err:=heatmap.GenerateDensityHeatmap(args.X, args.Y, nanForNull(args.Values), opts)
	if err!=nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	if !args.Frequencies { r.Frequencies=nil }
	c.JSON(http.StatusOK, densityResponse{r, stats.Summarize(r.Average, float32(r.Nodata))})
}

type postAreaBinArgs struct {
	X       []float64  `json:"x"`
	Y       []float64  `json:"y"`
	Values  []*float64 `json:"values"`
	BinSize float64    `json:"binSize"`
	Nodata  float64    `json:"nodata"`
}

func (s *server) postAreaBin(c *gin.Context) {
	var args postAreaBinArgs
	if err:=c.ShouldBindJSON(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r, err:=heatmap.GenerateAreaBinHeatmap(args.X, args.Y, nanForNull(args.Values), args.BinSize, args.Nodata)
	if err!=nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, r)
}

// Worker count for a request. Zero or anything above the server's thread limit
// gets the limit; negative counts are left for validation to reject
func (s *server) processes(requested int) int {
	if requested==0 || requested>s.ctx.MaxThreads { return s.ctx.MaxThreads }
	return requested
}

// JSON has no NaN, so missing values arrive as null
func nanForNull(vs []*float64) []float64 {
	if vs==nil { return nil }
	res:=make([]float64, len(vs))
	for i, v:=range vs {
		if v==nil { res[i]=math.NaN() } else { res[i]=*v }
	}
	return res
}

// Runs an operator graph given as JSON, streaming the log as plain text
func (s *server) postJob(c *gin.Context) {
	raw, err:=io.ReadAll(c.Request.Body)
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op, err:=ops.UnmarshalOperator(raw)
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logWriter:=&syncWriter{w: c.Writer}
	header:=c.Writer.Header()
	header.Set("Content-Type", "text/plain")
	c.Writer.WriteHeader(http.StatusOK)

	ctx:=*s.ctx
	ctx.Log=logWriter
	if err:=printArgs(logWriter, "Job:\n", "\n", op); err!=nil {
		fmt.Fprintf(logWriter, "Error printing arguments: %s\n", err.Error())
		return
	}
	promises, err:=op.MakePromises(nil, &ctx)
	if err==nil {
		var ps []*ops.Product
		ps, err=ops.MaterializeAll(promises, ctx.MaxThreads, false)
		for _, p:=range ps {
			fmt.Fprintf(logWriter, "%d: %s done\n", p.ID, p.Name)
		}
	}
	if err!=nil {
		fmt.Fprintf(logWriter, "Error: %s\n", err.Error())
	}
	c.Writer.Flush()
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m,err:=json.MarshalIndent(args, "", "  ")
	if err!=nil { return err }
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

// Invalid inputs are the client's fault, anything else is ours
func statusOf(err error) int {
	if errors.Is(err, heatmap.ErrConfig) { return http.StatusBadRequest }
	return http.StatusInternalServerError
}

// Serializes writes of concurrent operators to the response
type syncWriter struct {
	mutex sync.Mutex
	w     io.Writer
}

func (sw *syncWriter) Write(b []byte) (int, error) {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()
	return sw.w.Write(b)
}
