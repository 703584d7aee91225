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

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	hm "github.com/mlnoga/heatmap/internal"
	"github.com/mlnoga/heatmap/internal/ops"
	"github.com/mlnoga/heatmap/internal/rest"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var xCol   = flag.String("x", "x", "name of the easting column")
var yCol   = flag.String("y", "y", "name of the northing column")
var cols   = flag.String("cols", "", "comma-separated value columns or GeoJSON properties, blank=all non-coordinate CSV columns")

var gsd      = flag.Float64("gsd", 1, "grid cell size in coordinate units")
var radius   = flag.Float64("radius", 0, "tophat kernel radius in coordinate units, required for density")
var padding  = flag.Int64("padding", -1, "cells of padding beyond the kernel radius, -1=pad by the radius only")
var nodata   = flag.Float64("nodata", -9999, "value for cells without observations")
var processes= flag.Int64("processes", 0, "goroutines per scoring pass, 0=all logical cores")
var bounds   = flag.String("bounds", "", "restrict sampling to the polygons in this GeoJSON `file`")
var freqIn   = flag.String("freqIn", "", "reuse frequencies from this `file` when the sample locations match")
var freqOut  = flag.String("freqOut", "", "save frequencies with given filename pattern, e.g. `freq-%s.json`")

var binSize  = flag.Float64("binSize", 0, "bin size for areabin, 0=use gsd")

var out      = flag.String("out", "%s.tif", "save averages with given filename pattern, %s=column. Suffix selects .asc, .tif, .png, .jpg, .svg, .pdf, .json or .geojson")
var count    = flag.String("count", "", "save counts with given filename pattern, e.g. `%s-count.tif`")
var relief   = flag.String("relief", "", "save color relief of averages with given filename pattern, e.g. `%s.png`")
var colorMap = flag.String("colorMap", "", "gdaldem color relief `file` for -relief, blank=built-in ramp")
var plotOut  = flag.String("plot", "", "save plot of averages with axes with given filename pattern, e.g. `%s.svg`")
var crs      = flag.String("crs", "", "coordinate reference system as well-known text, written to .prj sidecar files")

var job      = flag.String("job", "", "run the operator sequence in this JSON `file`")
var saveJob  = flag.String("saveJob", "", "save the operator sequence for this run as JSON to `file`")
var log      = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of the first input with .log")
var memMB    = flag.Int64("memory", 0, "MiB of memory for a density window, 0=0.7x physical memory")

var addr     = flag.String("addr", ":8080", "serve: listen on this address")
var chroot   = flag.String("chroot", "", "serve: change filesystem root to this directory (requires root)")
var setuid   = flag.Int64("setuid", -1, "serve: change to this user id after chroot, -1=keep")

func main() {
	logWriter:=hm.LogWriter
	start:=time.Now()
	flag.Usage=func(){
		fmt.Fprintf(logWriter, `Heatmap Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (density|areabin|run|serve|legal|version) (traverse0.csv ... traversen.csv)

Commands:
  density Compute tophat density heatmaps of observation counts and value averages
  areabin Count and average observations in square bins
  run     Run the operator sequence given with -job on the inputs, or as is if there are none
  serve   Serve the heatmap API over HTTP
  legal   Show license and attribution information
  version Show version information

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}
	inputs, err:=globInputs(args[1:])
	if err!=nil { hm.LogFatalf("Error globbing filenames: %s\n", err.Error()) }

	// Initialize logging to file in addition to stdout, if selected
	if *log=="%auto" {
		*log=""
		if len(inputs)>0 && (args[0]=="density" || args[0]=="areabin" || args[0]=="run") {
			*log=strings.TrimSuffix(inputs[0], filepath.Ext(inputs[0]))+".log"
		}
	}
	if *log!="" {
		if err:=hm.LogAlsoToFile(*log); err!=nil { hm.LogFatalf("Unable to open logfile '%s': %s\n", *log, err.Error()) }
	}

	// Enable CPU profiling if flagged
	if *cpuprofile!="" {
		f, err:=os.Create(*cpuprofile)
		if err!=nil { hm.LogFatal("Could not create CPU profile: ", err) }
		defer f.Close()
		if err:=pprof.StartCPUProfile(f); err!=nil { hm.LogFatal("Could not start CPU profile: ", err) }
		defer pprof.StopCPUProfile()
	}

	c:=ops.NewContext(logWriter)
	c.CRS=*crs
	if *memMB>0 {
		c.HeatmapMemMB=int(*memMB)
		c.MaxCells=ops.MaxCellsFor(c.HeatmapMemMB)
	}
	fmt.Fprintf(logWriter, "Using %d threads and up to %d MiB for density windows of at most %d cells\n", c.MaxThreads, c.HeatmapMemMB, c.MaxCells)

	// run actions
	switch args[0] {
	case "density", "areabin":
		if len(inputs)==0 { hm.LogFatalf("Need at least one input file for %s\n", args[0]) }
		for _, in:=range inputs {
			seq:=newSequence(args[0], in)
			if err=runSequence(seq, c); err!=nil { break }
		}

	case "run":
		if *job=="" { hm.LogFatalf("Need a job file for run\n") }
		err=cmdRun(inputs, c)

	case "serve":
		if err=rest.MakeSandbox(logWriter, *chroot, int(*setuid)); err==nil {
			fmt.Fprintf(logWriter, "Serving on %s\n", *addr)
			err=rest.Serve(*addr, c)
		}

	case "legal":
		fmt.Fprint(logWriter, legal)

	case "version":
		fmt.Fprintf(logWriter, "Version %s\n", version)

	case "help", "?":
		flag.Usage()

	default:
		fmt.Fprintf(logWriter, "Unknown command '%s'\n\n", args[0])
		flag.Usage()
		return
	}

	fmt.Fprintf(logWriter, "\nDone after %v\n", time.Since(start))

	// Store memory profile if flagged
	if *memprofile!="" {
		f, err:=os.Create(*memprofile)
		if err!=nil { hm.LogFatal("Could not create memory profile: ", err) }
		defer f.Close()
		runtime.GC() // get up-to-date statistics
		if err:=pprof.Lookup("allocs").WriteTo(f, 0); err!=nil { hm.LogFatal("Could not write allocation profile: ", err) }
	}

	if err!=nil { hm.LogFatalf("Error: %s\n", err.Error()) }
	hm.LogClose()
}

// Expands wildcards in the given file names
func globInputs(patterns []string) ([]string, error) {
	var res []string
	for _, p:=range patterns {
		matches, err:=filepath.Glob(p)
		if err!=nil { return nil, err }
		if matches==nil { return nil, fmt.Errorf("no files match %s", p) }
		res=append(res, matches...)
	}
	return res, nil
}

// Builds the operator sequence for a density or areabin command from the flags
func newSequence(cmd, fileName string) *ops.OpSequence {
	var valueCols []string
	if *cols!="" {
		for _, c:=range strings.Split(*cols, ",") { valueCols=append(valueCols, strings.TrimSpace(c)) }
	}
	seq:=ops.NewOpSequence(ops.NewOpLoad(fileName, *xCol, *yCol, valueCols))

	if cmd=="density" {
		opDensity:=ops.NewOpDensity(*gsd, *radius, int(*padding), *nodata)
		opDensity.Processes       =int(*processes)
		opDensity.SampleBoundsFile=*bounds
		opDensity.FreqIn          =*freqIn
		opDensity.FreqOut         =*freqOut
		seq.Append(opDensity)
	} else {
		size:=*binSize
		if size==0 { size=*gsd }
		seq.Append(ops.NewOpAreaBin(size, *nodata))
	}

	opRelief:=ops.NewOpSave(*relief, false)
	opRelief.ColorMapFile=*colorMap
	opPlot:=ops.NewOpSave(*plotOut, false)
	opPlot.Plot=true
	seq.Append(
		ops.NewOpSave(*out,   false),
		ops.NewOpSave(*count, true),
		opRelief,
		opPlot,
	)
	return seq
}

// Runs the sequence in the job file. Its load steps are pointed at each input in turn
func cmdRun(inputs []string, c *ops.Context) error {
	if len(inputs)==0 {
		seq, err:=loadJob(*job)
		if err!=nil { return err }
		return runSequence(seq, c)
	}
	for _, in:=range inputs {
		seq, err:=loadJob(*job)
		if err!=nil { return err }
		for _, step:=range seq.Steps {
			if l, ok:=step.(*ops.OpLoad); ok { l.FileName=in }
		}
		if err:=runSequence(seq, c); err!=nil { return err }
	}
	return nil
}

func loadJob(fileName string) (*ops.OpSequence, error) {
	raw, err:=os.ReadFile(fileName)
	if err!=nil { return nil, err }
	op, err:=ops.UnmarshalOperator(raw)
	if err!=nil { return nil, fmt.Errorf("%s: %w", fileName, err) }
	seq, ok:=op.(*ops.OpSequence)
	if !ok { seq=ops.NewOpSequence(op) }
	return seq, nil
}

func runSequence(seq *ops.OpSequence, c *ops.Context) error {
	m, err:=json.MarshalIndent(seq, "", "  ")
	if err!=nil { return err }
	fmt.Fprintf(c.Log, "\nRunning with these settings:\n%s\n", string(m))
	if *saveJob!="" {
		if err:=os.WriteFile(*saveJob, m, 0666); err!=nil { return err }
	}
	ps, err:=seq.Run(c)
	for _, p:=range ps {
		fmt.Fprintf(c.Log, "%d: %s from %s done\n", p.ID, p.Name, p.Source)
	}
	return err
}
