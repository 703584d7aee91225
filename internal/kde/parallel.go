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

package kde

import (
	"errors"
	"fmt"
)

// A scoring function for one contiguous chunk of query points
type ScoreFunc func(chunk []Point) ([]float64, error)

// A half-open index range
type Chunk struct {
	Lower, Upper int
}

// Splits n items into the given number of contiguous chunks. The first n%parts
// chunks hold one item more than the rest; trailing chunks may be empty.
func SplitChunks(n, parts int) []Chunk {
	if parts<1 { return nil }
	size, extra:=n/parts, n%parts
	chunks:=make([]Chunk, parts)
	lower:=0
	for i:=range chunks {
		upper:=lower+size
		if i<extra { upper++ }
		chunks[i]=Chunk{lower, upper}
		lower=upper
	}
	return chunks
}

// Scores all query points by running score over contiguous chunks on a pool of
// the given size. Results are reassembled in chunk order. Any failing chunk fails the call.
// No more workers than query points are started; the non-empty chunks are the same.
func ScoreParallel(qs []Point, processes int, score ScoreFunc) ([]float64, error) {
	if processes<1 { return nil, fmt.Errorf("%w: processes=%d; need at least 1", ErrConfig, processes) }
	workers:=min(processes, max(len(qs), 1))

	chunks:=SplitChunks(len(qs), workers)
	outs   :=make([][]float64, len(chunks))
	limiter:=make(chan bool, workers)
	errs   :=make(chan error, len(chunks))
	for i, c:=range chunks {
		limiter <- true
		go func(i int, c Chunk) {
			defer func() { <-limiter }()
			defer func() {
				if r:=recover(); r!=nil { errs <- fmt.Errorf("chunk %d [%d,%d): %v", i, c.Lower, c.Upper, r) }
			}()
			res, err:=score(qs[c.Lower:c.Upper])
			if err==nil && len(res)!=c.Upper-c.Lower {
				err=fmt.Errorf("%d scores for %d points", len(res), c.Upper-c.Lower)
			}
			if err!=nil {
				errs <- fmt.Errorf("chunk %d [%d,%d): %w", i, c.Lower, c.Upper, err)
				return
			}
			outs[i]=res
		}(i, c)
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}
	close(errs)

	var all []error
	for e:=range errs { all=append(all, e) }
	if len(all)>0 { return nil, errors.Join(all...) }

	res:=make([]float64, 0, len(qs))
	for _, o:=range outs { res=append(res, o...) }
	return res, nil
}
