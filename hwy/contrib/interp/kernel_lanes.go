// Copyright 2025 The affiners Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interp

import "github.com/voxelkit/affiners/hwy"

// axisLanes is one axis of a lane batch split for trilinear sampling.
type axisLanes[A arith] struct {
	i0, i1 hwy.Vec[int64]    // lower and clamped upper neighbour
	w      hwy.Vec[A]        // weight of the upper neighbour
	ok     hwy.Mask[float64] // floor inside [0, size)
}

// splitAxis is the lane form of corner. Lanes outside the axis, NaN
// included, get index 0 so gathers through them stay in bounds.
func splitAxis[A arith](c hwy.Vec[float64], size int) axisLanes[A] {
	n := c.NumLanes()
	fl := hwy.Floor(c)
	ok := hwy.MaskAnd(
		hwy.GreaterEqual(fl, hwy.Zero[float64](n)),
		hwy.LessThan(fl, hwy.Set(n, float64(size))))
	i0 := hwy.ConvertToInt64(hwy.IfThenElseZero(ok, fl))
	return axisLanes[A]{
		i0: i0,
		i1: hwy.Min(hwy.Add(i0, hwy.Set[int64](n, 1)), hwy.Set(n, int64(size-1))),
		w:  hwy.ConvertFloat[A](hwy.Sub(c, fl)),
		ok: ok,
	}
}

// batchSplit is a lane batch split along all three axes.
type batchSplit[A arith] struct {
	z, y, x axisLanes[A]
	ok      hwy.Mask[float64]
}

func splitBatch[T Storage, A arith](src *Volume[T], lc *laneCoords) batchSplit[A] {
	s := batchSplit[A]{
		z: splitAxis[A](lc.z, src.depth),
		y: splitAxis[A](lc.y, src.height),
		x: splitAxis[A](lc.x, src.width),
	}
	s.ok = hwy.MaskAnd(hwy.MaskAnd(s.z.ok, s.y.ok), s.x.ok)
	return s
}

// cornerOffsets returns the flat indices of the eight neighbours of every
// lane. Corner k has its z, y and x bits in k's bits 2, 1 and 0.
func cornerOffsets[T Storage, A arith](src *Volume[T], s *batchSplit[A]) [8]hwy.Vec[int64] {
	n := s.x.i0.NumLanes()
	plane := hwy.Set(n, int64(src.planeSz))
	width := hwy.Set(n, int64(src.width))
	z0, z1 := hwy.Mul(s.z.i0, plane), hwy.Mul(s.z.i1, plane)
	y0, y1 := hwy.Mul(s.y.i0, width), hwy.Mul(s.y.i1, width)
	r00, r01 := hwy.Add(z0, y0), hwy.Add(z0, y1)
	r10, r11 := hwy.Add(z1, y0), hwy.Add(z1, y1)
	return [8]hwy.Vec[int64]{
		hwy.Add(r00, s.x.i0), hwy.Add(r00, s.x.i1),
		hwy.Add(r01, s.x.i0), hwy.Add(r01, s.x.i1),
		hwy.Add(r10, s.x.i0), hwy.Add(r10, s.x.i1),
		hwy.Add(r11, s.x.i0), hwy.Add(r11, s.x.i1),
	}
}
