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

import (
	"math"

	"github.com/voxelkit/affiners/hwy"
)

// corner locates coordinate c on an axis of the given size. It returns the
// lower and upper neighbour indices, the weight of the upper neighbour, and
// whether c is inside the volume: floor(c) must lie in [0, size). The upper
// neighbour is clamped to the last sample. NaN is never inside.
func corner(c float64, size int) (i0, i1 int, f float64, ok bool) {
	fl := math.Floor(c)
	if !(fl >= 0 && fl < float64(size)) {
		return 0, 0, 0, false
	}
	i0 = int(fl)
	return i0, min(i0+1, size-1), c - fl, true
}

// sampleScalar is the reference trilinear sample of src at (z, y, x).
// Every other backend is checked against it.
func sampleScalar[T Storage, A arith, P adapter[T, A]](src *Volume[T], z, y, x float64, cval T) T {
	z0, z1, fz, okz := corner(z, src.depth)
	y0, y1, fy, oky := corner(y, src.height)
	x0, x1, fx, okx := corner(x, src.width)
	if !(okz && oky && okx) {
		return cval
	}

	var p P
	d := src.data
	r00 := z0*src.planeSz + y0*src.width
	r01 := z0*src.planeSz + y1*src.width
	r10 := z1*src.planeSz + y0*src.width
	r11 := z1*src.planeSz + y1*src.width

	wz1, wy1, wx1 := A(fz), A(fy), A(fx)
	wz0, wy0, wx0 := 1-wz1, 1-wy1, 1-wx1

	v := p.load(d[r00+x0])*wz0*wy0*wx0 +
		p.load(d[r00+x1])*wz0*wy0*wx1 +
		p.load(d[r01+x0])*wz0*wy1*wx0 +
		p.load(d[r01+x1])*wz0*wy1*wx1 +
		p.load(d[r10+x0])*wz1*wy0*wx0 +
		p.load(d[r10+x1])*wz1*wy0*wx1 +
		p.load(d[r11+x0])*wz1*wy1*wx0 +
		p.load(d[r11+x1])*wz1*wy1*wx1
	return p.store(v)
}

// laneCoords holds the source coordinates of a batch of adjacent output
// voxels, one lane per voxel.
type laneCoords struct {
	z, y, x hwy.Vec[float64]
}

// lanesFor returns the batch width of a backend level for a precision: the
// lanes of its arithmetic type in one register.
func lanesFor(level hwy.DispatchLevel, p Precision) int {
	if p.arithSize() == 8 {
		return min(hwy.MaxLanes[float64](level), hwy.MaxVecLanes)
	}
	return min(hwy.MaxLanes[float32](level), hwy.MaxVecLanes)
}
