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

// Tier B kernel: 512-bit AVX-512F on amd64, SVE on arm64.
//
// Every batch runs the masked path: the validity mask drives a masked
// gather, the blend is a fused multiply-add lerp cascade along x, then y,
// then z, and a masked store writes only the lanes inside the volume.
// Lanes outside keep the cval the plane was filled with.

func tierBBatch[T Storage, A arith, P adapter[T, A]](src *Volume[T], lc *laneCoords, cval T, dst []T) {
	s := splitBatch[T, A](src, lc)
	if !s.ok.AnyTrue() {
		return
	}

	var p P
	m := hwy.MaskAs[T](s.ok)
	off := cornerOffsets(src, &s)
	d := src.data

	c00 := lerpLanes(s.x.w,
		p.loadLanes(hwy.GatherIndexMasked(d, off[0], m)),
		p.loadLanes(hwy.GatherIndexMasked(d, off[1], m)))
	c01 := lerpLanes(s.x.w,
		p.loadLanes(hwy.GatherIndexMasked(d, off[2], m)),
		p.loadLanes(hwy.GatherIndexMasked(d, off[3], m)))
	c10 := lerpLanes(s.x.w,
		p.loadLanes(hwy.GatherIndexMasked(d, off[4], m)),
		p.loadLanes(hwy.GatherIndexMasked(d, off[5], m)))
	c11 := lerpLanes(s.x.w,
		p.loadLanes(hwy.GatherIndexMasked(d, off[6], m)),
		p.loadLanes(hwy.GatherIndexMasked(d, off[7], m)))
	c0 := lerpLanes(s.y.w, c00, c01)
	c1 := lerpLanes(s.y.w, c10, c11)
	hwy.MaskStore(m, p.storeLanes(lerpLanes(s.z.w, c0, c1)), dst)
}

// lerpLanes returns a + t*(b-a) with a single rounding of the product-sum.
func lerpLanes[A arith](t, a, b hwy.Vec[A]) hwy.Vec[A] {
	return hwy.MulAdd(t, hwy.Sub(b, a), a)
}
