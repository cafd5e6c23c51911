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

// Tier A kernel: 256-bit AVX2+FMA on amd64, 128-bit NEON on arm64.
//
// Coordinates are split into floor and fraction on float64 lanes, the eight
// neighbours are gathered by flat offsets and the blend sums the products
// of separable weights. A batch with a lane outside the volume resolves
// every lane with the scalar routine into an owned array, so boundary
// results match the reference exactly.

func tierABatch[T Storage, A arith, P adapter[T, A]](src *Volume[T], lc *laneCoords, cval T, dst []T) {
	s := splitBatch[T, A](src, lc)
	if !s.ok.AllTrue() {
		tierAEdgeBatch[T, A, P](src, lc, cval, dst)
		return
	}

	var p P
	n := s.ok.NumLanes()
	off := cornerOffsets(src, &s)
	d := src.data

	one := hwy.Set[A](n, 1)
	wx1 := s.x.w
	wx0 := hwy.Sub(one, wx1)
	wz0, wy0 := hwy.Sub(one, s.z.w), hwy.Sub(one, s.y.w)
	w00 := hwy.Mul(wz0, wy0)
	w01 := hwy.Mul(wz0, s.y.w)
	w10 := hwy.Mul(s.z.w, wy0)
	w11 := hwy.Mul(s.z.w, s.y.w)

	acc := hwy.Mul(p.loadLanes(hwy.GatherIndex(d, off[0])), hwy.Mul(w00, wx0))
	acc = hwy.MulAdd(p.loadLanes(hwy.GatherIndex(d, off[1])), hwy.Mul(w00, wx1), acc)
	acc = hwy.MulAdd(p.loadLanes(hwy.GatherIndex(d, off[2])), hwy.Mul(w01, wx0), acc)
	acc = hwy.MulAdd(p.loadLanes(hwy.GatherIndex(d, off[3])), hwy.Mul(w01, wx1), acc)
	acc = hwy.MulAdd(p.loadLanes(hwy.GatherIndex(d, off[4])), hwy.Mul(w10, wx0), acc)
	acc = hwy.MulAdd(p.loadLanes(hwy.GatherIndex(d, off[5])), hwy.Mul(w10, wx1), acc)
	acc = hwy.MulAdd(p.loadLanes(hwy.GatherIndex(d, off[6])), hwy.Mul(w11, wx0), acc)
	acc = hwy.MulAdd(p.loadLanes(hwy.GatherIndex(d, off[7])), hwy.Mul(w11, wx1), acc)
	p.storeLanes(acc).Store(dst)
}

// tierAEdgeBatch resolves a batch that straddles the volume boundary. Each
// lane is computed by the scalar routine into an owned array, then written
// to the row in one copy.
func tierAEdgeBatch[T Storage, A arith, P adapter[T, A]](src *Volume[T], lc *laneCoords, cval T, dst []T) {
	var out [hwy.MaxVecLanes]T
	n := lc.x.NumLanes()
	for l := range n {
		out[l] = sampleScalar[T, A, P](src,
			hwy.GetLane(lc.z, l), hwy.GetLane(lc.y, l), hwy.GetLane(lc.x, l), cval)
	}
	copy(dst[:n], out[:n])
}
