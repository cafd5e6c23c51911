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

//go:build amd64 && goexperiment.simd

package interp

import (
	"math"
	"simd/archsimd"

	"github.com/voxelkit/affiners/hwy"
)

// AVX2+FMA bodies for the float32 and float64 Tier A batches. They take
// over from the portable batches when the host has the instructions. Lane
// widths other than a full register, which fake dispatchers in tests can
// ask for, still run the portable batch.

func init() {
	f := hwy.Detect()
	if f.Disabled || !f.AVX2 || !f.FMA {
		return
	}
	f32Kernels.tierA = tierAF32x8
	f64Kernels.tierA = tierAF64x4
}

// laneIndex holds the lower and upper neighbour of each lane on one axis.
type laneIndex struct {
	i0, i1 [hwy.MaxVecLanes]int
}

// cornerIndex returns the flat source index of corner k of lane l. Corner
// k has its z, y and x bits in k's bits 2, 1 and 0.
func cornerIndex[T Storage](src *Volume[T], z, y, x *laneIndex, k, l int) int {
	zi, yi, xi := z.i0[l], y.i0[l], x.i0[l]
	if k&4 != 0 {
		zi = z.i1[l]
	}
	if k&2 != 0 {
		yi = y.i1[l]
	}
	if k&1 != 0 {
		xi = x.i1[l]
	}
	return zi*src.planeSz + yi*src.width + xi
}

// splitQuad splits four coordinates of one axis starting at lane base. It
// returns the in-volume bits of the four lanes and their fractions. Lanes
// outside keep index 0.
func splitQuad(c []float64, size, base int, ix *laneIndex) (uint32, archsimd.Float64x4) {
	cv := archsimd.LoadFloat64x4Slice(c)
	fl := hwy.Floor_AVX2_F64x4(cv)
	ok := fl.Greater(archsimd.BroadcastFloat64x4(-1)).And(fl.Less(archsimd.BroadcastFloat64x4(float64(size))))
	bits := uint32(ok.ToBits())

	var f [4]float64
	fl.Store(&f)
	for l := range 4 {
		if bits&(1<<l) != 0 {
			i0 := int(f[l])
			ix.i0[base+l], ix.i1[base+l] = i0, min(i0+1, size-1)
		}
	}
	return bits, cv.Sub(fl)
}

func tierAF64x4(src *Volume[float64], lc *laneCoords, cval float64, dst []float64) {
	if lc.x.NumLanes() != 4 {
		tierABatch[float64, float64, f64Adapter](src, lc, cval, dst)
		return
	}
	var z, y, x laneIndex
	okz, wz1 := splitQuad(lc.z.Data(), src.depth, 0, &z)
	oky, wy1 := splitQuad(lc.y.Data(), src.height, 0, &y)
	okx, wx1 := splitQuad(lc.x.Data(), src.width, 0, &x)
	if okz&oky&okx != 0xF {
		tierAEdgeBatch[float64, float64, f64Adapter](src, lc, cval, dst)
		return
	}

	var off [8][4]int64
	for k := range off {
		for l := range 4 {
			off[k][l] = int64(cornerIndex(src, &z, &y, &x, k, l))
		}
	}
	corner := func(k int) archsimd.Float64x4 {
		return hwy.GatherIndex_AVX2_F64x4(src.data, archsimd.LoadInt64x4Slice(off[k][:]))
	}

	one := archsimd.BroadcastFloat64x4(1)
	wx0 := one.Sub(wx1)
	wz0, wy0 := one.Sub(wz1), one.Sub(wy1)
	w00, w01 := wz0.Mul(wy0), wz0.Mul(wy1)
	w10, w11 := wz1.Mul(wy0), wz1.Mul(wy1)

	acc := corner(0).Mul(w00.Mul(wx0))
	acc = corner(1).MulAdd(w00.Mul(wx1), acc)
	acc = corner(2).MulAdd(w01.Mul(wx0), acc)
	acc = corner(3).MulAdd(w01.Mul(wx1), acc)
	acc = corner(4).MulAdd(w10.Mul(wx0), acc)
	acc = corner(5).MulAdd(w10.Mul(wx1), acc)
	acc = corner(6).MulAdd(w11.Mul(wx0), acc)
	acc = corner(7).MulAdd(w11.Mul(wx1), acc)
	acc.StoreSlice(dst)
}

// narrowQuad converts a register of float64 fractions to float32 lanes
// base .. base+3 of w.
func narrowQuad(v archsimd.Float64x4, w *[8]float32, base int) {
	var f [4]float64
	v.Store(&f)
	for l, x := range f {
		w[base+l] = float32(x)
	}
}

func tierAF32x8(src *Volume[float32], lc *laneCoords, cval float32, dst []float32) {
	if lc.x.NumLanes() != 8 || len(src.data) > math.MaxInt32 {
		tierABatch[float32, float32, f32Adapter](src, lc, cval, dst)
		return
	}
	cz, cy, cx := lc.z.Data(), lc.y.Data(), lc.x.Data()
	var z, y, x laneIndex
	var fz, fy, fx [8]float32
	var ok uint32
	for _, base := range [2]int{0, 4} {
		okz, wz := splitQuad(cz[base:base+4], src.depth, base, &z)
		oky, wy := splitQuad(cy[base:base+4], src.height, base, &y)
		okx, wx := splitQuad(cx[base:base+4], src.width, base, &x)
		ok |= (okz & oky & okx) << base
		narrowQuad(wz, &fz, base)
		narrowQuad(wy, &fy, base)
		narrowQuad(wx, &fx, base)
	}
	if ok != 0xFF {
		tierAEdgeBatch[float32, float32, f32Adapter](src, lc, cval, dst)
		return
	}

	var off [8][8]int32
	for k := range off {
		for l := range 8 {
			off[k][l] = int32(cornerIndex(src, &z, &y, &x, k, l))
		}
	}
	corner := func(k int) archsimd.Float32x8 {
		return hwy.GatherIndex_AVX2_F32x8(src.data, archsimd.LoadInt32x8Slice(off[k][:]))
	}

	wz1 := archsimd.LoadFloat32x8Slice(fz[:])
	wy1 := archsimd.LoadFloat32x8Slice(fy[:])
	wx1 := archsimd.LoadFloat32x8Slice(fx[:])
	one := archsimd.BroadcastFloat32x8(1)
	wx0 := one.Sub(wx1)
	wz0, wy0 := one.Sub(wz1), one.Sub(wy1)
	w00, w01 := wz0.Mul(wy0), wz0.Mul(wy1)
	w10, w11 := wz1.Mul(wy0), wz1.Mul(wy1)

	acc := corner(0).Mul(w00.Mul(wx0))
	acc = corner(1).MulAdd(w00.Mul(wx1), acc)
	acc = corner(2).MulAdd(w01.Mul(wx0), acc)
	acc = corner(3).MulAdd(w01.Mul(wx1), acc)
	acc = corner(4).MulAdd(w10.Mul(wx0), acc)
	acc = corner(5).MulAdd(w10.Mul(wx1), acc)
	acc = corner(6).MulAdd(w11.Mul(wx0), acc)
	acc = corner(7).MulAdd(w11.Mul(wx1), acc)
	acc.StoreSlice(dst)
}
