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

// AVX-512 bodies for the float32 and float64 Tier B batches. Lanes outside
// the volume are merged back from the row, which holds cval on entry.

func init() {
	f := hwy.Detect()
	if f.Disabled || !f.AVX512F {
		return
	}
	f32Kernels.tierB = tierBF32x16
	f64Kernels.tierB = tierBF64x8
}

// splitOct is splitQuad for eight lanes in a 512-bit register.
func splitOct(c []float64, size, base int, ix *laneIndex) (uint32, archsimd.Float64x8) {
	cv := archsimd.LoadFloat64x8Slice(c)
	fl := hwy.Floor_AVX512_F64x8(cv)
	ok := fl.Greater(archsimd.BroadcastFloat64x8(-1)).And(fl.Less(archsimd.BroadcastFloat64x8(float64(size))))
	bits := uint32(ok.ToBits())

	var f [8]float64
	fl.StoreSlice(f[:])
	for l := range 8 {
		if bits&(1<<l) != 0 {
			i0 := int(f[l])
			ix.i0[base+l], ix.i1[base+l] = i0, min(i0+1, size-1)
		}
	}
	return bits, cv.Sub(fl)
}

func lerpF64x8(t, a, b archsimd.Float64x8) archsimd.Float64x8 {
	return t.MulAdd(b.Sub(a), a)
}

func lerpF32x16(t, a, b archsimd.Float32x16) archsimd.Float32x16 {
	return t.MulAdd(b.Sub(a), a)
}

func tierBF64x8(src *Volume[float64], lc *laneCoords, cval float64, dst []float64) {
	if lc.x.NumLanes() != 8 {
		tierBBatch[float64, float64, f64Adapter](src, lc, cval, dst)
		return
	}
	var z, y, x laneIndex
	okz, wz := splitOct(lc.z.Data(), src.depth, 0, &z)
	oky, wy := splitOct(lc.y.Data(), src.height, 0, &y)
	okx, wx := splitOct(lc.x.Data(), src.width, 0, &x)
	ok := okz & oky & okx
	if ok == 0 {
		return
	}

	var off [8][8]int64
	for k := range off {
		for l := range 8 {
			off[k][l] = int64(cornerIndex(src, &z, &y, &x, k, l))
		}
	}
	corner := func(k int) archsimd.Float64x8 {
		return hwy.GatherIndex_AVX512_F64x8(src.data, archsimd.LoadInt64x8Slice(off[k][:]))
	}

	c00 := lerpF64x8(wx, corner(0), corner(1))
	c01 := lerpF64x8(wx, corner(2), corner(3))
	c10 := lerpF64x8(wx, corner(4), corner(5))
	c11 := lerpF64x8(wx, corner(6), corner(7))
	c0 := lerpF64x8(wy, c00, c01)
	c1 := lerpF64x8(wy, c10, c11)
	v := lerpF64x8(wz, c0, c1)

	old := archsimd.LoadFloat64x8Slice(dst)
	m := archsimd.Mask64x8FromBits(uint8(ok))
	v.AsInt64x8().Merge(old.AsInt64x8(), m).AsFloat64x8().StoreSlice(dst)
}

// narrowOct converts a register of float64 fractions to float32 lanes
// base .. base+7 of w.
func narrowOct(v archsimd.Float64x8, w *[16]float32, base int) {
	var f [8]float64
	v.StoreSlice(f[:])
	for l, x := range f {
		w[base+l] = float32(x)
	}
}

func tierBF32x16(src *Volume[float32], lc *laneCoords, cval float32, dst []float32) {
	if lc.x.NumLanes() != 16 || len(src.data) > math.MaxInt32 {
		tierBBatch[float32, float32, f32Adapter](src, lc, cval, dst)
		return
	}
	cz, cy, cx := lc.z.Data(), lc.y.Data(), lc.x.Data()
	var z, y, x laneIndex
	var fz, fy, fx [16]float32
	var ok uint32
	for _, base := range [2]int{0, 8} {
		okz, wz := splitOct(cz[base:base+8], src.depth, base, &z)
		oky, wy := splitOct(cy[base:base+8], src.height, base, &y)
		okx, wx := splitOct(cx[base:base+8], src.width, base, &x)
		ok |= (okz & oky & okx) << base
		narrowOct(wz, &fz, base)
		narrowOct(wy, &fy, base)
		narrowOct(wx, &fx, base)
	}
	if ok == 0 {
		return
	}

	var off [8][16]int32
	for k := range off {
		for l := range 16 {
			off[k][l] = int32(cornerIndex(src, &z, &y, &x, k, l))
		}
	}
	corner := func(k int) archsimd.Float32x16 {
		return hwy.GatherIndex_AVX512_F32x16(src.data, archsimd.LoadInt32x16Slice(off[k][:]))
	}

	wz := archsimd.LoadFloat32x16Slice(fz[:])
	wy := archsimd.LoadFloat32x16Slice(fy[:])
	wx := archsimd.LoadFloat32x16Slice(fx[:])
	c00 := lerpF32x16(wx, corner(0), corner(1))
	c01 := lerpF32x16(wx, corner(2), corner(3))
	c10 := lerpF32x16(wx, corner(4), corner(5))
	c11 := lerpF32x16(wx, corner(6), corner(7))
	c0 := lerpF32x16(wy, c00, c01)
	c1 := lerpF32x16(wy, c10, c11)
	v := lerpF32x16(wz, c0, c1)

	old := archsimd.LoadFloat32x16Slice(dst)
	v.Merge(old, archsimd.Mask32x16FromBits(uint16(ok))).StoreSlice(dst)
}
