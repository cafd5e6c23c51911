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

package hwy

import (
	"simd/archsimd"
)

// AVX-512 gathers, through memory like the AVX2 ones.

// GatherIndex_AVX512_F32x16 gathers float32 elements using int32 indices.
func GatherIndex_AVX512_F32x16(src []float32, indices archsimd.Int32x16) archsimd.Float32x16 {
	var idx [16]int32
	indices.StoreSlice(idx[:])
	var result [16]float32
	for i, j := range idx {
		if j >= 0 && int(j) < len(src) {
			result[i] = src[j]
		}
	}
	return archsimd.LoadFloat32x16Slice(result[:])
}

// GatherIndex_AVX512_F64x8 gathers float64 elements using int64 indices.
func GatherIndex_AVX512_F64x8(src []float64, indices archsimd.Int64x8) archsimd.Float64x8 {
	var idx [8]int64
	indices.StoreSlice(idx[:])
	var result [8]float64
	for i, j := range idx {
		if j >= 0 && j < int64(len(src)) {
			result[i] = src[j]
		}
	}
	return archsimd.LoadFloat64x8Slice(result[:])
}
