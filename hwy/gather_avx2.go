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

// AVX2 gathers. The hardware VGATHERDPS/VGATHERQPD forms are not exposed by
// archsimd, so lanes go through memory. Indices outside src give zero
// lanes, as in GatherIndex.

// GatherIndex_AVX2_F32x8 gathers float32 elements using int32 indices.
func GatherIndex_AVX2_F32x8(src []float32, indices archsimd.Int32x8) archsimd.Float32x8 {
	var idx [8]int32
	indices.Store(&idx)
	var result [8]float32
	for i, j := range idx {
		if j >= 0 && int(j) < len(src) {
			result[i] = src[j]
		}
	}
	return archsimd.LoadFloat32x8Slice(result[:])
}

// GatherIndex_AVX2_F64x4 gathers float64 elements using int64 indices.
func GatherIndex_AVX2_F64x4(src []float64, indices archsimd.Int64x4) archsimd.Float64x4 {
	var idx [4]int64
	indices.Store(&idx)
	var result [4]float64
	for i, j := range idx {
		if j >= 0 && j < int64(len(src)) {
			result[i] = src[j]
		}
	}
	return archsimd.LoadFloat64x4Slice(result[:])
}
