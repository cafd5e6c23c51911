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
	"math"
	"simd/archsimd"
	"testing"
)

func TestFloor_AVX2_F64x4(t *testing.T) {
	if !Detect().AVX2 {
		t.Skip("AVX2 not available")
	}
	in := []float64{-1.5, 2.75, math.NaN(), -0.0}
	var got [4]float64
	Floor_AVX2_F64x4(archsimd.LoadFloat64x4Slice(in)).Store(&got)
	want := []float64{-2, 2, math.NaN(), 0}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("lane %d: got %v, want NaN", i, got[i])
			}
			continue
		}
		if got[i] != want[i] {
			t.Errorf("lane %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGatherIndex_AVX2(t *testing.T) {
	if !Detect().AVX2 {
		t.Skip("AVX2 not available")
	}
	f32 := []float32{10, 20, 30, 40, 50}
	var got32 [8]float32
	idx32 := archsimd.LoadInt32x8Slice([]int32{4, 3, 2, 1, 0, -1, 5, 2})
	GatherIndex_AVX2_F32x8(f32, idx32).Store(&got32)
	want32 := [8]float32{50, 40, 30, 20, 10, 0, 0, 30}
	if got32 != want32 {
		t.Errorf("GatherIndex_AVX2_F32x8 = %v, want %v", got32, want32)
	}

	f64 := []float64{1.5, 2.5, 3.5}
	var got64 [4]float64
	idx64 := archsimd.LoadInt64x4Slice([]int64{2, 0, 1 << 40, 1})
	GatherIndex_AVX2_F64x4(f64, idx64).Store(&got64)
	want64 := [4]float64{3.5, 1.5, 0, 2.5}
	if got64 != want64 {
		t.Errorf("GatherIndex_AVX2_F64x4 = %v, want %v", got64, want64)
	}
}

func TestFloorGather_AVX512(t *testing.T) {
	if !Detect().AVX512F {
		t.Skip("AVX-512 not available")
	}
	var fl [8]float64
	Floor_AVX512_F64x8(archsimd.LoadFloat64x8Slice([]float64{0.5, -0.5, 7, 7.9, -8.1, 1e20, 3, 2})).StoreSlice(fl[:])
	wantFl := [8]float64{0, -1, 7, 7, -9, 1e20, 3, 2}
	if fl != wantFl {
		t.Errorf("Floor_AVX512_F64x8 = %v, want %v", fl, wantFl)
	}

	src := make([]float32, 20)
	for i := range src {
		src[i] = float32(i * i)
	}
	idx := make([]int32, 16)
	for i := range idx {
		idx[i] = int32(19 - i)
	}
	idx[3] = 20
	var got [16]float32
	GatherIndex_AVX512_F32x16(src, archsimd.LoadInt32x16Slice(idx)).StoreSlice(got[:])
	for i := range got {
		want := float32(0)
		if i != 3 {
			want = src[19-i]
		}
		if got[i] != want {
			t.Errorf("GatherIndex_AVX512_F32x16 lane %d: got %v, want %v", i, got[i], want)
		}
	}

	var got64 [8]float64
	GatherIndex_AVX512_F64x8([]float64{1, 2, 3}, archsimd.LoadInt64x8Slice([]int64{0, 1, 2, 3, -1, 2, 1, 0})).StoreSlice(got64[:])
	want64 := [8]float64{1, 2, 3, 0, 0, 3, 2, 1}
	if got64 != want64 {
		t.Errorf("GatherIndex_AVX512_F64x8 = %v, want %v", got64, want64)
	}
}
