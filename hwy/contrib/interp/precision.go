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
	"github.com/voxelkit/affiners/hwy"
)

// Storage is the set of element types a Volume can hold.
type Storage interface {
	float32 | float64 | hwy.Float16 | uint8
}

// arith is the set of types interpolation arithmetic runs in.
type arith interface {
	float32 | float64
}

// Precision identifies a storage type at run time.
type Precision int

const (
	Float32 Precision = iota
	Float64
	Float16
	Uint8

	numPrecisions
)

// Precisions lists every supported storage precision.
var Precisions = []Precision{Float32, Float64, Float16, Uint8}

func (p Precision) String() string {
	switch p {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// Size returns the storage size of one element in bytes.
func (p Precision) Size() int {
	switch p {
	case Float64:
		return 8
	case Float32:
		return 4
	case Float16:
		return 2
	default:
		return 1
	}
}

// arithSize returns the size of the type the precision interpolates in.
func (p Precision) arithSize() int {
	if p == Float64 {
		return 8
	}
	return 4
}

// PrecisionOf returns the Precision of storage type T.
func PrecisionOf[T Storage]() Precision {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case hwy.Float16:
		return Float16
	default:
		return Uint8
	}
}

// CvalFromFloat64 converts a fill value given as a float into storage type
// T, with the same rounding the kernels apply to their results.
func CvalFromFloat64[T Storage](v float64) T {
	var out any
	switch PrecisionOf[T]() {
	case Float32:
		out = float32(v)
	case Float64:
		out = v
	case Float16:
		out = hwy.NewFloat16FromFloat64(v)
	default:
		out = hwy.RoundClampU8(v)
	}
	return out.(T)
}

// adapter converts between a storage type T and the arithmetic type A, one
// value at a time for the scalar kernel and a lane batch at a time for the
// tiers. Implementations are empty structs so kernels can name them as type
// parameters and call them through a zero value.
type adapter[T Storage, A arith] interface {
	load(v T) A
	store(v A) T
	loadLanes(v hwy.Vec[T]) hwy.Vec[A]
	storeLanes(v hwy.Vec[A]) hwy.Vec[T]
}

type f32Adapter struct{}

func (f32Adapter) load(v float32) float32  { return v }
func (f32Adapter) store(v float32) float32 { return v }

func (f32Adapter) loadLanes(v hwy.Vec[float32]) hwy.Vec[float32]  { return v }
func (f32Adapter) storeLanes(v hwy.Vec[float32]) hwy.Vec[float32] { return v }

type f64Adapter struct{}

func (f64Adapter) load(v float64) float64  { return v }
func (f64Adapter) store(v float64) float64 { return v }

func (f64Adapter) loadLanes(v hwy.Vec[float64]) hwy.Vec[float64]  { return v }
func (f64Adapter) storeLanes(v hwy.Vec[float64]) hwy.Vec[float64] { return v }

type f16Adapter struct{}

func (f16Adapter) load(v hwy.Float16) float32  { return hwy.Float16ToFloat32(v) }
func (f16Adapter) store(v float32) hwy.Float16 { return hwy.Float32ToFloat16(v) }

func (f16Adapter) loadLanes(v hwy.Vec[hwy.Float16]) hwy.Vec[float32]  { return hwy.PromoteF16ToF32(v) }
func (f16Adapter) storeLanes(v hwy.Vec[float32]) hwy.Vec[hwy.Float16] { return hwy.DemoteF32ToF16(v) }

type u8Adapter struct{}

func (u8Adapter) load(v uint8) float32  { return float32(v) }
func (u8Adapter) store(v float32) uint8 { return hwy.RoundClampU8(float64(v)) }

func (u8Adapter) loadLanes(v hwy.Vec[uint8]) hwy.Vec[float32]  { return hwy.PromoteU8ToF32(v) }
func (u8Adapter) storeLanes(v hwy.Vec[float32]) hwy.Vec[uint8] { return hwy.DemoteF32ToU8(v) }
