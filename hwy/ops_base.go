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

package hwy

import "math"

// This file provides the pure Go (base mode) implementations of the vector
// operations. The *_avx2.go and *_avx512.go files, built with
// GOEXPERIMENT=simd, offer register-typed versions of the hot ones.
//
// Arithmetic and comparisons use Go's operators on T. Float16 lanes are
// bit patterns to these ops: promote them to float32 before computing.

// Load creates a vector from the first min(len(src), MaxVecLanes) elements
// of src. Slice src to the lane count of the target.
func Load[T Lanes](src []T) Vec[T] {
	var v Vec[T]
	v.n = copy(v.data[:], src)
	return v
}

// Set creates an n-lane vector with every lane set to value.
func Set[T Lanes](n int, value T) Vec[T] {
	v := Vec[T]{n: clampLanes(n)}
	for i := range v.n {
		v.data[i] = value
	}
	return v
}

// Zero creates an n-lane vector of zeros.
func Zero[T Lanes](n int) Vec[T] {
	return Vec[T]{n: clampLanes(n)}
}

// Iota returns an n-lane vector with lanes set to [0, 1, 2, ...].
func Iota[T Lanes](n int) Vec[T] {
	v := Vec[T]{n: clampLanes(n)}
	for i := range v.n {
		v.data[i] = T(i)
	}
	return v
}

// GetLane returns lane idx of v.
func GetLane[T Lanes](v Vec[T], idx int) T {
	return v.data[idx]
}

// Add performs element-wise addition.
func Add[T Lanes](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = a.data[i] + b.data[i]
	}
	return r
}

// Sub performs element-wise subtraction.
func Sub[T Lanes](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = a.data[i] - b.data[i]
	}
	return r
}

// Mul performs element-wise multiplication. Each product is rounded to T
// on its own and never fused with a later Add.
func Mul[T Lanes](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = T(a.data[i] * b.data[i])
	}
	return r
}

// MulAdd computes a*b + c with a single rounding per lane. float32 lanes
// are fused in float64 and then narrowed.
func MulAdd[T Floats](a, b, c Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n, c.n)}
	for i := range r.n {
		r.data[i] = T(math.FMA(float64(a.data[i]), float64(b.data[i]), float64(c.data[i])))
	}
	return r
}

// Min returns the element-wise minimum.
func Min[T Lanes](a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(a.n, b.n)}
	for i := range r.n {
		r.data[i] = min(a.data[i], b.data[i])
	}
	return r
}

// LessThan performs element-wise a < b. NaN lanes compare false.
func LessThan[T Lanes](a, b Vec[T]) Mask[T] {
	m := Mask[T]{n: min(a.n, b.n)}
	for i := range m.n {
		if a.data[i] < b.data[i] {
			m.bits |= 1 << i
		}
	}
	return m
}

// GreaterEqual performs element-wise a >= b. NaN lanes compare false.
func GreaterEqual[T Lanes](a, b Vec[T]) Mask[T] {
	m := Mask[T]{n: min(a.n, b.n)}
	for i := range m.n {
		if a.data[i] >= b.data[i] {
			m.bits |= 1 << i
		}
	}
	return m
}

// IfThenElse selects a where mask is true and b elsewhere.
func IfThenElse[T Lanes](mask Mask[T], a, b Vec[T]) Vec[T] {
	r := Vec[T]{n: min(mask.n, a.n, b.n)}
	for i := range r.n {
		if mask.bits&(1<<i) != 0 {
			r.data[i] = a.data[i]
		} else {
			r.data[i] = b.data[i]
		}
	}
	return r
}

// IfThenElseZero returns a where mask is true, zero otherwise.
func IfThenElseZero[T Lanes](mask Mask[T], a Vec[T]) Vec[T] {
	r := Vec[T]{n: min(mask.n, a.n)}
	for i := range r.n {
		if mask.bits&(1<<i) != 0 {
			r.data[i] = a.data[i]
		}
	}
	return r
}

// MaskStore stores the lanes of v where mask is true and leaves the other
// elements of dst untouched.
func MaskStore[T Lanes](mask Mask[T], v Vec[T], dst []T) {
	n := min(len(dst), v.n, mask.n)
	for i := range n {
		if mask.bits&(1<<i) != 0 {
			dst[i] = v.data[i]
		}
	}
}

func clampLanes(n int) int {
	return max(0, min(n, MaxVecLanes))
}
