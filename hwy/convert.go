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

// ConvertToInt64 converts float lanes to int64, truncating toward zero.
// For values outside the int64 range, the result is undefined.
func ConvertToInt64[T Floats](v Vec[T]) Vec[int64] {
	r := Vec[int64]{n: v.n}
	for i := range v.n {
		r.data[i] = int64(v.data[i])
	}
	return r
}

// ConvertFloat converts between float lane types with Go's conversion
// rounding (round to nearest even when narrowing).
//
//	w := hwy.ConvertFloat[float32](fraction) // Vec[float64] -> Vec[float32]
func ConvertFloat[D, S Floats](v Vec[S]) Vec[D] {
	r := Vec[D]{n: v.n}
	for i := range v.n {
		r.data[i] = D(v.data[i])
	}
	return r
}

// Floor rounds each lane down (toward negative infinity). NaN stays NaN.
func Floor[T Floats](v Vec[T]) Vec[T] {
	r := Vec[T]{n: v.n}
	for i := range v.n {
		r.data[i] = T(math.Floor(float64(v.data[i])))
	}
	return r
}
