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

// PromoteU8ToF32 widens uint8 lanes to float32. The conversion is exact.
func PromoteU8ToF32(v Vec[uint8]) Vec[float32] {
	r := Vec[float32]{n: v.n}
	for i := range v.n {
		r.data[i] = float32(v.data[i])
	}
	return r
}

// DemoteF32ToU8 narrows float32 lanes to uint8: each lane is rounded half
// away from zero and saturated to [0, 255]. NaN lanes become 0.
func DemoteF32ToU8(v Vec[float32]) Vec[uint8] {
	r := Vec[uint8]{n: v.n}
	for i := range v.n {
		r.data[i] = RoundClampU8(float64(v.data[i]))
	}
	return r
}

// RoundClampU8 is the scalar form of DemoteF32ToU8.
func RoundClampU8(f float64) uint8 {
	x := math.Round(f)
	if !(x > 0) {
		return 0
	}
	if x >= 255 {
		return 255
	}
	return uint8(x)
}
