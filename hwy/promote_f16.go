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

// Float16 vector conversions. Promotion (Float16 -> float32) is exact;
// demotion rounds to nearest even and overflows to infinity.
//
// Both run over the whole lane batch through the bulk converters, the way
// VCVTPH2PS/VCVTPS2PH and FCVTL/FCVTN convert a register at a time.

// PromoteF16ToF32 widens Float16 lanes to float32.
func PromoteF16ToF32(v Vec[Float16]) Vec[float32] {
	r := Vec[float32]{n: v.n}
	Float16sToFloat32s(r.data[:r.n], v.data[:v.n])
	return r
}

// DemoteF32ToF16 narrows float32 lanes to Float16.
func DemoteF32ToF16(v Vec[float32]) Vec[Float16] {
	r := Vec[Float16]{n: v.n}
	Float32sToFloat16s(r.data[:r.n], v.data[:v.n])
	return r
}
