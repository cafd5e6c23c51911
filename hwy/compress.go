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

// MaskAnd combines two masks with AND operation.
func MaskAnd[T Lanes](a, b Mask[T]) Mask[T] {
	return Mask[T]{bits: a.bits & b.bits, n: min(a.n, b.n)}
}

// MaskAs reinterprets a mask for vectors of another lane type with the same
// lane count, such as a float64 coordinate test applied to float32 values.
func MaskAs[U, T Lanes](m Mask[T]) Mask[U] {
	return Mask[U]{bits: m.bits, n: m.n}
}
