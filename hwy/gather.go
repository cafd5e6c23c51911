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

// GatherIndex loads src[indices[i]] into lane i. An index outside src gives
// a zero lane, so callers can park inactive lanes on any index.
func GatherIndex[T Lanes, I ~int32 | ~int64](src []T, indices Vec[I]) Vec[T] {
	r := Vec[T]{n: indices.n}
	for i := range indices.n {
		if idx := int(indices.data[i]); idx >= 0 && idx < len(src) {
			r.data[i] = src[idx]
		}
	}
	return r
}

// GatherIndexMasked is GatherIndex for the lanes where mask is true; the
// other lanes are zero and their indices are never read.
func GatherIndexMasked[T Lanes, I ~int32 | ~int64](src []T, indices Vec[I], mask Mask[T]) Vec[T] {
	r := Vec[T]{n: indices.n}
	for i := range min(indices.n, mask.n) {
		if mask.bits&(1<<i) == 0 {
			continue
		}
		if idx := int(indices.data[i]); idx >= 0 && idx < len(src) {
			r.data[i] = src[idx]
		}
	}
	return r
}
