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

import "testing"

func TestProcessWithTail(t *testing.T) {
	tests := []struct {
		size, lanes int
		full        []int
		tail        [2]int
	}{
		{size: 20, lanes: 8, full: []int{0, 8}, tail: [2]int{16, 4}},
		{size: 16, lanes: 8, full: []int{0, 8}},
		{size: 5, lanes: 8, tail: [2]int{0, 5}},
		{size: 7, lanes: 1, tail: [2]int{0, 7}},
		{size: 0, lanes: 4},
	}
	for _, tt := range tests {
		var full []int
		var tail [2]int
		ProcessWithTail(tt.size, tt.lanes,
			func(offset int) { full = append(full, offset) },
			func(offset, count int) { tail = [2]int{offset, count} })
		if len(full) != len(tt.full) {
			t.Errorf("size=%d lanes=%d: full batches %v, want %v", tt.size, tt.lanes, full, tt.full)
			continue
		}
		for i := range full {
			if full[i] != tt.full[i] {
				t.Errorf("size=%d lanes=%d: full batches %v, want %v", tt.size, tt.lanes, full, tt.full)
				break
			}
		}
		if tail != tt.tail {
			t.Errorf("size=%d lanes=%d: tail %v, want %v", tt.size, tt.lanes, tail, tt.tail)
		}
	}
}
