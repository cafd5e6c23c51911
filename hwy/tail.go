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

// ProcessWithTail splits [0, size) into full batches of lanes elements and
// a remainder. It calls fullFn(offset) for each full batch, in order, then
// tailFn(offset, count) once if count > 0.
//
// Example:
//
//	hwy.ProcessWithTail(len(row), lanes,
//	    func(offset int) {
//	        // Process row[offset : offset+lanes] as one batch
//	    },
//	    func(offset, count int) {
//	        // Process the last count elements one at a time
//	    },
//	)
//
// A lanes value below 2 has no batches: the whole range goes to tailFn.
func ProcessWithTail(size, lanes int, fullFn func(offset int), tailFn func(offset, count int)) {
	if size <= 0 {
		return
	}
	if lanes < 2 {
		tailFn(0, size)
		return
	}

	fullBatches := size / lanes
	for i := range fullBatches {
		fullFn(i * lanes)
	}

	if remaining := size % lanes; remaining > 0 {
		tailFn(fullBatches*lanes, remaining)
	}
}
