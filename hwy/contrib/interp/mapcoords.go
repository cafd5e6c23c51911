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

// pointBatch is the number of points a worker claims at a time.
const pointBatch = 4096

// MapCoordinates samples in at arbitrary source positions. Point i is
// (zs[i], ys[i], xs[i]); positions outside the volume yield cval. The three
// sequences must have equal length.
//
// Scattered points have no row structure to batch, so every point runs
// the scalar kernel; the backend options of opts are ignored, the execution
// options apply.
func MapCoordinates[T Storage](in *Volume[T], zs, ys, xs []float64, cval T, opts ...Option) []T {
	const op = "MapCoordinates"
	checkCoordinates(op, zs, ys, xs)
	out := make([]T, len(zs))
	mapCoordinates(op, in, zs, ys, xs, out, cval, opts)
	return out
}

// MapCoordinatesInto is MapCoordinates writing into out, which must have
// the same length as the coordinate sequences.
func MapCoordinatesInto[T Storage](in *Volume[T], zs, ys, xs []float64, out []T, cval T, opts ...Option) {
	const op = "MapCoordinatesInto"
	checkCoordinates(op, zs, ys, xs)
	if len(out) != len(zs) {
		panic(contractErr(op, "output", ErrLength, "len %d for %d points", len(out), len(zs)))
	}
	mapCoordinates(op, in, zs, ys, xs, out, cval, opts)
}

func checkCoordinates(op string, zs, ys, xs []float64) {
	if len(zs) != len(ys) || len(zs) != len(xs) {
		panic(contractErr(op, "coordinates", ErrLength,
			"len(z)=%d len(y)=%d len(x)=%d", len(zs), len(ys), len(xs)))
	}
}

func mapCoordinates[T Storage](op string, in *Volume[T], zs, ys, xs []float64, out []T, cval T, opts []Option) {
	mustHaveVolume(op, "input", in)
	o := newCallOptions(op, opts)
	point := kernelsFor[T]().point
	o.executor().ForBatches(len(out), pointBatch, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = point(in, zs[i], ys[i], xs[i], cval)
		}
	})
}
