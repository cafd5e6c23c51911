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

package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/voxelkit/affiners/hwy"
	"github.com/voxelkit/affiners/hwy/contrib/interp"
)

// selfTestResult is the outcome of one precision on one backend.
type selfTestResult struct {
	Precision interp.Precision
	Backend   interp.Backend
	Voxels    int
	Mismatch  int
	MaxDiff   float64
}

func (r selfTestResult) OK() bool { return r.Mismatch == 0 }

func (r selfTestResult) String() string {
	status := "ok"
	if !r.OK() {
		status = "FAIL"
	}
	return fmt.Sprintf("%-8s %-7s %-4s voxels=%d mismatches=%d maxdiff=%.3g",
		r.Precision, r.Backend, status, r.Voxels, r.Mismatch, r.MaxDiff)
}

// runSelfTest resamples a random volume through a rotation and a warp on
// every backend d can run, and compares each against the scalar result.
func runSelfTest(d *interp.Dispatcher, size int, opts []interp.Option) []selfTestResult {
	size = max(size, 2)
	var results []selfTestResult
	results = append(results, selfTestPrecision[float32](d, size, opts)...)
	results = append(results, selfTestPrecision[float64](d, size, opts)...)
	results = append(results, selfTestPrecision[hwy.Float16](d, size, opts)...)
	results = append(results, selfTestPrecision[uint8](d, size, opts)...)
	return results
}

func selfTestPrecision[T interp.Storage](d *interp.Dispatcher, size int, opts []interp.Option) []selfTestResult {
	rng := rand.New(rand.NewSource(1))
	p := interp.PrecisionOf[T]()
	vol := interp.NewVolume[T](size, size, size+3)
	data := vol.Data()
	for i := range data {
		data[i] = interp.CvalFromFloat64[T](rng.Float64() * 200)
	}

	c := float64(size) / 2
	a := interp.RotateZ(0.35).Compose(interp.RotateX(-0.2))
	sz, sy, sx := a.Apply(c, c, c)
	a = a.WithShift(c-sz+0.3, c-sy-0.7, c-sx+1.1)

	field := interp.NewDisplacementField(3, size/2+1, size/2+1, size/2+2)
	fd := field.Data()
	for i := range fd {
		fd[i] = float32(rng.Float64()*4 - 2)
	}

	cval := interp.CvalFromFloat64[T](250)
	// Every backend is forced in turn, so a configured mode is overridden.
	with := func(b interp.Backend) []interp.Option {
		return append(append([]interp.Option{}, opts...),
			interp.WithDispatcher(d), interp.WithMode(interp.ModeAuto), interp.WithBackend(b))
	}
	refAffine := interp.AffineTransform(vol, a, cval, with(interp.BackendScalar)...)
	refWarp := interp.ApplyWarp(vol, field, cval, true, with(interp.BackendScalar)...)

	var results []selfTestResult
	for _, b := range d.Preferences(p) {
		if b == interp.BackendScalar {
			continue
		}
		r := selfTestResult{Precision: p, Backend: b}
		compareInto(&r, interp.AffineTransform(vol, a, cval, with(b)...).Data(), refAffine.Data(), cval)
		compareInto(&r, interp.ApplyWarp(vol, field, cval, true, with(b)...).Data(), refWarp.Data(), cval)
		results = append(results, r)
	}
	return results
}

// compareInto accumulates the disagreement between got and the scalar
// reference want: a fill value on one side only, or a difference beyond
// the rounding of the storage type.
func compareInto[T interp.Storage](r *selfTestResult, got, want []T, cval T) {
	for i := range want {
		r.Voxels++
		if (got[i] == cval) != (want[i] == cval) {
			r.Mismatch++
			continue
		}
		g, w := toFloat64(got[i]), toFloat64(want[i])
		diff := math.Abs(g - w)
		r.MaxDiff = max(r.MaxDiff, diff)
		if diff > tolerance(r.Precision, w) {
			r.Mismatch++
		}
	}
}

func tolerance(p interp.Precision, v float64) float64 {
	switch p {
	case interp.Float16:
		// One half-float ulp at the magnitude of v.
		_, exp := math.Frexp(math.Max(math.Abs(v), math.Ldexp(1, -14)))
		return math.Ldexp(1, exp-11)
	case interp.Uint8:
		return 1
	default:
		return 1e-5 * math.Max(1, math.Abs(v))
	}
}

func toFloat64[T interp.Storage](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	case hwy.Float16:
		return x.Float64()
	case uint8:
		return float64(x)
	}
	return math.NaN()
}
