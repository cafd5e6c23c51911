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

import (
	"math"
	"math/rand"
	"testing"

	"github.com/voxelkit/affiners/hwy"
)

// fakeDispatcher returns a dispatcher that sees f instead of the host. The
// tier batches are portable Go unless the host itself has the instructions
// for a register-typed body, so every backend can run in tests.
func fakeDispatcher(f hwy.Features) *Dispatcher {
	return NewDispatcher(func() *hwy.Features { return &f })
}

var (
	x86Full = hwy.Features{
		Arch: "amd64", AVX: true, AVX2: true, FMA: true, F16C: true, AVX512F: true,
		Level: hwy.DispatchAVX512,
	}
	arm64Full = hwy.Features{
		Arch: "arm64", ASIMD: true, ASIMDHP: true, SVE: true,
		Level: hwy.DispatchSVE,
	}
)

// sentinel is a fill value no interpolated test value can reach: test
// volumes hold values in [0, 200].
const sentinel = 250

func asFloat64[T Storage](v T) float64 {
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

func randomVolume[T Storage](rng *rand.Rand, d, h, w int) *Volume[T] {
	vol := NewVolume[T](d, h, w)
	for i := range vol.data {
		vol.data[i] = CvalFromFloat64[T](rng.Float64() * 200)
	}
	return vol
}

// rampVolume holds 100*z + 10*y + x at every voxel, reduced to fit uint8.
func rampVolume[T Storage](d, h, w int) *Volume[T] {
	vol := NewVolume[T](d, h, w)
	for z := range d {
		for y := range h {
			for x := range w {
				vol.Set(z, y, x, CvalFromFloat64[T](float64((100*z+10*y+x)%200)))
			}
		}
	}
	return vol
}

// f16ULP returns the spacing of half floats around v.
func f16ULP(v float64) float64 {
	v = math.Abs(v)
	if v < math.Ldexp(1, -14) {
		return math.Ldexp(1, -24)
	}
	_, exp := math.Frexp(v)
	return math.Ldexp(1, exp-11)
}

// agrees reports whether an accelerated result matches the scalar one to
// within the rounding of the storage type.
func agrees[T Storage](got, want T) bool {
	g, w := asFloat64(got), asFloat64(want)
	diff := math.Abs(g - w)
	switch PrecisionOf[T]() {
	case Float16:
		return diff <= f16ULP(math.Max(math.Abs(g), math.Abs(w)))
	case Uint8:
		return diff <= 1
	default:
		return diff <= 1e-5*math.Max(1, math.Abs(w))
	}
}

// compareVolumes checks got against the scalar reference want: identical
// fill positions and values within tolerance.
func compareVolumes[T Storage](t *testing.T, label string, got, want *Volume[T], cval T) {
	t.Helper()
	if !SameShape(got, want) {
		t.Fatalf("%s: shape mismatch", label)
	}
	bad := 0
	for i := range want.data {
		g, w := got.data[i], want.data[i]
		if (g == cval) != (w == cval) || !agrees(g, w) {
			if bad < 5 {
				_, h, wd := want.Shape()
				t.Errorf("%s: voxel (%d, %d, %d) = %v, scalar %v", label,
					i/(h*wd), i/wd%h, i%wd, asFloat64(g), asFloat64(w))
			}
			bad++
		}
	}
	if bad > 0 {
		t.Errorf("%s: %d of %d voxels differ", label, bad, len(want.data))
	}
}

func expectPanic(t *testing.T, target error, fn func()) *ContractError {
	t.Helper()
	var ce *ContractError
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatalf("expected panic wrapping %v", target)
			}
			var ok bool
			ce, ok = r.(*ContractError)
			if !ok {
				t.Fatalf("panic value %T (%v), want *ContractError", r, r)
			}
		}()
		fn()
	}()
	if target != nil && ce.Err != target {
		t.Errorf("panic error = %v, want %v", ce.Err, target)
	}
	return ce
}
