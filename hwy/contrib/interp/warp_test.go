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
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/voxelkit/affiners/hwy"
)

func TestUpsampleCorners(t *testing.T) {
	f := NewDisplacementField(4, 2, 2, 2)
	for c := range 4 {
		for i := range 8 {
			f.Set(c, i>>2, i>>1&1, i&1, float32(i+1)*float32(c+1))
		}
	}

	up := UpsampleField2x(f)
	if c, d, h, w := up.Shape(); c != 4 || d != 4 || h != 4 || w != 4 {
		t.Fatalf("Shape() = (%d, %d, %d, %d), want (4, 4, 4, 4)", c, d, h, w)
	}
	for c := range 4 {
		for i := range 8 {
			z, y, x := 3*(i>>2), 3*(i>>1&1), 3*(i&1)
			want := float32(i+1) * float32(c+1)
			if got := up.At(c, z, y, x); got != want {
				t.Errorf("channel %d corner (%d, %d, %d) = %v, want %v", c, z, y, x, got, want)
			}
		}
	}

	// Output index 1 sits a third of the way along each axis. The field is
	// linear in its index, so the interpolated value is exact up to rounding.
	want := 1 + float32(4+2+1)/3
	if got := up.At(0, 1, 1, 1); math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("up(0, 1, 1, 1) = %v, want %v", got, want)
	}
}

func TestUpsampleSequentialMatchesParallel(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	f := randomField(rng, 3, 5, 4, 6, 2)
	seq := UpsampleField2x(f, WithSequential())
	par := UpsampleField2x(f)
	for i := range seq.data {
		if seq.data[i] != par.data[i] {
			t.Fatalf("element %d differs: %v vs %v", i, seq.data[i], par.data[i])
		}
	}
}

func TestDisplacementFieldContracts(t *testing.T) {
	ce := expectPanic(t, ErrChannels, func() { NewDisplacementField(2, 4, 4, 4) })
	if ce.Arg != "channels" {
		t.Errorf("Arg = %q, want channels", ce.Arg)
	}
	expectPanic(t, ErrShape, func() { NewDisplacementField(3, 4, 0, 4) })

	if _, err := DisplacementFieldFromSlice(make([]float32, 23), 3, 2, 2, 2); !errors.Is(err, ErrLength) {
		t.Errorf("short slice: err = %v, want ErrLength", err)
	}
	data := make([]float32, 24)
	f, err := DisplacementFieldFromSlice(data, 3, 2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	f.Set(2, 1, 1, 1, 5)
	if data[23] != 5 || f.Channel(2)[7] != 5 {
		t.Error("field does not share the caller's slice")
	}

	vol := NewVolume[float32](2, 2, 2)
	expectPanic(t, ErrChannels, func() { ApplyWarp(vol, nil, 0, false) })
	expectPanic(t, ErrChannels, func() { UpsampleField2x(nil) })
}

func TestFieldSampleClamps(t *testing.T) {
	f := NewDisplacementField(3, 2, 2, 2)
	for i := range 8 {
		f.Set(2, i>>2, i>>1&1, i&1, float32(i&1))
	}
	for _, tt := range []struct{ x, want float64 }{
		{-5, 0}, {-0.5, 0}, {0, 0}, {0.25, 0.25}, {1, 1}, {1.5, 1}, {math.NaN(), 0},
	} {
		if _, _, dx := f.sample(0.5, 0.5, tt.x); dx != tt.want {
			t.Errorf("sample x=%v: dx = %v, want %v", tt.x, dx, tt.want)
		}
	}
}

func randomField(rng *rand.Rand, channels, d, h, w int, amp float64) *DisplacementField {
	f := NewDisplacementField(channels, d, h, w)
	for i := range f.data {
		f.data[i] = float32((rng.Float64()*2 - 1) * amp)
	}
	return f
}

func constantField(d, h, w int, dz, dy, dx float32) *DisplacementField {
	f := NewDisplacementField(3, d, h, w)
	for i, v := range []float32{dz, dy, dx} {
		ch := f.Channel(i)
		for j := range ch {
			ch[j] = v
		}
	}
	return f
}

func testWarpZeroField[T Storage](t *testing.T) {
	vol := rampVolume[T](4, 6, 21)
	forEachBackend(t, func(t *testing.T, opts []Option) {
		for _, fs := range [][3]int{{2, 3, 5}, {4, 6, 21}, {9, 9, 9}} {
			out := ApplyWarp(vol, NewDisplacementField(3, fs[0], fs[1], fs[2]), CvalFromFloat64[T](sentinel), false, opts...)
			for i := range vol.data {
				if out.data[i] != vol.data[i] {
					t.Fatalf("field %v: voxel %d = %v, want %v", fs, i, asFloat64(out.data[i]), asFloat64(vol.data[i]))
				}
			}
		}
	})
}

func TestWarpZeroFieldIsIdentity(t *testing.T) {
	t.Run("float32", testWarpZeroField[float32])
	t.Run("float64", testWarpZeroField[float64])
	t.Run("float16", testWarpZeroField[hwy.Float16])
	t.Run("uint8", testWarpZeroField[uint8])
}

func TestWarpConstantShift(t *testing.T) {
	const d, h, w = 3, 4, 20
	vol := rampVolume[float32](d, h, w)
	// src = o - d, so a displacement of -1 along x reads one voxel ahead.
	// A single-voxel field interpolates to exactly its value.
	field := constantField(1, 1, 1, 0, 1, -1)
	forEachBackend(t, func(t *testing.T, opts []Option) {
		out := ApplyWarp(vol, field, sentinel, false, opts...)
		for z := range d {
			for y := range h {
				for x := range w {
					want := float32(sentinel)
					if y-1 >= 0 && x+1 < w {
						want = vol.At(z, y-1, x+1)
					}
					if got := out.At(z, y, x); got != want {
						t.Fatalf("(%d, %d, %d) = %v, want %v", z, y, x, got, want)
					}
				}
			}
		}
	})
}

func TestWarpSnapsNearZero(t *testing.T) {
	vol := rampVolume[float64](2, 2, 17)
	// The first column lands a hair below zero and is kept.
	field := constantField(1, 1, 1, 0, 0, 1e-6)
	forEachBackend(t, func(t *testing.T, opts []Option) {
		out := ApplyWarp(vol, field, sentinel, false, opts...)
		for z := range 2 {
			for y := range 2 {
				if got, want := out.At(z, y, 0), vol.At(z, y, 0); got != want {
					t.Errorf("(%d, %d, 0) = %v, want %v", z, y, got, want)
				}
			}
		}
	})

	// Beyond the snap distance the column is outside.
	field = constantField(1, 1, 1, 0, 0, 1e-3)
	out := ApplyWarp(vol, field, sentinel, false)
	if got := out.At(0, 0, 0); got != sentinel {
		t.Errorf("(0, 0, 0) = %v, want fill", got)
	}
	for _, tt := range []struct{ in, want float64 }{
		{-1e-6, 0}, {-1e-5, -1e-5}, {0, 0}, {-0.5, -0.5}, {0.25, 0.25},
	} {
		if got := snapNearZero(tt.in); got != tt.want {
			t.Errorf("snapNearZero(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWarpUpsampleFlag(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	vol := randomVolume[float32](rng, 8, 10, 12)
	field := randomField(rng, 3, 4, 5, 6, 1.5)

	got := ApplyWarp(vol, field, sentinel, true)
	want := ApplyWarp(vol, UpsampleField2x(field), sentinel, false)
	for i := range want.data {
		if got.data[i] != want.data[i] {
			t.Fatalf("voxel %d: upsample flag %v, pre-upsampled %v", i, got.data[i], want.data[i])
		}
	}
}

func testWarpAgreement[T Storage](t *testing.T, d *Dispatcher) {
	rng := rand.New(rand.NewSource(9))
	cval := CvalFromFloat64[T](sentinel)
	vol := randomVolume[T](rng, 7, 9, 23)
	for _, fs := range [][3]int{{3, 4, 6}, {7, 9, 23}, {12, 14, 30}} {
		for _, upsample := range []bool{false, true} {
			field := randomField(rng, 3, fs[0], fs[1], fs[2], 2.5)
			want := ApplyWarp(vol, field, cval, upsample, WithDispatcher(d), WithBackend(BackendScalar))
			for _, b := range []Backend{BackendTierA, BackendTierB} {
				got := ApplyWarp(vol, field, cval, upsample, WithDispatcher(d), WithBackend(b))
				compareVolumes(t, fmt.Sprintf("field %v upsample %v %s", fs, upsample, b), got, want, cval)
			}
		}
	}
}

func TestWarpBackendsAgree(t *testing.T) {
	for _, f := range []hwy.Features{x86Full, arm64Full} {
		d := fakeDispatcher(f)
		t.Run(f.Arch, func(t *testing.T) {
			t.Run("float32", func(t *testing.T) { testWarpAgreement[float32](t, d) })
			t.Run("float64", func(t *testing.T) { testWarpAgreement[float64](t, d) })
			t.Run("float16", func(t *testing.T) { testWarpAgreement[hwy.Float16](t, d) })
			t.Run("uint8", func(t *testing.T) { testWarpAgreement[uint8](t, d) })
		})
	}
}

func TestApplyWarpInto(t *testing.T) {
	vol := rampVolume[uint8](3, 3, 3)
	field := constantField(3, 3, 3, 0, 0, 0)
	out := NewVolume[uint8](3, 3, 3)
	ApplyWarpInto(vol, field, out, 0, false)
	for i := range vol.data {
		if out.data[i] != vol.data[i] {
			t.Fatalf("voxel %d = %d, want %d", i, out.data[i], vol.data[i])
		}
	}

	expectPanic(t, ErrLength, func() {
		ApplyWarpInto(vol, field, NewVolume[uint8](3, 3, 4), 0, false)
	})
	expectPanic(t, ErrAliasing, func() {
		ApplyWarpInto(vol, field, vol, 0, false)
	})
}

func BenchmarkApplyWarp(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	vol := randomVolume[float32](rng, 64, 64, 64)
	field := randomField(rng, 3, 32, 32, 32, 2)
	for b.Loop() {
		ApplyWarp(vol, field, 0, true)
	}
}
