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
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/voxelkit/affiners/hwy"
	"github.com/voxelkit/affiners/hwy/contrib/workerpool"
)

func TestPreferences(t *testing.T) {
	tests := []struct {
		name     string
		features hwy.Features
		want     map[Precision][]Backend
	}{
		{
			name:     "x86-avx512",
			features: x86Full,
			want: map[Precision][]Backend{
				Float32: {BackendTierB, BackendTierA, BackendScalar},
				Float64: {BackendTierB, BackendTierA, BackendScalar},
				Float16: {BackendTierB, BackendTierA, BackendScalar},
				Uint8:   {BackendTierB, BackendTierA, BackendScalar},
			},
		},
		{
			name:     "x86-avx2-no-f16c",
			features: hwy.Features{Arch: "amd64", AVX2: true, FMA: true},
			want: map[Precision][]Backend{
				Float32: {BackendTierA, BackendScalar},
				Float64: {BackendTierA, BackendScalar},
				Float16: {BackendScalar},
				Uint8:   {BackendTierA, BackendScalar},
			},
		},
		{
			name:     "x86-avx2-without-fma",
			features: hwy.Features{Arch: "amd64", AVX2: true, AVX512F: true},
			want: map[Precision][]Backend{
				Float32: {BackendScalar},
				Float64: {BackendScalar},
				Float16: {BackendScalar},
				Uint8:   {BackendScalar},
			},
		},
		{
			name:     "arm64-neon",
			features: hwy.Features{Arch: "arm64", ASIMD: true},
			want: map[Precision][]Backend{
				Float32: {BackendTierA, BackendScalar},
				Float64: {BackendTierA, BackendScalar},
				Float16: {BackendScalar},
				Uint8:   {BackendTierA, BackendScalar},
			},
		},
		{
			name:     "arm64-sve",
			features: arm64Full,
			want: map[Precision][]Backend{
				Float32: {BackendTierB, BackendTierA, BackendScalar},
				Float64: {BackendTierB, BackendTierA, BackendScalar},
				Float16: {BackendTierB, BackendTierA, BackendScalar},
				Uint8:   {BackendTierB, BackendTierA, BackendScalar},
			},
		},
		{
			name:     "disabled",
			features: hwy.Features{Arch: "amd64", AVX2: true, FMA: true, F16C: true, Disabled: true},
			want: map[Precision][]Backend{
				Float32: {BackendScalar},
				Float64: {BackendScalar},
				Float16: {BackendScalar},
				Uint8:   {BackendScalar},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := fakeDispatcher(tt.features)
			for _, p := range Precisions {
				got := d.Preferences(p)
				if !slices.Equal(got, tt.want[p]) {
					t.Errorf("Preferences(%s) = %v, want %v", p, got, tt.want[p])
				}
				if !d.Eligible(p, BackendScalar) || d.Eligible(p, BackendTierB) != slices.Contains(tt.want[p], BackendTierB) {
					t.Errorf("Eligible(%s) disagrees with Preferences %v", p, got)
				}
				if d.Selected(p) != tt.want[p][0] {
					t.Errorf("Selected(%s) = %v, want %v", p, d.Selected(p), tt.want[p][0])
				}
			}
		})
	}
}

func TestLanes(t *testing.T) {
	tests := []struct {
		features hwy.Features
		backend  Backend
		p        Precision
		want     int
	}{
		{x86Full, BackendTierA, Float32, 8},
		{x86Full, BackendTierA, Float64, 4},
		{x86Full, BackendTierA, Uint8, 8},
		{x86Full, BackendTierB, Float32, 16},
		{x86Full, BackendTierB, Float64, 8},
		{x86Full, BackendTierB, Float16, 16},
		{arm64Full, BackendTierA, Float32, 4},
		{arm64Full, BackendTierA, Float64, 2},
		{arm64Full, BackendTierB, Float32, 8},
		{x86Full, BackendScalar, Float32, 1},
	}
	for _, tt := range tests {
		d := fakeDispatcher(tt.features)
		o := newCallOptions("test", []Option{WithBackend(tt.backend), WithDispatcher(d)})
		pl := o.plan("test", tt.p)
		if pl.lanes != tt.want {
			t.Errorf("%s %s %s: lanes = %d, want %d", tt.features.Arch, tt.backend, tt.p, pl.lanes, tt.want)
		}
	}
}

func TestDispatcherStates(t *testing.T) {
	d := fakeDispatcher(x86Full)
	if d.State() != StateUninitialized {
		t.Fatalf("new dispatcher state = %v, want uninitialized", d.State())
	}
	d.Selected(Float32)
	if d.State() != StateDetected {
		t.Fatalf("state after query = %v, want detected", d.State())
	}
	vol := rampVolume[float32](2, 3, 4)
	AffineTransform(vol, Identity(), 0, WithDispatcher(d))
	if d.State() != StateDispatching {
		t.Fatalf("state after call = %v, want dispatching", d.State())
	}
}

func TestDispatcherConcurrentFirstUse(t *testing.T) {
	var detections atomic.Int32
	d := NewDispatcher(func() *hwy.Features {
		detections.Add(1)
		f := x86Full
		return &f
	})

	const goroutines = 16
	got := make([]*hwy.Features, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			got[i] = d.Features()
		}()
	}
	wg.Wait()

	if detections.Load() == 0 {
		t.Fatal("detection never ran")
	}
	for i := range goroutines {
		if got[i] != got[0] {
			t.Fatalf("goroutine %d saw a different detection result", i)
		}
	}
	// Later queries reuse the published table.
	n := detections.Load()
	d.Selected(Float64)
	if detections.Load() != n {
		t.Error("detection ran again after the table was published")
	}
}

func TestScalarOnlyMode(t *testing.T) {
	d := fakeDispatcher(x86Full)
	vol := rampVolume[float32](3, 4, 40)

	out := AffineTransform(vol, Translation(0.25, 0.5, 0.75), 0,
		WithDispatcher(d), WithMode(ModeScalarOnly))
	ref := AffineTransform(vol, Translation(0.25, 0.5, 0.75), 0,
		WithDispatcher(d), WithBackend(BackendScalar))
	for i := range ref.data {
		if out.data[i] != ref.data[i] {
			t.Fatalf("scalar-only result differs from scalar backend at %d", i)
		}
	}

	t.Run("ForcedTier", func(t *testing.T) {
		ce := expectPanic(t, ErrBackend, func() {
			AffineTransform(vol, Identity(), 0, WithDispatcher(d),
				WithMode(ModeScalarOnly), WithBackend(BackendTierA))
		})
		if ce.Arg != "backend" {
			t.Errorf("Arg = %q, want backend", ce.Arg)
		}
	})

	t.Run("KernelEntryGuard", func(t *testing.T) {
		src := rampVolume[float32](1, 2, 16)
		dst := NewVolume[float32](1, 2, 16)
		fillPlane(dst, 0, -7)
		cs := &affineCoords{geo: newMapping(Identity())}
		for _, b := range []Backend{BackendTierA, BackendTierB} {
			pc := planeCall{op: "test", backend: b, lanes: 8, scalarOnly: true}
			ce := expectPanic(t, ErrBackend, func() {
				f32Kernels.resamplePlane(src, dst, cs, -7, 0, pc)
			})
			if ce.Arg != "mode" {
				t.Errorf("%v: Arg = %q, want mode", b, ce.Arg)
			}
		}
		for i, v := range dst.data {
			if v != -7 {
				t.Fatalf("dst[%d] = %v: accelerated kernel wrote in scalar-only mode", i, v)
			}
		}

		// The plan hands the mode to the kernel, whatever entry it holds.
		pl := &plan{
			op:    "test",
			mode:  ModeScalarOnly,
			entry: backendEntry{backend: BackendTierB, level: hwy.DispatchAVX512},
			lanes: 16,
			pool:  workerpool.Sequential(),
		}
		expectPanic(t, ErrBackend, func() {
			pl.run(1, func(z int, pc planeCall) {
				f32Kernels.resamplePlane(src, dst, cs, -7, z, pc)
			})
		})

		// Scalar entries are unaffected.
		pc := planeCall{op: "test", backend: BackendScalar, lanes: 1, scalarOnly: true}
		f32Kernels.resamplePlane(src, dst, cs, -7, 0, pc)
		for i, v := range dst.data {
			if v != src.data[i] {
				t.Fatalf("scalar identity dst[%d] = %v, want %v", i, v, src.data[i])
			}
		}
	})
}

func TestRequireAccelerated(t *testing.T) {
	vol := rampVolume[float32](2, 2, 2)

	scalarHost := fakeDispatcher(hwy.Features{Arch: "amd64"})
	expectPanic(t, ErrBackend, func() {
		AffineTransform(vol, Identity(), 0, WithDispatcher(scalarHost), WithMode(ModeRequireAccelerated))
	})

	// Half floats have no tier without F16C even when float32 does.
	noF16C := fakeDispatcher(hwy.Features{Arch: "amd64", AVX2: true, FMA: true})
	AffineTransform(vol, Identity(), 0, WithDispatcher(noF16C), WithMode(ModeRequireAccelerated))
	half := rampVolume[hwy.Float16](2, 2, 2)
	expectPanic(t, ErrBackend, func() {
		AffineTransform(half, Identity(), 0, WithDispatcher(noF16C), WithMode(ModeRequireAccelerated))
	})
}

func TestForcedBackendNotEligible(t *testing.T) {
	d := fakeDispatcher(hwy.Features{Arch: "arm64", ASIMD: true})
	vol := rampVolume[uint8](2, 2, 2)
	ce := expectPanic(t, ErrBackend, func() {
		AffineTransform(vol, Identity(), 0, WithDispatcher(d), WithBackend(BackendTierB))
	})
	if !errors.Is(ce, ErrBackend) {
		t.Errorf("errors.Is(%v, ErrBackend) = false", ce)
	}
}

func TestMaxBackend(t *testing.T) {
	d := fakeDispatcher(x86Full)
	for _, tt := range []struct {
		max  Backend
		want Backend
	}{
		{BackendTierB, BackendTierB},
		{BackendTierA, BackendTierA},
		{BackendScalar, BackendScalar},
	} {
		o := newCallOptions("test", []Option{WithDispatcher(d), WithMaxBackend(tt.max)})
		if got := o.plan("test", Float32).entry.backend; got != tt.want {
			t.Errorf("WithMaxBackend(%v) selected %v, want %v", tt.max, got, tt.want)
		}
	}
}

func TestParseBackendAndMode(t *testing.T) {
	for in, want := range map[string]Backend{
		"scalar": BackendScalar, "tier-a": BackendTierA, "AVX2": BackendTierA,
		"neon": BackendTierA, "tier-b": BackendTierB, "avx512": BackendTierB, " sve ": BackendTierB,
	} {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Errorf("ParseBackend(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseBackend("gpu"); err == nil {
		t.Error("ParseBackend(gpu) should fail")
	}

	for in, want := range map[string]ExecMode{
		"": ModeAuto, "auto": ModeAuto, "scalar-only": ModeScalarOnly,
		"require-accelerated": ModeRequireAccelerated,
	} {
		got, err := ParseExecMode(in)
		if err != nil || got != want {
			t.Errorf("ParseExecMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseExecMode("fast"); err == nil {
		t.Error("ParseExecMode(fast) should fail")
	}
}

// randomAffine returns a rotation, anisotropic scale and shift around the
// centre of a volume, so that most but not all output voxels map inside.
func randomAffine(rng *rand.Rand, d, h, w int) Affine {
	rot := RotateZ(rng.Float64() - 0.5).Compose(RotateY(rng.Float64() - 0.5)).Compose(RotateX(rng.Float64() - 0.5))
	scl := Scale(0.8+0.4*rng.Float64(), 0.8+0.4*rng.Float64(), 0.8+0.4*rng.Float64())
	a := rot.Compose(scl)
	cz, cy, cx := float64(d)/2, float64(h)/2, float64(w)/2
	sz, sy, sx := a.Apply(cz, cy, cx)
	return a.WithShift(cz-sz+rng.Float64()*4-2, cy-sy+rng.Float64()*4-2, cx-sx+rng.Float64()*4-2)
}

func testAffineAgreement[T Storage](t *testing.T, d *Dispatcher) {
	rng := rand.New(rand.NewSource(7))
	cval := CvalFromFloat64[T](sentinel)
	// Widths that are not multiples of any lane count exercise remainders.
	shapes := [][3]int{{9, 13, 21}, {5, 7, 37}, {3, 3, 3}}
	for _, shape := range shapes {
		vol := randomVolume[T](rng, shape[0], shape[1], shape[2])
		for trial := range 4 {
			a := randomAffine(rng, shape[0], shape[1], shape[2])
			want := AffineTransform(vol, a, cval, WithDispatcher(d), WithBackend(BackendScalar))
			for _, b := range []Backend{BackendTierA, BackendTierB} {
				got := AffineTransform(vol, a, cval, WithDispatcher(d), WithBackend(b))
				compareVolumes(t, fmt.Sprintf("%v %v trial %d %s", shape, PrecisionOf[T](), trial, b), got, want, cval)
			}
		}

		// Output larger than the input, shifted half a voxel: many lanes
		// straddle the upper boundary.
		a := Translation(0.5, 0.5, 0.5)
		want := AffineTransformShape(vol, a, shape[0]+2, shape[1]+2, shape[2]+5, cval,
			WithDispatcher(d), WithBackend(BackendScalar))
		for _, b := range []Backend{BackendTierA, BackendTierB} {
			got := AffineTransformShape(vol, a, shape[0]+2, shape[1]+2, shape[2]+5, cval,
				WithDispatcher(d), WithBackend(b))
			compareVolumes(t, fmt.Sprintf("%v %v boundary %s", shape, PrecisionOf[T](), b), got, want, cval)
		}
	}
}

func TestAffineBackendsAgree(t *testing.T) {
	for _, f := range []hwy.Features{x86Full, arm64Full} {
		d := fakeDispatcher(f)
		t.Run(f.Arch, func(t *testing.T) {
			t.Run("float32", func(t *testing.T) { testAffineAgreement[float32](t, d) })
			t.Run("float64", func(t *testing.T) { testAffineAgreement[float64](t, d) })
			t.Run("float16", func(t *testing.T) { testAffineAgreement[hwy.Float16](t, d) })
			t.Run("uint8", func(t *testing.T) { testAffineAgreement[uint8](t, d) })
		})
	}
}

func TestSequentialMatchesParallel(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	vol := randomVolume[float32](rng, 16, 17, 19)
	a := randomAffine(rng, 16, 17, 19)
	pool := workerpool.New(4)
	defer pool.Close()

	for _, b := range []Backend{BackendScalar, BackendTierA, BackendTierB} {
		d := fakeDispatcher(x86Full)
		seq := AffineTransform(vol, a, 0, WithDispatcher(d), WithBackend(b), WithSequential())
		par := AffineTransform(vol, a, 0, WithDispatcher(d), WithBackend(b), WithPool(pool))
		for i := range seq.data {
			if seq.data[i] != par.data[i] {
				t.Fatalf("%s: sequential and parallel differ at %d: %v vs %v", b, i, seq.data[i], par.data[i])
			}
		}
	}
}

func BenchmarkAffineTransform(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	vol := randomVolume[float32](rng, 64, 64, 64)
	a := randomAffine(rng, 64, 64, 64)
	d := fakeDispatcher(x86Full)
	for _, backend := range []Backend{BackendScalar, BackendTierA, BackendTierB} {
		b.Run(backend.String(), func(b *testing.B) {
			for b.Loop() {
				AffineTransform(vol, a, 0, WithDispatcher(d), WithBackend(backend))
			}
		})
	}
}
