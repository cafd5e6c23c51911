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

import "github.com/voxelkit/affiners/hwy"

// coordSource yields the source coordinates of output voxels. The affine
// and warp resamplers differ only in their coordSource; every backend uses
// the same one, so bounds decisions agree across backends.
type coordSource interface {
	// coords writes the source coordinates of output voxels
	// ox0 .. ox0+n-1 of row (oz, oy) into lc.
	coords(oz, oy, ox0, n int, lc *laneCoords)
}

// batchKernel resamples one full lane batch into dst.
type batchKernel[T Storage] func(src *Volume[T], lc *laneCoords, cval T, dst []T)

// planeCall is the per-plane part of a plan: which kernel runs and how wide
// its batches are.
type planeCall struct {
	op         string
	backend    Backend
	lanes      int
	scalarOnly bool
}

// resamplePlane fills output plane oz of dst, which holds cval on entry.
// Tier backends take full lane batches and leave the row remainder to the
// scalar kernel.
func (k *kernelSet[T]) resamplePlane(src, dst *Volume[T], cs coordSource, cval T, oz int, pc planeCall) {
	var batch batchKernel[T]
	lanes := pc.lanes
	switch pc.backend {
	case BackendTierA, BackendTierB:
		if pc.scalarOnly {
			panic(contractErr(pc.op, "mode", ErrBackend, "%s kernel entered in scalar-only mode", pc.backend))
		}
		batch = k.tierA
		if pc.backend == BackendTierB {
			batch = k.tierB
		}
	default:
		lanes = 1
	}

	var lc laneCoords
	for oy := range dst.height {
		row := dst.Row(oz, oy)
		hwy.ProcessWithTail(len(row), lanes,
			func(ox int) {
				cs.coords(oz, oy, ox, lanes, &lc)
				batch(src, &lc, cval, row[ox:ox+lanes])
			},
			func(ox, count int) {
				for ; count > 0; ox, count = ox+1, count-1 {
					cs.coords(oz, oy, ox, 1, &lc)
					row[ox] = k.point(src, hwy.GetLane(lc.z, 0), hwy.GetLane(lc.y, 0), hwy.GetLane(lc.x, 0), cval)
				}
			})
	}
}

// kernelSet binds the generic kernels to one storage type. Architecture
// files may replace the tier batches with register-typed versions in init.
type kernelSet[T Storage] struct {
	point        func(src *Volume[T], z, y, x float64, cval T) T
	tierA, tierB batchKernel[T]
}

var (
	f32Kernels = &kernelSet[float32]{
		point: sampleScalar[float32, float32, f32Adapter],
		tierA: tierABatch[float32, float32, f32Adapter],
		tierB: tierBBatch[float32, float32, f32Adapter],
	}
	f64Kernels = &kernelSet[float64]{
		point: sampleScalar[float64, float64, f64Adapter],
		tierA: tierABatch[float64, float64, f64Adapter],
		tierB: tierBBatch[float64, float64, f64Adapter],
	}
	f16Kernels = &kernelSet[hwy.Float16]{
		point: sampleScalar[hwy.Float16, float32, f16Adapter],
		tierA: tierABatch[hwy.Float16, float32, f16Adapter],
		tierB: tierBBatch[hwy.Float16, float32, f16Adapter],
	}
	u8Kernels = &kernelSet[uint8]{
		point: sampleScalar[uint8, float32, u8Adapter],
		tierA: tierABatch[uint8, float32, u8Adapter],
		tierB: tierBBatch[uint8, float32, u8Adapter],
	}
)

func kernelsFor[T Storage]() *kernelSet[T] {
	var k any
	switch PrecisionOf[T]() {
	case Float32:
		k = f32Kernels
	case Float64:
		k = f64Kernels
	case Float16:
		k = f16Kernels
	default:
		k = u8Kernels
	}
	return k.(*kernelSet[T])
}
