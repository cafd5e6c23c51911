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
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/voxelkit/affiners/hwy"
)

// Backend identifies a kernel family.
type Backend int

const (
	// BackendScalar is the portable reference kernel.
	BackendScalar Backend = iota

	// BackendTierA batches 256-bit (AVX2+FMA) or 128-bit (NEON) lanes.
	BackendTierA

	// BackendTierB batches 512-bit (AVX-512F) or SVE lanes with masking.
	BackendTierB
)

// Backends lists every backend from slowest to fastest.
var Backends = []Backend{BackendScalar, BackendTierA, BackendTierB}

func (b Backend) String() string {
	switch b {
	case BackendScalar:
		return "scalar"
	case BackendTierA:
		return "tier-a"
	case BackendTierB:
		return "tier-b"
	default:
		return "unknown"
	}
}

// ParseBackend accepts a backend name as printed by String, or the
// instruction set a tier runs on ("avx2", "neon", "avx512", "sve").
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar":
		return BackendScalar, nil
	case "tier-a", "avx2", "neon":
		return BackendTierA, nil
	case "tier-b", "avx512", "sve":
		return BackendTierB, nil
	}
	return BackendScalar, fmt.Errorf("interp: unknown backend %q", s)
}

// backendEntry is one candidate in a precision's preference list.
type backendEntry struct {
	backend Backend
	level   hwy.DispatchLevel

	// priority orders candidates; higher runs first.
	priority int
}

var scalarEntry = backendEntry{backend: BackendScalar, level: hwy.DispatchScalar}

// lanes returns the batch width of the entry for precision p.
func (e backendEntry) lanes(p Precision) int {
	if e.backend == BackendScalar {
		return 1
	}
	return lanesFor(e.level, p)
}

// backendTable is the detection result: for every precision, the backends the
// host can run in descending priority. Scalar is always last.
type backendTable struct {
	features *hwy.Features
	prefs    [numPrecisions][]backendEntry
}

func newBackendTable(f *hwy.Features) *backendTable {
	t := &backendTable{features: f}

	var tierA, tierB backendEntry
	var haveA, haveB bool
	halfOK := f.HasF16C()
	switch f.Arch {
	case "amd64":
		haveA = f.AVX2 && f.FMA
		haveB = haveA && f.AVX512F
		tierA = backendEntry{backend: BackendTierA, level: hwy.DispatchAVX2, priority: 20}
		tierB = backendEntry{backend: BackendTierB, level: hwy.DispatchAVX512, priority: 30}
	case "arm64":
		haveA = f.ASIMD
		haveB = haveA && f.SVE
		tierA = backendEntry{backend: BackendTierA, level: hwy.DispatchNEON, priority: 15}
		tierB = backendEntry{backend: BackendTierB, level: hwy.DispatchSVE, priority: 25}
	}
	if f.Disabled {
		haveA, haveB = false, false
	}

	for _, p := range Precisions {
		// Half-float tiers need hardware conversion; uint8 runs on the
		// float32 lanes and has no extra requirement.
		eligible := p != Float16 || halfOK
		list := []backendEntry{scalarEntry}
		if haveA && eligible {
			list = append(list, tierA)
		}
		if haveB && eligible {
			list = append(list, tierB)
		}
		slices.SortStableFunc(list, func(a, b backendEntry) int {
			return cmp.Compare(b.priority, a.priority)
		})
		t.prefs[p] = list
	}
	return t
}

// DispatchState is the lifecycle of a Dispatcher.
type DispatchState int32

const (
	StateUninitialized DispatchState = iota
	StateDetected
	StateDispatching
)

func (s DispatchState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateDetected:
		return "detected"
	case StateDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}

// Dispatcher selects a backend for each call from the host capabilities.
//
// Capability detection runs on first use. Concurrent first callers may all
// build a table; the tables are identical and the first one published wins,
// so no lock is held on the dispatch path. Once a table is published the
// selection for a given precision and set of options never changes.
type Dispatcher struct {
	detect func() *hwy.Features
	table  atomic.Pointer[backendTable]
	state  atomic.Int32
}

// NewDispatcher returns a dispatcher that reads host capabilities with detect.
// A nil detect uses hwy.Detect.
func NewDispatcher(detect func() *hwy.Features) *Dispatcher {
	if detect == nil {
		detect = hwy.Detect
	}
	return &Dispatcher{detect: detect}
}

var defaultDispatcher = NewDispatcher(nil)

// DefaultDispatcher returns the process-wide dispatcher used when no
// WithDispatcher option is given.
func DefaultDispatcher() *Dispatcher {
	return defaultDispatcher
}

// State reports how far the dispatcher has progressed.
func (d *Dispatcher) State() DispatchState {
	return DispatchState(d.state.Load())
}

func (d *Dispatcher) load() *backendTable {
	if t := d.table.Load(); t != nil {
		return t
	}
	t := newBackendTable(d.detect())
	if !d.table.CompareAndSwap(nil, t) {
		return d.table.Load()
	}
	d.state.CompareAndSwap(int32(StateUninitialized), int32(StateDetected))

	lg := logger()
	for _, p := range Precisions {
		e := t.prefs[p][0]
		lg.Debug("interp backend selected",
			"precision", p.String(),
			"backend", e.backend.String(),
			"level", e.level.String(),
			"lanes", e.lanes(p))
	}
	return t
}

// Features returns the capabilities the dispatcher detected.
func (d *Dispatcher) Features() *hwy.Features {
	return d.load().features
}

// Preferences returns the eligible backends for p, best first.
func (d *Dispatcher) Preferences(p Precision) []Backend {
	prefs := d.load().prefs[p]
	out := make([]Backend, len(prefs))
	for i, e := range prefs {
		out[i] = e.backend
	}
	return out
}

// Selected returns the backend a ModeAuto call at precision p runs on.
func (d *Dispatcher) Selected(p Precision) Backend {
	return d.load().prefs[p][0].backend
}

// Eligible reports whether b can run precision p on this host.
func (d *Dispatcher) Eligible(p Precision, b Backend) bool {
	for _, e := range d.load().prefs[p] {
		if e.backend == b {
			return true
		}
	}
	return false
}

// resolve picks the backend for one call. It never falls back at run time:
// the entry it returns is the one the kernels execute.
func (d *Dispatcher) resolve(op string, p Precision, o *callOptions) backendEntry {
	prefs := d.load().prefs[p]
	d.state.Store(int32(StateDispatching))

	var chosen backendEntry
	switch {
	case o.mode == ModeScalarOnly:
		if o.forced && o.backend != BackendScalar {
			panic(contractErr(op, "backend", ErrBackend, "%s requested in scalar-only mode", o.backend))
		}
		return scalarEntry
	case o.forced:
		i := slices.IndexFunc(prefs, func(e backendEntry) bool { return e.backend == o.backend })
		if i < 0 {
			panic(contractErr(op, "backend", ErrBackend, "%s cannot run %s on this host", o.backend, p))
		}
		chosen = prefs[i]
	default:
		i := slices.IndexFunc(prefs, func(e backendEntry) bool { return e.backend <= o.maxBackend })
		chosen = prefs[i]
	}

	if o.mode == ModeRequireAccelerated && chosen.backend == BackendScalar {
		panic(contractErr(op, "mode", ErrBackend, "no accelerated backend for %s on this host", p))
	}
	return chosen
}

// SelectedBackend returns the backend a ModeAuto call at precision p runs on
// with the default dispatcher.
func SelectedBackend(p Precision) Backend {
	return defaultDispatcher.Selected(p)
}
