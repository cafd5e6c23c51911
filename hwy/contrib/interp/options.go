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
	"fmt"
	"strings"
	"sync"

	"github.com/voxelkit/affiners/hwy/contrib/workerpool"
)

// ExecMode controls which backends a call may run on.
type ExecMode int

const (
	// ModeAuto runs on the best eligible backend.
	ModeAuto ExecMode = iota

	// ModeScalarOnly runs the scalar kernel. Entering an accelerated kernel
	// in this mode is a contract violation and panics.
	ModeScalarOnly

	// ModeRequireAccelerated panics instead of running a call on the scalar
	// kernel, for callers that treat a silent slow path as a failure.
	ModeRequireAccelerated
)

func (m ExecMode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeScalarOnly:
		return "scalar-only"
	case ModeRequireAccelerated:
		return "require-accelerated"
	default:
		return "unknown"
	}
}

// ParseExecMode parses the names printed by ExecMode.String.
func ParseExecMode(s string) (ExecMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "scalar-only", "scalar":
		return ModeScalarOnly, nil
	case "require-accelerated", "accelerated":
		return ModeRequireAccelerated, nil
	}
	return ModeAuto, fmt.Errorf("interp: unknown execution mode %q", s)
}

// Option configures a single resampling call.
type Option func(*callOptions)

type callOptions struct {
	mode       ExecMode
	backend    Backend
	forced     bool
	maxBackend Backend
	pool       *workerpool.Pool
	sequential bool
	order      int
	dispatcher *Dispatcher
}

// WithMode sets the execution mode.
func WithMode(m ExecMode) Option {
	return func(o *callOptions) { o.mode = m }
}

// WithBackend forces a backend. The call panics if the backend cannot run
// the precision on this host.
func WithBackend(b Backend) Option {
	return func(o *callOptions) {
		o.backend = b
		o.forced = true
	}
}

// WithMaxBackend caps automatic selection at b.
func WithMaxBackend(b Backend) Option {
	return func(o *callOptions) { o.maxBackend = max(b, BackendScalar) }
}

// WithPool runs the call's planes on p instead of the shared pool.
func WithPool(p *workerpool.Pool) Option {
	return func(o *callOptions) { o.pool = p }
}

// WithSequential runs every plane on the calling goroutine, in order.
func WithSequential() Option {
	return func(o *callOptions) { o.sequential = true }
}

// WithOrder sets the interpolation order. Only 1 is accepted; anything else
// panics with ErrOrder.
func WithOrder(order int) Option {
	return func(o *callOptions) { o.order = order }
}

// WithDispatcher selects backends with d instead of the default dispatcher.
func WithDispatcher(d *Dispatcher) Option {
	return func(o *callOptions) { o.dispatcher = d }
}

func newCallOptions(op string, opts []Option) *callOptions {
	o := &callOptions{
		maxBackend: BackendTierB,
		order:      1,
		dispatcher: defaultDispatcher,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.order != 1 {
		panic(contractErr(op, "order", ErrOrder, "got %d", o.order))
	}
	return o
}

var (
	sharedPoolOnce sync.Once
	sharedPool     *workerpool.Pool
	sequentialPool = workerpool.Sequential()
)

// SharedPool returns the process-wide worker pool, creating it on first use
// with one worker per GOMAXPROCS.
func SharedPool() *workerpool.Pool {
	sharedPoolOnce.Do(func() {
		sharedPool = workerpool.New(0)
	})
	return sharedPool
}

func (o *callOptions) executor() *workerpool.Pool {
	switch {
	case o.sequential:
		return sequentialPool
	case o.pool != nil:
		return o.pool
	default:
		return SharedPool()
	}
}

// plan is a call bound to a backend and an executor.
type plan struct {
	op    string
	mode  ExecMode
	entry backendEntry
	lanes int
	pool  *workerpool.Pool
}

func (o *callOptions) plan(op string, p Precision) *plan {
	e := o.dispatcher.resolve(op, p, o)
	return &plan{
		op:    op,
		mode:  o.mode,
		entry: e,
		lanes: e.lanes(p),
		pool:  o.executor(),
	}
}

// run calls fn once per output plane. Planes write disjoint memory, so the
// result does not depend on how the pool schedules them.
func (pl *plan) run(planes int, fn func(z int, pc planeCall)) {
	pc := planeCall{
		op:         pl.op,
		backend:    pl.entry.backend,
		lanes:      pl.lanes,
		scalarOnly: pl.mode == ModeScalarOnly,
	}
	pl.pool.ForEach(planes, func(z int) {
		fn(z, pc)
	})
}
