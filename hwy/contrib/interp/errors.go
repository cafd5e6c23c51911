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
	"unsafe"
)

// Errors wrapped by ContractError.
var (
	ErrShape    = errors.New("dimensions must be positive")
	ErrLength   = errors.New("buffer length does not match shape")
	ErrAliasing = errors.New("input and output share memory")
	ErrOrder    = errors.New("only order 1 (trilinear) is supported")
	ErrChannels = errors.New("displacement field needs at least 3 channels")
	ErrBackend  = errors.New("backend not available")
	ErrMatrix   = errors.New("matrix must be 4x4 homogeneous")
)

// ContractError reports a caller contract violation: the operation, the
// offending argument and the broken invariant. Resampling operations panic
// with a *ContractError; the Validate helpers return one.
type ContractError struct {
	Op     string
	Arg    string
	Err    error
	Detail string
}

func (e *ContractError) Error() string {
	msg := fmt.Sprintf("interp: %s: argument %q: %v", e.Op, e.Arg, e.Err)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ContractError) Unwrap() error { return e.Err }

func contractErr(op, arg string, err error, format string, args ...any) *ContractError {
	return &ContractError{Op: op, Arg: arg, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// ValidateShape checks that all three dimensions are positive.
func ValidateShape(d, h, w int) error {
	return checkShape("ValidateShape", "shape", d, h, w)
}

func checkShape(op, arg string, d, h, w int) error {
	if d <= 0 || h <= 0 || w <= 0 {
		return contractErr(op, arg, ErrShape, "got (%d, %d, %d)", d, h, w)
	}
	return nil
}

// ValidateOrder checks the interpolation order. Only 1 is implemented.
func ValidateOrder(order int) error {
	if order != 1 {
		return contractErr("ValidateOrder", "order", ErrOrder, "got %d", order)
	}
	return nil
}

// ValidateCoordinates checks that the three coordinate sequences of a
// point-sampling request have equal length.
func ValidateCoordinates(zs, ys, xs []float64) error {
	if len(zs) != len(ys) || len(zs) != len(xs) {
		return contractErr("ValidateCoordinates", "coordinates", ErrLength,
			"len(z)=%d len(y)=%d len(x)=%d", len(zs), len(ys), len(xs))
	}
	return nil
}

func mustNotAlias[T any](op string, in, out []T) {
	if overlaps(in, out) {
		panic(contractErr(op, "output", ErrAliasing, "output buffer overlaps the input volume"))
	}
}

func overlaps[T any](a, b []T) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	size := unsafe.Sizeof(a[0])
	pa := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	pb := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return pa < pb+uintptr(len(b))*size && pb < pa+uintptr(len(a))*size
}
