// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// Kind sentinels matched by *AcquireError.
var (
	// ErrLost reports a stale presentation target that needs reconfiguring.
	ErrLost = errors.New("surface: lost")

	// ErrOutOfMemory reports an unrecoverable allocation failure.
	ErrOutOfMemory = errors.New("surface: out of memory")

	// ErrTransient reports a failure worth retrying on the next tick.
	ErrTransient = errors.New("surface: transient acquisition failure")
)

// Protocol errors. These are returned before the surface is touched.
var (
	// ErrNotConfigured is returned by Acquire before the first Configure.
	ErrNotConfigured = errors.New("surface: not configured")

	// ErrFrameHeld is returned by Acquire while a previous frame is held.
	ErrFrameHeld = errors.New("surface: frame already acquired")

	// ErrFrameNotHeld is returned by Release for a frame the session does not hold.
	ErrFrameNotHeld = errors.New("surface: frame not acquired")
)

// ErrorKind classifies acquisition failures.
type ErrorKind int

const (
	// KindTransient is retried on the next tick without reconfiguring.
	KindTransient ErrorKind = iota

	// KindLost requires reconfiguring the target.
	KindLost

	// KindOutOfMemory is fatal.
	KindOutOfMemory
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindLost:
		return "Lost"
	case KindOutOfMemory:
		return "OutOfMemory"
	case KindTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindLost:
		return ErrLost
	case KindOutOfMemory:
		return ErrOutOfMemory
	default:
		return ErrTransient
	}
}

// AcquireError is a classified surface failure. Both the kind sentinel and
// the underlying HAL error are reachable through errors.Is.
type AcquireError struct {
	Kind ErrorKind
	Err  error
}

func (e *AcquireError) Error() string {
	if e.Err == nil {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind.sentinel(), e.Err)
}

// Unwrap returns the kind sentinel and the underlying error.
func (e *AcquireError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// Classify maps a HAL error onto an acquisition kind. A nil error yields nil.
// An error that is already classified is returned unchanged.
//
// Device loss is grouped with out-of-memory: a new device is needed and
// reconfiguring the surface cannot provide one. Outdated targets are
// transient; the resize notification that made them outdated reconfigures
// the session.
func Classify(err error) *AcquireError {
	if err == nil {
		return nil
	}
	var ae *AcquireError
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, hal.ErrSurfaceLost):
		return &AcquireError{Kind: KindLost, Err: err}
	case errors.Is(err, hal.ErrDeviceOutOfMemory), errors.Is(err, hal.ErrDeviceLost):
		return &AcquireError{Kind: KindOutOfMemory, Err: err}
	default:
		return &AcquireError{Kind: KindTransient, Err: err}
	}
}
