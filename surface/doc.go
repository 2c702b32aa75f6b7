// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface owns a presentation target and the single frame that may
// be acquired from it at a time.
//
// A Session wraps a hal.Surface together with the device that configures it
// and the queue that presents it. It tracks the last configured size so a
// lost target can be rebuilt without the caller remembering dimensions.
//
// # Acquisition Errors
//
// Every failure reported by the underlying surface is classified into one
// of three kinds, returned as *AcquireError:
//
//   - KindLost: the target is stale; call Reconfigure and retry next tick
//   - KindOutOfMemory: unrecoverable; the caller should terminate
//   - KindTransient: timeout, outdated, not ready; skip this tick
//
// Callers match kinds with errors.Is:
//
//	frame, err := s.Acquire()
//	switch {
//	case errors.Is(err, surface.ErrLost):
//	    _ = s.Reconfigure()
//	case errors.Is(err, surface.ErrOutOfMemory):
//	    return err
//	case err != nil:
//	    // transient, try again next tick
//	}
//
// # Frame Lifecycle
//
// At most one Frame is held at a time. Acquire while a frame is held and
// Release of a frame that is not held both return a protocol error without
// touching the surface. Configure discards a held frame.
package surface
