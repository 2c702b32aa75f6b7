// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gputest

import (
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Surface is a noop surface whose acquisitions can be scripted to fail.
type Surface struct {
	noop.Surface

	// AcquireErrs is consumed one entry per AcquireTexture call. A nil
	// entry, or an empty queue, acquires successfully.
	AcquireErrs []error
	// ConfigureErr, when set, is returned by every Configure call.
	ConfigureErr error
	// Suboptimal marks successful acquisitions as suboptimal.
	Suboptimal bool

	Configures   []hal.SurfaceConfiguration
	Acquires     int
	Discards     int
	Unconfigures int
}

// NewSurface returns a surface that always acquires successfully.
func NewSurface(errs ...error) *Surface {
	return &Surface{AcquireErrs: errs}
}

func (s *Surface) Configure(device hal.Device, config *hal.SurfaceConfiguration) error {
	s.Configures = append(s.Configures, *config)
	if s.ConfigureErr != nil {
		return s.ConfigureErr
	}
	return s.Surface.Configure(device, config)
}

func (s *Surface) Unconfigure(device hal.Device) {
	s.Unconfigures++
	s.Surface.Unconfigure(device)
}

func (s *Surface) AcquireTexture(fence hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	s.Acquires++
	if len(s.AcquireErrs) > 0 {
		err := s.AcquireErrs[0]
		s.AcquireErrs = s.AcquireErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	acquired, err := s.Surface.AcquireTexture(fence)
	if err != nil {
		return nil, err
	}
	acquired.Suboptimal = s.Suboptimal
	return acquired, nil
}

func (s *Surface) DiscardTexture(t hal.SurfaceTexture) {
	s.Discards++
	s.Surface.DiscardTexture(t)
}

// LastConfigure returns the most recent configuration, or the zero value.
func (s *Surface) LastConfigure() hal.SurfaceConfiguration {
	if len(s.Configures) == 0 {
		return hal.SurfaceConfiguration{}
	}
	return s.Configures[len(s.Configures)-1]
}
