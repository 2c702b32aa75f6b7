// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shapes"
	"github.com/gogpu/wgpu/hal"
)

// Config holds the presentation settings applied on every Configure.
type Config struct {
	Format      gputypes.TextureFormat
	PresentMode gputypes.PresentMode
	AlphaMode   gputypes.CompositeAlphaMode
}

// DefaultConfig returns an sRGB BGRA target presented with vsync.
func DefaultConfig() Config {
	return Config{
		Format:      gputypes.TextureFormatBGRA8UnormSrgb,
		PresentMode: gputypes.PresentModeFifo,
		AlphaMode:   gputypes.CompositeAlphaModeOpaque,
	}
}

// Option configures a Session during creation.
type Option func(*Config)

// WithFormat sets the surface texture format.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(c *Config) { c.Format = f }
}

// WithPresentMode sets the presentation mode.
func WithPresentMode(m gputypes.PresentMode) Option {
	return func(c *Config) { c.PresentMode = m }
}

// WithAlphaMode sets the compositing alpha mode.
func WithAlphaMode(m gputypes.CompositeAlphaMode) Option {
	return func(c *Config) { c.AlphaMode = m }
}

// Frame is a presentable texture acquired from a Session.
// It is valid until passed to Release or Discard.
type Frame struct {
	texture hal.SurfaceTexture
	view    hal.TextureView
	width   uint32
	height  uint32

	// Suboptimal reports that the target still presents but no longer
	// matches the surface exactly.
	Suboptimal bool
}

// View returns the render target view of the frame.
func (f *Frame) View() hal.TextureView { return f.view }

// Texture returns the acquired surface texture.
func (f *Frame) Texture() hal.SurfaceTexture { return f.texture }

// Size returns the dimensions the target was configured with when the
// frame was acquired.
func (f *Frame) Size() (width, height uint32) { return f.width, f.height }

// Session owns a presentation target and at most one acquired frame.
// It is not safe for concurrent use.
type Session struct {
	surface hal.Surface
	device  hal.Device
	queue   hal.Queue
	config  Config

	width      uint32
	height     uint32
	configured bool
	// suspended is set by a zero-area Configure and cleared by the next
	// non-zero one.
	suspended bool

	frame *Frame
}

// NewSession creates a session for the surface. The device configures the
// surface and creates frame views; the queue presents frames.
// The session is unconfigured until the first Configure.
func NewSession(s hal.Surface, device hal.Device, queue hal.Queue, opts ...Option) *Session {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Session{
		surface: s,
		device:  device,
		queue:   queue,
		config:  cfg,
	}
}

// Configure (re)builds the target at the given size. A held frame is
// discarded first.
//
// A zero width or height suspends the session: the surface keeps its last
// configuration and Acquire reports a transient error until a non-zero size
// arrives. The returned error then wraps hal.ErrZeroArea.
func (s *Session) Configure(width, height uint32) error {
	if s.frame != nil {
		shapes.Logger().Debug("surface: configure discards held frame")
		s.Discard(s.frame)
	}

	if width == 0 || height == 0 {
		s.suspended = true
		shapes.Logger().Warn("surface: zero area, suspending", "width", width, "height", height)
		return fmt.Errorf("surface: configure %dx%d: %w", width, height, hal.ErrZeroArea)
	}

	err := s.surface.Configure(s.device, &hal.SurfaceConfiguration{
		Width:       width,
		Height:      height,
		Format:      s.config.Format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: s.config.PresentMode,
		AlphaMode:   s.config.AlphaMode,
	})
	if err != nil {
		return fmt.Errorf("surface: configure %dx%d: %w", width, height, err)
	}

	s.width, s.height = width, height
	s.configured = true
	s.suspended = false
	shapes.Logger().Info("surface: configured",
		"width", width, "height", height,
		"format", s.config.Format, "present", s.config.PresentMode)
	return nil
}

// Reconfigure rebuilds the target with the last configured size.
func (s *Session) Reconfigure() error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.Configure(s.width, s.height)
}

// Acquire obtains the next presentable frame.
//
// Surface failures are returned as *AcquireError. ErrNotConfigured and
// ErrFrameHeld report protocol misuse and leave the surface untouched.
func (s *Session) Acquire() (*Frame, error) {
	if s.frame != nil {
		return nil, ErrFrameHeld
	}
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if s.suspended {
		return nil, &AcquireError{Kind: KindTransient, Err: hal.ErrZeroArea}
	}

	acquired, err := s.surface.AcquireTexture(nil)
	if err != nil {
		return nil, Classify(err)
	}
	if acquired == nil || acquired.Texture == nil {
		return nil, &AcquireError{Kind: KindTransient, Err: hal.ErrNotReady}
	}

	view, err := s.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:           "surface_frame_view",
		Format:          s.config.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		s.surface.DiscardTexture(acquired.Texture)
		return nil, Classify(fmt.Errorf("create frame view: %w", err))
	}

	s.frame = &Frame{
		texture:    acquired.Texture,
		view:       view,
		width:      s.width,
		height:     s.height,
		Suboptimal: acquired.Suboptimal,
	}
	if acquired.Suboptimal {
		shapes.Logger().Debug("surface: suboptimal frame acquired")
	}
	return s.frame, nil
}

// Release presents the frame and returns the session to the idle state.
// The frame is consumed even when presenting fails; a presentation
// failure is returned classified.
func (s *Session) Release(f *Frame) error {
	if f == nil || f != s.frame {
		return ErrFrameNotHeld
	}
	s.frame = nil
	s.device.DestroyTextureView(f.view)

	if err := s.queue.Present(s.surface, f.texture, nil); err != nil {
		return Classify(fmt.Errorf("present: %w", err))
	}
	return nil
}

// Discard drops the frame without presenting it.
func (s *Session) Discard(f *Frame) {
	if f == nil || f != s.frame {
		return
	}
	s.frame = nil
	s.device.DestroyTextureView(f.view)
	s.surface.DiscardTexture(f.texture)
}

// Size returns the last configured size.
func (s *Session) Size() (width, height uint32) { return s.width, s.height }

// Configured reports whether Configure has succeeded at least once.
func (s *Session) Configured() bool { return s.configured }

// Suspended reports whether the last Configure requested a zero area.
func (s *Session) Suspended() bool { return s.suspended }

// Held reports whether a frame is currently acquired.
func (s *Session) Held() bool { return s.frame != nil }

// Format returns the configured texture format.
func (s *Session) Format() gputypes.TextureFormat { return s.config.Format }

// Surface returns the underlying HAL surface.
func (s *Session) Surface() hal.Surface { return s.surface }

// Close discards a held frame and unconfigures the surface.
// The surface itself is owned by the caller.
func (s *Session) Close() {
	if s.frame != nil {
		s.Discard(s.frame)
	}
	if s.configured {
		s.surface.Unconfigure(s.device)
		s.configured = false
	}
}

// IsZeroArea reports whether err came from a zero-sized Configure.
func IsZeroArea(err error) bool {
	return errors.Is(err, hal.ErrZeroArea)
}
