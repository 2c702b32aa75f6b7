package app

import (
	"context"

	"github.com/gogpu/gpucontext"
)

// Host is the windowing collaborator. It reports the window size, delivers
// input and resize events, supplies the native handles a surface is created
// from, and drives the refresh tick.
//
// Callbacks registered through the EventSource methods and OnClose are
// invoked on the goroutine running Run, between ticks.
type Host interface {
	gpucontext.WindowProvider
	gpucontext.EventSource

	// NativeHandles returns the display and window handles for surface
	// creation. A zero window requests a headless surface.
	NativeHandles() (display, window uintptr)

	// OnClose registers the close notification.
	OnClose(func())

	// Run calls tick once per refresh until tick returns false, the
	// window closes or ctx is done.
	Run(ctx context.Context, tick func() bool) error
}

// physicalSize converts the logical size of wp to pixels.
func physicalSize(wp gpucontext.WindowProvider) (uint32, uint32) {
	w, h := wp.Size()
	sf := wp.ScaleFactor()
	return toPixels(w, sf), toPixels(h, sf)
}

func toPixels(v int, scale float64) uint32 {
	if v <= 0 {
		return 0
	}
	if scale <= 0 {
		scale = 1
	}
	return uint32(float64(v)*scale + 0.5)
}
