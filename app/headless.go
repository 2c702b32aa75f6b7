package app

import (
	"context"
	"sync"

	"github.com/gogpu/gpucontext"
)

// HeadlessHost is a Host without a window. It ticks as fast as the renderer
// allows and replays scheduled events before the tick they are due on.
// Tick numbers start at 0.
type HeadlessHost struct {
	gpucontext.NullEventSource

	mu     sync.Mutex
	width  int
	height int

	resize []func(int, int)
	press  []func(gpucontext.Key, gpucontext.Modifiers)
	close  []func()
	events map[uint64][]func(*HeadlessHost)
}

// NewHeadlessHost creates a host reporting the given size in pixels.
func NewHeadlessHost(width, height int) *HeadlessHost {
	return &HeadlessHost{
		width:  width,
		height: height,
		events: make(map[uint64][]func(*HeadlessHost)),
	}
}

var _ Host = (*HeadlessHost)(nil)

// Size returns the current size.
func (h *HeadlessHost) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// ScaleFactor returns 1.
func (h *HeadlessHost) ScaleFactor() float64 { return 1 }

// RequestRedraw does nothing; the host ticks continuously.
func (h *HeadlessHost) RequestRedraw() {}

// NativeHandles returns zero handles, requesting a headless surface.
func (h *HeadlessHost) NativeHandles() (uintptr, uintptr) { return 0, 0 }

// OnResize registers a resize callback.
func (h *HeadlessHost) OnResize(fn func(width, height int)) {
	h.mu.Lock()
	h.resize = append(h.resize, fn)
	h.mu.Unlock()
}

// OnKeyPress registers a key press callback.
func (h *HeadlessHost) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	h.mu.Lock()
	h.press = append(h.press, fn)
	h.mu.Unlock()
}

// OnClose registers a close callback.
func (h *HeadlessHost) OnClose(fn func()) {
	h.mu.Lock()
	h.close = append(h.close, fn)
	h.mu.Unlock()
}

// ScheduleResize resizes the host before tick.
func (h *HeadlessHost) ScheduleResize(tick uint64, width, height int) {
	h.schedule(tick, func(h *HeadlessHost) { h.Resize(width, height) })
}

// ScheduleKeyPress presses key before tick.
func (h *HeadlessHost) ScheduleKeyPress(tick uint64, key gpucontext.Key) {
	h.schedule(tick, func(h *HeadlessHost) { h.PressKey(key, 0) })
}

// ScheduleClose closes the host before tick.
func (h *HeadlessHost) ScheduleClose(tick uint64) {
	h.schedule(tick, func(h *HeadlessHost) { h.Close() })
}

func (h *HeadlessHost) schedule(tick uint64, fn func(*HeadlessHost)) {
	h.mu.Lock()
	h.events[tick] = append(h.events[tick], fn)
	h.mu.Unlock()
}

// Resize changes the size and notifies the resize callbacks.
func (h *HeadlessHost) Resize(width, height int) {
	h.mu.Lock()
	h.width, h.height = width, height
	fns := append([]func(int, int){}, h.resize...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(width, height)
	}
}

// PressKey notifies the key press callbacks.
func (h *HeadlessHost) PressKey(key gpucontext.Key, mods gpucontext.Modifiers) {
	h.mu.Lock()
	fns := append([]func(gpucontext.Key, gpucontext.Modifiers){}, h.press...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn(key, mods)
	}
}

// Close notifies the close callbacks.
func (h *HeadlessHost) Close() {
	h.mu.Lock()
	fns := append([]func(){}, h.close...)
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Run ticks until tick returns false or ctx is done.
func (h *HeadlessHost) Run(ctx context.Context, tick func() bool) error {
	for n := uint64(0); ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.mu.Lock()
		due := h.events[n]
		delete(h.events, n)
		h.mu.Unlock()
		for _, fn := range due {
			fn(h)
		}
		if !tick() {
			return nil
		}
	}
}
