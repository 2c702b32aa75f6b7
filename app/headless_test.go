package app

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
)

func TestHeadlessHostEvents(t *testing.T) {
	h := NewHeadlessHost(320, 200)
	var (
		sizes  [][2]int
		keys   []gpucontext.Key
		closed int
		ticks  int
	)
	h.OnResize(func(w, hh int) { sizes = append(sizes, [2]int{w, hh}) })
	h.OnKeyPress(func(k gpucontext.Key, _ gpucontext.Modifiers) { keys = append(keys, k) })
	h.OnClose(func() { closed++ })

	h.ScheduleResize(1, 640, 400)
	h.ScheduleKeyPress(2, gpucontext.KeyA)
	h.ScheduleClose(3)

	err := h.Run(context.Background(), func() bool {
		ticks++
		return closed == 0
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ticks != 4 {
		t.Errorf("ticks = %d, want 4", ticks)
	}
	if len(sizes) != 1 || sizes[0] != [2]int{640, 400} {
		t.Errorf("resizes = %v", sizes)
	}
	if w, hh := h.Size(); w != 640 || hh != 400 {
		t.Errorf("Size = %dx%d", w, hh)
	}
	if len(keys) != 1 || keys[0] != gpucontext.KeyA {
		t.Errorf("keys = %v", keys)
	}
}

func TestHeadlessHostContext(t *testing.T) {
	h := NewHeadlessHost(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := h.Run(ctx, func() bool { called = true; return true })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if called {
		t.Error("tick called after cancellation")
	}
}

func TestHeadlessHostWindowProvider(t *testing.T) {
	var wp gpucontext.WindowProvider = NewHeadlessHost(10, 20)
	if wp.ScaleFactor() != 1 {
		t.Errorf("ScaleFactor = %v", wp.ScaleFactor())
	}
	if w, h := physicalSize(wp); w != 10 || h != 20 {
		t.Errorf("physicalSize = %dx%d", w, h)
	}
}
