// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gputest provides recording HAL wrappers over the noop backend
// for tests that need to observe what the renderer sends to the GPU.
//
// The Recorder wraps a noop device and queue. Every render pass recorded
// through the wrapped device is captured (load op, pipeline label, buffers,
// draws) and attached to the submission that carries it.
//
// Buffer contents are modeled the way backends with host-visible memory
// behave: WriteBuffer lands in the buffer at once, while copies recorded in
// a command buffer land when that command buffer executes. A submission's
// buffer snapshot is taken at execution. Execution happens inside Submit,
// or at Flush when Deferred is set.
package gputest

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// NewNoopDevice opens a device on the noop backend. Resources are released
// when the test finishes.
func NewNoopDevice(t testing.TB) (hal.Device, hal.Queue) {
	t.Helper()

	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("no noop adapters available")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// DrawIndexed records one indexed draw call.
type DrawIndexed struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
}

// Pass records one render pass.
type Pass struct {
	Label      string
	LoadOp     gputypes.LoadOp
	StoreOp    gputypes.StoreOp
	ClearValue gputypes.Color
	// Target is the color attachment view.
	Target hal.TextureView

	Pipeline     string
	BindGroups   int
	VertexBuffer string
	IndexBuffer  string
	IndexFormat  gputypes.IndexFormat
	Draws        []DrawIndexed
	Ended        bool
}

// IndexCount returns the total number of indices drawn by the pass.
func (p *Pass) IndexCount() uint32 {
	var n uint32
	for _, d := range p.Draws {
		n += d.IndexCount
	}
	return n
}

// Copy records one CopyBufferToBuffer call.
type Copy struct {
	SrcLabel, DstLabel string
	// Src and Dst identify the buffers; buffers may share a label.
	Src, Dst hal.Buffer
	Regions  []hal.BufferCopy
}

// Submission is one executed Queue.Submit call.
type Submission struct {
	Index  uint64
	Copies []Copy
	Passes []*Pass
	// Buffers holds the contents of every buffer, by label, once the
	// submission's copies have executed.
	Buffers map[string][]byte
}

// Write is one Queue.WriteBuffer call.
type Write struct {
	Label  string
	Offset uint64
	Data   []byte
	// Seq is the number of submissions that happened before the write.
	Seq int
}

// Recorder wraps a noop device and queue and records their use.
// It is not safe for concurrent use.
type Recorder struct {
	Device *Device
	Queue  *Queue

	Submissions []Submission
	Writes      []Write
	Presents    int

	// Pipelines lists the labels of created render pipelines in order.
	Pipelines []string
	// Encoders counts created command encoders; Freed counts command
	// buffers returned through FreeCommandBuffer.
	Encoders int
	Freed    int

	// SubmitErr, when set, is returned by the next Submit.
	SubmitErr error
	// WriteErr, when set, is returned by the next WriteBuffer.
	WriteErr error
	// PresentErr, when set, is returned by the next Present.
	PresentErr error

	// Deferred holds submitted work until Flush, as a GPU running behind
	// the CPU would. PollCompleted then reports only flushed submissions.
	Deferred bool

	memory   map[*Buffer][]byte
	pending  []Submission
	executed uint64
}

// New creates a recorder over a fresh noop device.
func New(t testing.TB) *Recorder {
	t.Helper()
	device, queue := NewNoopDevice(t)
	r := &Recorder{memory: make(map[*Buffer][]byte)}
	r.Device = &Device{Device: device, rec: r}
	r.Queue = &Queue{Queue: queue, rec: r}
	return r
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.Submissions = nil
	r.Writes = nil
	r.Presents = 0
	r.Encoders = 0
	r.Freed = 0
}

// Flush executes every deferred submission in order.
func (r *Recorder) Flush() {
	pending := r.pending
	r.pending = nil
	for _, s := range pending {
		r.execute(s)
	}
}

// Pending returns the number of deferred submissions not yet executed.
func (r *Recorder) Pending() int { return len(r.pending) }

// Contents returns the current contents of the buffer.
func (r *Recorder) Contents(b hal.Buffer) []byte {
	wb, ok := b.(*Buffer)
	if !ok {
		return nil
	}
	return append([]byte(nil), r.memory[wb]...)
}

func (r *Recorder) execute(s Submission) {
	for _, c := range s.Copies {
		src, _ := c.Src.(*Buffer)
		dst, _ := c.Dst.(*Buffer)
		if src == nil || dst == nil {
			continue
		}
		for _, reg := range c.Regions {
			r.store(dst, reg.DstOffset, r.load(src, reg.SrcOffset, reg.Size))
		}
	}
	s.Buffers = make(map[string][]byte, len(r.memory))
	for b, data := range r.memory {
		s.Buffers[b.Label] = append([]byte(nil), data...)
	}
	r.Submissions = append(r.Submissions, s)
	r.executed = s.Index
}

func (r *Recorder) load(b *Buffer, offset, size uint64) []byte {
	out := make([]byte, size)
	if mem := r.memory[b]; offset < uint64(len(mem)) {
		copy(out, mem[offset:])
	}
	return out
}

func (r *Recorder) store(b *Buffer, offset uint64, data []byte) {
	cur := r.memory[b]
	if need := int(offset) + len(data); len(cur) < need {
		grown := make([]byte, need)
		copy(grown, cur)
		cur = grown
	}
	copy(cur[offset:], data)
	r.memory[b] = cur
}

// Passes returns every submitted pass in submission order.
func (r *Recorder) Passes() []*Pass {
	var out []*Pass
	for _, s := range r.Submissions {
		out = append(out, s.Passes...)
	}
	return out
}
