package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shapes"
	"github.com/gogpu/wgpu/hal"
)

// Uniform buffer layout, matching the Uniforms struct in quad.wgsl:
//
//	offset  0: model        mat4x4<f32>  (column-major)
//	offset 64: aspect_ratio f32
//	offset 80: fill         vec4<f32>
const (
	uniformModelOffset  = 0
	uniformAspectOffset = 64
	uniformFillOffset   = 80

	// UniformSize is the size of the uniform buffer, rounded up to the
	// 16-byte struct alignment.
	UniformSize = 96
)

// Buffer labels, used by debug tooling and tests.
const (
	uniformBufferLabel = "transform_uniform"
	stagingBufferLabel = "transform_staging"
)

// Uniforms is the CPU copy of the per-draw uniform block.
type Uniforms struct {
	Model       shapes.Matrix4
	AspectRatio float32
	Fill        [4]float32
}

// Bytes encodes u in the uniform buffer layout.
func (u *Uniforms) Bytes() []byte {
	buf := make([]byte, UniformSize)
	for i, v := range u.Model {
		binary.LittleEndian.PutUint32(buf[uniformModelOffset+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[uniformAspectOffset:], math.Float32bits(u.AspectRatio))
	for i, v := range u.Fill {
		binary.LittleEndian.PutUint32(buf[uniformFillOffset+i*4:], math.Float32bits(v))
	}
	return buf
}

// TransformUniform owns the uniform buffer shared by every draw and the
// bind group layout every pipeline is built against.
//
// The uniform buffer is never written from the CPU. Each shape's block is
// staged in a buffer of its own and copied into the uniform buffer by the
// shape's command buffer, so the copy executes in submission order and
// work already queued keeps reading its own transform. Staging buffers are
// pooled and reused once their submission has completed.
type TransformUniform struct {
	device hal.Device
	queue  hal.Queue

	buffer    hal.Buffer
	layout    hal.BindGroupLayout
	bindGroup hal.BindGroup

	free    []hal.Buffer
	staging int

	current Uniforms
}

// NewTransformUniform creates the uniform buffer, its layout and bind group.
// The aspect ratio starts at 1.
func NewTransformUniform(device hal.Device, queue hal.Queue) (*TransformUniform, error) {
	t := &TransformUniform{device: device, queue: queue}
	t.current.AspectRatio = 1
	t.current.Model = shapes.Identity4()

	var err error
	t.layout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "transform_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create uniform layout: %w", err)
	}

	t.buffer, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: uniformBufferLabel,
		Size:  UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("gpu: create uniform buffer: %w", err)
	}

	t.bindGroup, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "transform_uniform_bind",
		Layout: t.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: t.buffer.NativeHandle(), Offset: 0, Size: UniformSize,
			}},
		},
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("gpu: create uniform bind group: %w", err)
	}
	return t, nil
}

// SetAspectRatio stores width / height. A zero height leaves the ratio
// unchanged.
func (t *TransformUniform) SetAspectRatio(width, height uint32) {
	if height == 0 {
		return
	}
	t.current.AspectRatio = float32(width) / float32(height)
}

// AspectRatio returns the stored ratio.
func (t *TransformUniform) AspectRatio() float32 { return t.current.AspectRatio }

// Current returns the last uploaded uniform values.
func (t *TransformUniform) Current() Uniforms { return t.current }

// Stage recomputes the model matrix for s and writes the uniform block
// into a staging buffer. The block reaches the uniform buffer when a
// command buffer that recorded CopyTo for it executes. The staging buffer
// must be handed back with ReleaseStaging once that work has completed.
func (t *TransformUniform) Stage(s shapes.Shape) (hal.Buffer, error) {
	t.current.Model = s.Model()
	t.current.Fill = s.FillColor().Floats()

	staging, err := t.takeStaging()
	if err != nil {
		return nil, err
	}
	if err := t.queue.WriteBuffer(staging, 0, t.current.Bytes()); err != nil {
		t.ReleaseStaging(staging)
		return nil, fmt.Errorf("gpu: stage transform: %w", err)
	}
	return staging, nil
}

// CopyTo records the copy of staging into the uniform buffer. It must be
// recorded before the render pass that reads the uniform. The barriers
// order the copy after earlier draws and before this one.
func (t *TransformUniform) CopyTo(enc hal.CommandEncoder, staging hal.Buffer) {
	t.transition(enc, gputypes.BufferUsageUniform, gputypes.BufferUsageCopyDst)
	enc.CopyBufferToBuffer(staging, t.buffer, []hal.BufferCopy{{Size: UniformSize}})
	t.transition(enc, gputypes.BufferUsageCopyDst, gputypes.BufferUsageUniform)
}

func (t *TransformUniform) transition(enc hal.CommandEncoder, from, to gputypes.BufferUsage) {
	enc.TransitionBuffers([]hal.BufferBarrier{{
		Buffer: t.buffer,
		Usage:  hal.BufferUsageTransition{OldUsage: from, NewUsage: to},
	}})
}

// ReleaseStaging returns a staging buffer to the pool.
func (t *TransformUniform) ReleaseStaging(b hal.Buffer) {
	if b != nil {
		t.free = append(t.free, b)
	}
}

// StagingBuffers returns the number of staging buffers created so far.
func (t *TransformUniform) StagingBuffers() int { return t.staging }

func (t *TransformUniform) takeStaging() (hal.Buffer, error) {
	if n := len(t.free); n > 0 {
		b := t.free[n-1]
		t.free = t.free[:n-1]
		return b, nil
	}
	b, err := t.device.CreateBuffer(&hal.BufferDescriptor{
		Label: stagingBufferLabel,
		Size:  UniformSize,
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create transform staging buffer: %w", err)
	}
	t.staging++
	return b, nil
}

// Layout returns the bind group layout shared by every pipeline.
func (t *TransformUniform) Layout() hal.BindGroupLayout { return t.layout }

// BindGroup returns the bind group exposing the uniform buffer at binding 0.
func (t *TransformUniform) BindGroup() hal.BindGroup { return t.bindGroup }

// Destroy releases the pooled staging buffers, the bind group, the buffer
// and the layout.
func (t *TransformUniform) Destroy() {
	for _, b := range t.free {
		t.device.DestroyBuffer(b)
	}
	t.free = nil
	if t.bindGroup != nil {
		t.device.DestroyBindGroup(t.bindGroup)
		t.bindGroup = nil
	}
	if t.buffer != nil {
		t.device.DestroyBuffer(t.buffer)
		t.buffer = nil
	}
	if t.layout != nil {
		t.device.DestroyBindGroupLayout(t.layout)
		t.layout = nil
	}
}
