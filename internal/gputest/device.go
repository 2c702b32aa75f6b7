// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gputest

import (
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer is a labeled buffer created through the recording device.
type Buffer struct {
	hal.Buffer
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// Pipeline is a labeled render pipeline created through the recording device.
// Noop pipelines are zero-sized, so the wrapper gives each one an identity.
type Pipeline struct {
	hal.RenderPipeline
	Label string
	Desc  hal.RenderPipelineDescriptor
}

// ShaderModule is a labeled shader module created through the recording device.
type ShaderModule struct {
	hal.ShaderModule
	Label string
	Words int
}

// Device wraps a hal.Device and records resource creation.
type Device struct {
	hal.Device
	rec *Recorder

	// PipelineErr, when set, fails CreateRenderPipeline for pipelines
	// with this label.
	PipelineErr      error
	PipelineErrLabel string

	Destroyed map[string]int
}

func (d *Device) destroyed(label string) {
	if d.Destroyed == nil {
		d.Destroyed = make(map[string]int)
	}
	d.Destroyed[label]++
}

func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	b, err := d.Device.CreateBuffer(desc)
	if err != nil {
		return nil, err
	}
	return &Buffer{Buffer: b, Label: desc.Label, Size: desc.Size, Usage: desc.Usage}, nil
}

func (d *Device) DestroyBuffer(b hal.Buffer) {
	if wb, ok := b.(*Buffer); ok {
		d.destroyed(wb.Label)
		b = wb.Buffer
	}
	d.Device.DestroyBuffer(b)
}

func (d *Device) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	m, err := d.Device.CreateShaderModule(desc)
	if err != nil {
		return nil, err
	}
	return &ShaderModule{ShaderModule: m, Label: desc.Label, Words: len(desc.Source.SPIRV)}, nil
}

func (d *Device) DestroyShaderModule(m hal.ShaderModule) {
	if wm, ok := m.(*ShaderModule); ok {
		d.destroyed(wm.Label)
		m = wm.ShaderModule
	}
	d.Device.DestroyShaderModule(m)
}

func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if d.PipelineErr != nil && desc.Label == d.PipelineErrLabel {
		return nil, d.PipelineErr
	}
	p, err := d.Device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, err
	}
	d.rec.Pipelines = append(d.rec.Pipelines, desc.Label)
	return &Pipeline{RenderPipeline: p, Label: desc.Label, Desc: *desc}, nil
}

func (d *Device) DestroyRenderPipeline(p hal.RenderPipeline) {
	if wp, ok := p.(*Pipeline); ok {
		d.destroyed(wp.Label)
		p = wp.RenderPipeline
	}
	d.Device.DestroyRenderPipeline(p)
}

func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	d.rec.Encoders++
	return &Encoder{CommandEncoder: enc}, nil
}

func (d *Device) FreeCommandBuffer(cb hal.CommandBuffer) {
	if wcb, ok := cb.(*CommandBuffer); ok {
		cb = wcb.CommandBuffer
	}
	d.rec.Freed++
	d.Device.FreeCommandBuffer(cb)
}

// CommandBuffer carries the copies and passes recorded into it.
type CommandBuffer struct {
	hal.CommandBuffer
	Copies []Copy
	Passes []*Pass
}

// Encoder wraps a hal.CommandEncoder and records copies and render passes.
type Encoder struct {
	hal.CommandEncoder
	copies []Copy
	passes []*Pass
}

func (e *Encoder) BeginEncoding(label string) error {
	e.copies, e.passes = nil, nil
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *Encoder) CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy) {
	c := Copy{Src: src, Dst: dst, Regions: append([]hal.BufferCopy(nil), regions...)}
	if wb, ok := src.(*Buffer); ok {
		c.SrcLabel = wb.Label
		src = wb.Buffer
	}
	if wb, ok := dst.(*Buffer); ok {
		c.DstLabel = wb.Label
		dst = wb.Buffer
	}
	e.copies = append(e.copies, c)
	e.CommandEncoder.CopyBufferToBuffer(src, dst, regions)
}

func (e *Encoder) TransitionBuffers(barriers []hal.BufferBarrier) {
	inner := make([]hal.BufferBarrier, len(barriers))
	for i, b := range barriers {
		if wb, ok := b.Buffer.(*Buffer); ok {
			b.Buffer = wb.Buffer
		}
		inner[i] = b
	}
	e.CommandEncoder.TransitionBuffers(inner)
}

func (e *Encoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	p := &Pass{Label: desc.Label}
	if len(desc.ColorAttachments) > 0 {
		ca := desc.ColorAttachments[0]
		p.LoadOp = ca.LoadOp
		p.StoreOp = ca.StoreOp
		p.ClearValue = ca.ClearValue
		p.Target = ca.View
	}
	e.passes = append(e.passes, p)
	return &PassEncoder{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), pass: p}
}

func (e *Encoder) EndEncoding() (hal.CommandBuffer, error) {
	cb, err := e.CommandEncoder.EndEncoding()
	if err != nil {
		return nil, err
	}
	out := &CommandBuffer{CommandBuffer: cb, Copies: e.copies, Passes: e.passes}
	e.copies, e.passes = nil, nil
	return out, nil
}

func (e *Encoder) DiscardEncoding() {
	e.copies, e.passes = nil, nil
	e.CommandEncoder.DiscardEncoding()
}

// PassEncoder wraps a hal.RenderPassEncoder and records state and draws.
type PassEncoder struct {
	hal.RenderPassEncoder
	pass *Pass
}

func (p *PassEncoder) SetPipeline(pipeline hal.RenderPipeline) {
	if wp, ok := pipeline.(*Pipeline); ok {
		p.pass.Pipeline = wp.Label
		pipeline = wp.RenderPipeline
	}
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *PassEncoder) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.pass.BindGroups++
	p.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (p *PassEncoder) SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64) {
	if wb, ok := buffer.(*Buffer); ok {
		p.pass.VertexBuffer = wb.Label
		buffer = wb.Buffer
	}
	p.RenderPassEncoder.SetVertexBuffer(slot, buffer, offset)
}

func (p *PassEncoder) SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64) {
	if wb, ok := buffer.(*Buffer); ok {
		p.pass.IndexBuffer = wb.Label
		buffer = wb.Buffer
	}
	p.pass.IndexFormat = format
	p.RenderPassEncoder.SetIndexBuffer(buffer, format, offset)
}

func (p *PassEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.pass.Draws = append(p.pass.Draws, DrawIndexed{
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		BaseVertex:    baseVertex,
	})
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *PassEncoder) End() {
	p.pass.Ended = true
	p.RenderPassEncoder.End()
}

// Queue wraps a hal.Queue and records writes, submissions and presents.
// WriteBuffer updates buffer contents immediately.
type Queue struct {
	hal.Queue
	rec *Recorder
}

func (q *Queue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	if err := q.rec.WriteErr; err != nil {
		q.rec.WriteErr = nil
		return err
	}
	label := ""
	wb, wrapped := buffer.(*Buffer)
	if wrapped {
		label = wb.Label
		buffer = wb.Buffer
	}
	if err := q.Queue.WriteBuffer(buffer, offset, data); err != nil {
		return err
	}

	cp := append([]byte(nil), data...)
	q.rec.Writes = append(q.rec.Writes, Write{Label: label, Offset: offset, Data: cp, Seq: len(q.rec.Submissions) + len(q.rec.pending)})
	if wrapped {
		q.rec.store(wb, offset, data)
	}
	return nil
}

func (q *Queue) Submit(cbs []hal.CommandBuffer) (uint64, error) {
	if err := q.rec.SubmitErr; err != nil {
		q.rec.SubmitErr = nil
		return 0, err
	}
	inner := make([]hal.CommandBuffer, len(cbs))
	var sub Submission
	for i, cb := range cbs {
		if wcb, ok := cb.(*CommandBuffer); ok {
			sub.Copies = append(sub.Copies, wcb.Copies...)
			sub.Passes = append(sub.Passes, wcb.Passes...)
			cb = wcb.CommandBuffer
		}
		inner[i] = cb
	}
	idx, err := q.Queue.Submit(inner)
	if err != nil {
		return 0, err
	}
	sub.Index = idx
	if q.rec.Deferred {
		q.rec.pending = append(q.rec.pending, sub)
	} else {
		q.rec.execute(sub)
	}
	return idx, nil
}

// PollCompleted reports the last executed submission.
func (q *Queue) PollCompleted() uint64 {
	if q.rec.Deferred {
		return q.rec.executed
	}
	return q.Queue.PollCompleted()
}

func (q *Queue) Present(s hal.Surface, t hal.SurfaceTexture, damage []image.Rectangle) error {
	if err := q.rec.PresentErr; err != nil {
		q.rec.PresentErr = nil
		return err
	}
	q.rec.Presents++
	return q.Queue.Present(s, t, damage)
}
