// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shapes"
	"github.com/gogpu/wgpu/hal"
)

// ErrUnknownKind is returned by Registry.Pipeline for kinds without a pipeline.
var ErrUnknownKind = errors.New("gpu: no pipeline for shape kind")

// Registry builds and owns one render pipeline per shape kind.
//
// All pipelines share the vertex module, the vertex buffer layout, the
// pipeline layout and the fixed-function state. They differ only in their
// fragment module. The registry is immutable after NewRegistry returns.
type Registry struct {
	device hal.Device

	vertex     hal.ShaderModule
	fragments  map[shapes.Kind]hal.ShaderModule
	pipeLayout hal.PipelineLayout
	pipelines  map[shapes.Kind]hal.RenderPipeline
}

// NewRegistry compiles the shader set into modules and creates a pipeline
// for every shape kind, targeting format. On failure every resource created
// so far is released.
func NewRegistry(device hal.Device, format gputypes.TextureFormat, shaders *ShaderSet, uniformLayout hal.BindGroupLayout) (*Registry, error) {
	r := &Registry{
		device:    device,
		fragments: make(map[shapes.Kind]hal.ShaderModule),
		pipelines: make(map[shapes.Kind]hal.RenderPipeline),
	}
	if err := r.build(format, shaders, uniformLayout); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Registry) build(format gputypes.TextureFormat, shaders *ShaderSet, uniformLayout hal.BindGroupLayout) error {
	var err error
	r.vertex, err = r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "quad_vertex",
		Source: hal.ShaderSource{SPIRV: shaders.Vertex},
	})
	if err != nil {
		return fmt.Errorf("gpu: create vertex module: %w", err)
	}

	r.pipeLayout, err = r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "shape_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}

	for _, kind := range shapes.Kinds() {
		code, ok := shaders.Fragments[kind]
		if !ok {
			return fmt.Errorf("gpu: %w: %v has no fragment shader", ErrUnknownKind, kind)
		}
		name := strings.ToLower(kind.String())

		module, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  name + "_fragment",
			Source: hal.ShaderSource{SPIRV: code},
		})
		if err != nil {
			return fmt.Errorf("gpu: create %s fragment module: %w", name, err)
		}
		r.fragments[kind] = module

		pipeline, err := r.createPipeline(name+"_pipeline", format, module, shaders)
		if err != nil {
			return fmt.Errorf("gpu: create %s pipeline: %w", name, err)
		}
		r.pipelines[kind] = pipeline
		slogger().Debug("gpu: pipeline created", "kind", kind)
	}
	return nil
}

func (r *Registry) createPipeline(label string, format gputypes.TextureFormat, fragment hal.ShaderModule, shaders *ShaderSet) (hal.RenderPipeline, error) {
	blend := gputypes.BlendStateReplace()
	return r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.vertex,
			EntryPoint: shaders.VertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{VertexBufferLayout()},
		},
		Fragment: &hal.FragmentState{
			Module:     fragment,
			EntryPoint: shaders.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeBack,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
}

// Pipeline returns the pipeline for kind.
func (r *Registry) Pipeline(kind shapes.Kind) (hal.RenderPipeline, error) {
	p, ok := r.pipelines[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}
	return p, nil
}

// Destroy releases pipelines, shader modules and the pipeline layout.
func (r *Registry) Destroy() {
	for kind, p := range r.pipelines {
		r.device.DestroyRenderPipeline(p)
		delete(r.pipelines, kind)
	}
	for kind, m := range r.fragments {
		r.device.DestroyShaderModule(m)
		delete(r.fragments, kind)
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.vertex != nil {
		r.device.DestroyShaderModule(r.vertex)
		r.vertex = nil
	}
}
