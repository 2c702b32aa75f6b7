// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gputest

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// ClearLabel marks grid cells written by a clearing pass.
const ClearLabel = "clear"

// Grid is a coarse mock render target covering clip space [-1, 1]^2.
//
// Apply replays a submission onto it: a clearing pass writes ClearLabel to
// every cell, and every non-empty indexed draw writes its pipeline label to
// the cells whose centers fall inside the transformed unit quad. The
// transform is read from the uniform buffer snapshot of the submission:
// a column-major mat4x4<f32> at offset 0 followed by the aspect ratio.
type Grid struct {
	N            int
	Cells        []string
	UniformLabel string

	// Coverage optionally restricts a pipeline to part of the quad, in
	// quad-local coordinates u, v in [-1, 1].
	Coverage map[string]func(u, v float32) bool
}

// NewGrid creates an n x n grid reading transforms from the buffer labeled
// uniformLabel.
func NewGrid(n int, uniformLabel string) *Grid {
	return &Grid{
		N:            n,
		Cells:        make([]string, n*n),
		UniformLabel: uniformLabel,
		Coverage:     make(map[string]func(u, v float32) bool),
	}
}

// Apply replays every pass of the submission in order.
func (g *Grid) Apply(s Submission) {
	uniform := s.Buffers[g.UniformLabel]
	for _, p := range s.Passes {
		if p.LoadOp == gputypes.LoadOpClear {
			for i := range g.Cells {
				g.Cells[i] = ClearLabel
			}
		}
		for _, d := range p.Draws {
			if d.IndexCount == 0 {
				continue
			}
			g.fill(p.Pipeline, uniform)
		}
	}
}

// At returns the label of the cell containing the clip-space point.
func (g *Grid) At(x, y float32) string {
	i := int((x + 1) / 2 * float32(g.N))
	j := int((1 - y) / 2 * float32(g.N))
	i = min(max(i, 0), g.N-1)
	j = min(max(j, 0), g.N-1)
	return g.Cells[j*g.N+i]
}

func (g *Grid) fill(label string, uniform []byte) {
	if len(uniform) < 68 {
		return
	}
	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(uniform[i*4:]))
	}
	a, b := f(0), f(1)
	c, d := f(4), f(5)
	tx, ty := f(12), f(13)
	aspect := f(16)
	det := a*d - c*b
	if det == 0 || aspect == 0 {
		return
	}
	cover := g.Coverage[label]

	for j := 0; j < g.N; j++ {
		cy := 1 - (2*float32(j)+1)/float32(g.N)
		for i := 0; i < g.N; i++ {
			cx := -1 + (2*float32(i)+1)/float32(g.N)
			wx, wy := cx*aspect-tx, cy-ty
			u := (d*wx - c*wy) / det
			v := (-b*wx + a*wy) / det
			if u < -1 || u > 1 || v < -1 || v > 1 {
				continue
			}
			if cover != nil && !cover(u, v) {
				continue
			}
			g.Cells[j*g.N+i] = label
		}
	}
}
