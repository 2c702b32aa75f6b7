package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shapes/internal/gputest"
)

func TestQuadIndices(t *testing.T) {
	want := []uint16{0, 1, 2, 0, 2, 3, 0, 1, 3}
	for i, v := range want {
		if QuadIndices[i] != v {
			t.Fatalf("QuadIndices = %v, want %v", QuadIndices, want)
		}
	}
	if ShapeIndexCount != 6 {
		t.Errorf("ShapeIndexCount = %d, want 6", ShapeIndexCount)
	}
	if BackgroundIndexCount != 0 {
		t.Errorf("BackgroundIndexCount = %d, want 0", BackgroundIndexCount)
	}
}

func TestQuadVerticesSpanUnitSquare(t *testing.T) {
	for i, v := range QuadVertices {
		for _, c := range v.Position {
			if c != -1 && c != 1 {
				t.Errorf("vertex %d position %v not on the unit square", i, v.Position)
			}
		}
		for _, c := range v.TexCoord {
			if c < 0 || c > 1 {
				t.Errorf("vertex %d tex coord %v outside [0, 1]", i, v.TexCoord)
			}
		}
	}
}

// The first two triangles must be counter-clockwise so back-face culling
// keeps them.
func TestQuadTrianglesCounterClockwise(t *testing.T) {
	for tri := 0; tri < ShapeIndexCount/3; tri++ {
		a := QuadVertices[QuadIndices[tri*3]].Position
		b := QuadVertices[QuadIndices[tri*3+1]].Position
		c := QuadVertices[QuadIndices[tri*3+2]].Position
		cross := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
		if cross <= 0 {
			t.Errorf("triangle %d winding = %v, want counter-clockwise", tri, cross)
		}
	}
}

func TestEncodeVertices(t *testing.T) {
	data := encodeVertices(QuadVertices[:])
	if len(data) != 4*vertexStride {
		t.Fatalf("len = %d, want %d", len(data), 4*vertexStride)
	}
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(data[off:])) }
	// Vertex 1: position (1, -1), tex coord (1, 1).
	if got := [4]float32{f(16), f(20), f(24), f(28)}; got != [4]float32{1, -1, 1, 1} {
		t.Errorf("vertex 1 = %v, want [1 -1 1 1]", got)
	}
}

func TestEncodeIndicesPadded(t *testing.T) {
	data := encodeIndices(QuadIndices[:])
	if len(data)%copyAlignment != 0 {
		t.Errorf("len = %d, not %d-byte aligned", len(data), copyAlignment)
	}
	if len(data) != 20 {
		t.Errorf("len = %d, want 20", len(data))
	}
	if got := binary.LittleEndian.Uint16(data[16:]); got != 3 {
		t.Errorf("last index = %d, want 3", got)
	}
}

func TestVertexBufferLayout(t *testing.T) {
	l := VertexBufferLayout()
	if l.ArrayStride != vertexStride {
		t.Errorf("stride = %d, want %d", l.ArrayStride, vertexStride)
	}
	if len(l.Attributes) != 2 {
		t.Fatalf("attributes = %d, want 2", len(l.Attributes))
	}
	for i, a := range l.Attributes {
		if a.ShaderLocation != uint32(i) || a.Format != gputypes.VertexFormatFloat32x2 {
			t.Errorf("attribute %d = %+v", i, a)
		}
	}
	if l.Attributes[1].Offset != 8 {
		t.Errorf("tex coord offset = %d, want 8", l.Attributes[1].Offset)
	}
}

func TestNewGeometry(t *testing.T) {
	rec := gputest.New(t)
	g, err := NewGeometry(rec.Device, rec.Queue)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}

	labels := map[string]bool{}
	for _, w := range rec.Writes {
		labels[w.Label] = true
	}
	if !labels["quad_vertices"] || !labels["quad_indices"] {
		t.Errorf("uploads = %v, want quad_vertices and quad_indices", labels)
	}

	g.Destroy()
	g.Destroy()
	if rec.Device.Destroyed["quad_vertices"] != 1 || rec.Device.Destroyed["quad_indices"] != 1 {
		t.Errorf("destroyed = %v, want each buffer once", rec.Device.Destroyed)
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct{ n, want uint64 }{{0, 0}, {1, 4}, {4, 4}, {18, 20}}
	for _, tt := range tests {
		if got := alignUp(tt.n, 4); got != tt.want {
			t.Errorf("alignUp(%d, 4) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
