package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Vertex is one corner of the unit quad.
type Vertex struct {
	Position [2]float32
	TexCoord [2]float32
}

// vertexStride is the size of Vertex in the vertex buffer.
const vertexStride = 16

// QuadVertices spans [-1, 1]^2 with texture coordinates flipped so that
// v grows downwards.
var QuadVertices = [4]Vertex{
	{Position: [2]float32{-1, -1}, TexCoord: [2]float32{0, 1}},
	{Position: [2]float32{1, -1}, TexCoord: [2]float32{1, 1}},
	{Position: [2]float32{1, 1}, TexCoord: [2]float32{1, 0}},
	{Position: [2]float32{-1, 1}, TexCoord: [2]float32{0, 0}},
}

// QuadIndices holds two counter-clockwise triangles covering the quad
// followed by a degenerate triangle reusing vertex 3.
var QuadIndices = [9]uint16{
	0, 1, 2,
	0, 2, 3,
	0, 1, 3,
}

// Index ranges drawn by the renderer.
const (
	// ShapeIndexCount covers both quad triangles.
	ShapeIndexCount = 6

	// BackgroundIndexCount is empty: the background pass clears through its
	// load operation and rasterizes nothing.
	BackgroundIndexCount = 0
)

// VertexBufferLayout describes Vertex to the shared vertex stage:
// location 0 is the position, location 1 the texture coordinate.
func VertexBufferLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: vertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		},
	}
}

// Geometry holds the unit quad buffers shared by every shape.
// It is immutable after creation.
type Geometry struct {
	device   hal.Device
	vertices hal.Buffer
	indices  hal.Buffer
}

// NewGeometry uploads the unit quad.
func NewGeometry(device hal.Device, queue hal.Queue) (*Geometry, error) {
	vdata := encodeVertices(QuadVertices[:])
	vbuf, err := createAndUploadBuffer(device, queue, "quad_vertices", vdata,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}

	idata := encodeIndices(QuadIndices[:])
	ibuf, err := createAndUploadBuffer(device, queue, "quad_indices", idata,
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		device.DestroyBuffer(vbuf)
		return nil, err
	}

	return &Geometry{device: device, vertices: vbuf, indices: ibuf}, nil
}

// Bind sets the quad vertex and index buffers on a render pass.
func (g *Geometry) Bind(rp hal.RenderPassEncoder) {
	rp.SetVertexBuffer(0, g.vertices, 0)
	rp.SetIndexBuffer(g.indices, gputypes.IndexFormatUint16, 0)
}

// Destroy releases both buffers.
func (g *Geometry) Destroy() {
	if g.vertices != nil {
		g.device.DestroyBuffer(g.vertices)
		g.vertices = nil
	}
	if g.indices != nil {
		g.device.DestroyBuffer(g.indices)
		g.indices = nil
	}
}

// encodeVertices serializes vertices in buffer layout order.
func encodeVertices(vs []Vertex) []byte {
	buf := make([]byte, len(vs)*vertexStride)
	for i, v := range vs {
		off := i * vertexStride
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Position[1]))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v.TexCoord[0]))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(v.TexCoord[1]))
	}
	return buf
}

// encodeIndices serializes 16-bit indices, padded to the 4-byte copy
// alignment buffer writes require.
func encodeIndices(is []uint16) []byte {
	buf := make([]byte, alignUp(uint64(len(is)*2), copyAlignment))
	for i, v := range is {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

// copyAlignment is the required alignment of buffer sizes and write offsets.
const copyAlignment = 4

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// createAndUploadBuffer creates a GPU buffer and writes data to it.
func createAndUploadBuffer(device hal.Device, queue hal.Queue, label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("gpu: upload %s: %w", label, err)
	}
	return buf, nil
}
