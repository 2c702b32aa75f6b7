package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/shapes"
	"github.com/gogpu/shapes/internal/gputest"
	"github.com/gogpu/shapes/surface"
)

// testShaders returns a shader set the noop backend accepts without
// running the WGSL compiler.
func testShaders() *ShaderSet {
	return &ShaderSet{
		Vertex:      []uint32{spirvMagic, 0x00010000},
		VertexEntry: "vs_main",
		Fragments: map[shapes.Kind][]uint32{
			shapes.Rectangle: {spirvMagic, 1},
			shapes.Ellipse:   {spirvMagic, 2},
		},
		FragmentEntry: "fs_main",
	}
}

type rendererFixture struct {
	r       *Renderer
	rec     *gputest.Recorder
	surf    *gputest.Surface
	session *surface.Session
}

// newTestRenderer builds a renderer over a recording noop device,
// configured at width x height. errs scripts the surface acquisitions.
func newTestRenderer(t *testing.T, width, height uint32, errs ...error) *rendererFixture {
	t.Helper()
	rec := gputest.New(t)
	surf := gputest.NewSurface(errs...)
	session := surface.NewSession(surf, rec.Device, rec.Queue)
	r, err := NewRenderer(rec.Device, rec.Queue, session,
		WithShaders(testShaders()), WithSize(width, height))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Destroy)
	rec.Reset()
	return &rendererFixture{r: r, rec: rec, surf: surf, session: session}
}

var errTest = errors.New("injected failure")
