package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shapes"
	"github.com/gogpu/shapes/surface"
	"github.com/gogpu/wgpu/hal"
)

// Frame protocol violations. No GPU work is issued when one is returned.
var (
	// ErrNotAcquired is returned by draws and End outside of a frame.
	ErrNotAcquired = errors.New("gpu: frame not acquired")

	// ErrAlreadyAcquired is returned by Begin inside a frame.
	ErrAlreadyAcquired = errors.New("gpu: frame already acquired")

	// ErrBackgroundNotDrawn is returned by DrawShape before DrawBackground.
	ErrBackgroundNotDrawn = errors.New("gpu: background not drawn")

	// ErrBackgroundDrawn is returned by a second DrawBackground in one frame.
	ErrBackgroundDrawn = errors.New("gpu: background already drawn")
)

// IsFatal reports whether err requires terminating the render loop:
// out-of-memory or a lost device.
func IsFatal(err error) bool {
	return errors.Is(err, surface.ErrOutOfMemory) ||
		errors.Is(err, hal.ErrDeviceOutOfMemory) ||
		errors.Is(err, hal.ErrDeviceLost)
}

// FrameState is the renderer state between ticks and inside a tick.
type FrameState int

const (
	// FrameIdle holds no frame. Only Begin and Resize are valid.
	FrameIdle FrameState = iota

	// FrameAcquired holds a frame. Draws and End are valid.
	FrameAcquired
)

// String returns the state name.
func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "Idle"
	case FrameAcquired:
		return "Acquired"
	default:
		return "Unknown"
	}
}

// Stats counts renderer activity since creation.
type Stats struct {
	// Frames is the number of frames released.
	Frames uint64
	// Skipped is the number of ticks that acquired no frame.
	Skipped uint64
	// Submissions is the number of command buffers submitted.
	Submissions uint64
	// Reconfigures is the number of reconfigurations triggered by a lost target.
	Reconfigures uint64
	// Violations is the number of rejected protocol calls.
	Violations uint64
}

// RendererOption configures a Renderer during creation.
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	shaders       *ShaderSet
	width, height uint32
}

// WithShaders uses a prepared shader set instead of compiling the embedded
// WGSL sources.
func WithShaders(s *ShaderSet) RendererOption {
	return func(o *rendererOptions) { o.shaders = s }
}

// WithSize configures the session at the given size during creation.
func WithSize(width, height uint32) RendererOption {
	return func(o *rendererOptions) { o.width, o.height = width, height }
}

// inflight is a submitted command buffer waiting for the queue to retire it.
type inflight struct {
	index   uint64
	encoder hal.CommandEncoder
	cmd     hal.CommandBuffer
	// staging holds the transform copied by cmd; nil for the background.
	staging hal.Buffer
}

// Renderer drives the per-tick frame protocol:
//
//	Begin -> DrawBackground -> DrawShape... -> End
//
// Every draw step is its own submission. The background clears the target;
// every shape loads it, so shapes layer in call order.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	device  hal.Device
	queue   hal.Queue
	session *surface.Session

	geometry *Geometry
	uniform  *TransformUniform
	registry *Registry

	state      FrameState
	frame      *surface.Frame
	background bool

	resizePending bool
	pendingWidth  uint32
	pendingHeight uint32

	inflight []inflight
	stats    Stats
}

// NewRenderer creates the geometry, uniform and pipelines for session.
// Pipeline construction failure is returned and leaves nothing allocated.
func NewRenderer(device hal.Device, queue hal.Queue, session *surface.Session, opts ...RendererOption) (*Renderer, error) {
	var o rendererOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.shaders == nil {
		compiled, err := CompileShaders()
		if err != nil {
			return nil, err
		}
		o.shaders = compiled
	}

	r := &Renderer{device: device, queue: queue, session: session}

	var err error
	if r.geometry, err = NewGeometry(device, queue); err != nil {
		return nil, err
	}
	if r.uniform, err = NewTransformUniform(device, queue); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.registry, err = NewRegistry(device, session.Format(), o.shaders, r.uniform.Layout()); err != nil {
		r.Destroy()
		return nil, err
	}

	if o.width != 0 || o.height != 0 {
		if err := r.Resize(o.width, o.height); err != nil {
			r.Destroy()
			return nil, err
		}
	}
	return r, nil
}

// State returns the current frame state.
func (r *Renderer) State() FrameState { return r.state }

// Stats returns activity counters.
func (r *Renderer) Stats() Stats { return r.stats }

// AspectRatio returns the ratio the next shape will be drawn with.
func (r *Renderer) AspectRatio() float32 { return r.uniform.AspectRatio() }

// Session returns the surface session the renderer presents to.
func (r *Renderer) Session() *surface.Session { return r.session }

// Resize reconfigures the target and updates the aspect ratio.
//
// Inside a frame the resize is deferred until End; only the latest size is
// kept. A zero width or height suspends rendering and keeps the aspect
// ratio unchanged.
func (r *Renderer) Resize(width, height uint32) error {
	if r.state == FrameAcquired {
		r.resizePending = true
		r.pendingWidth, r.pendingHeight = width, height
		slogger().Debug("gpu: resize deferred", "width", width, "height", height)
		return nil
	}
	return r.applyResize(width, height)
}

func (r *Renderer) applyResize(width, height uint32) error {
	if err := r.session.Configure(width, height); err != nil {
		if surface.IsZeroArea(err) {
			return nil
		}
		return err
	}
	r.uniform.SetAspectRatio(width, height)
	return nil
}

// Begin acquires the next frame.
//
// It reports false with a nil error when the tick must be skipped: a lost
// target (reconfigured once with the last size) or a transient failure.
// An out-of-memory failure is returned as an error matching
// surface.ErrOutOfMemory.
func (r *Renderer) Begin() (bool, error) {
	if r.state == FrameAcquired {
		return false, r.violation("begin", ErrAlreadyAcquired)
	}
	r.retire()

	frame, err := r.session.Acquire()
	if err != nil {
		return false, r.acquireFailed(err)
	}

	r.frame = frame
	r.state = FrameAcquired
	r.background = false
	return true, nil
}

func (r *Renderer) acquireFailed(err error) error {
	var ae *surface.AcquireError
	if !errors.As(err, &ae) {
		return fmt.Errorf("gpu: acquire: %w", err)
	}
	switch ae.Kind {
	case surface.KindLost:
		r.stats.Skipped++
		r.stats.Reconfigures++
		slogger().Warn("gpu: target lost, reconfiguring", "err", ae.Err)
		if rerr := r.session.Reconfigure(); rerr != nil {
			slogger().Warn("gpu: reconfigure failed", "err", rerr)
		}
		return nil
	case surface.KindOutOfMemory:
		slogger().Error("gpu: out of memory", "err", ae.Err)
		return fmt.Errorf("gpu: acquire: %w", err)
	default:
		r.stats.Skipped++
		slogger().Debug("gpu: transient acquire failure, skipping tick", "err", ae.Err)
		return nil
	}
}

// DrawBackground clears the frame to c. It must be the first draw of the
// frame and may be issued once.
//
// The pass binds the rectangle pipeline and draws an empty index range:
// the clear comes from the load operation alone.
func (r *Renderer) DrawBackground(c shapes.RGBA) error {
	if r.state != FrameAcquired {
		return r.violation("draw background", ErrNotAcquired)
	}
	if r.background {
		return r.violation("draw background", ErrBackgroundDrawn)
	}
	pipeline, err := r.registry.Pipeline(shapes.Rectangle)
	if err != nil {
		return err
	}

	err = r.submitPass("background_pass", gputypes.LoadOpClear, c.GPU(), nil, func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, r.uniform.BindGroup(), nil)
		r.geometry.Bind(rp)
		rp.DrawIndexed(BackgroundIndexCount, 1, 0, 0, 0)
	})
	if err != nil {
		return err
	}
	r.background = true
	return nil
}

// DrawShape uploads the transform of s and draws it over everything drawn
// earlier in the frame.
func (r *Renderer) DrawShape(s shapes.Shape) error {
	if r.state != FrameAcquired {
		return r.violation("draw shape", ErrNotAcquired)
	}
	if !r.background {
		return r.violation("draw shape", ErrBackgroundNotDrawn)
	}
	pipeline, err := r.registry.Pipeline(s.Kind)
	if err != nil {
		return err
	}

	staging, err := r.uniform.Stage(s)
	if err != nil {
		return err
	}
	return r.submitPass("shape_pass", gputypes.LoadOpLoad, gputypes.Color{}, staging, func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, r.uniform.BindGroup(), nil)
		r.geometry.Bind(rp)
		rp.DrawIndexed(ShapeIndexCount, 1, 0, 0, 0)
	})
}

// End presents the frame and returns to Idle. A resize received during the
// frame is applied afterwards.
//
// A lost target on present is reconfigured; an out-of-memory failure is
// returned. Other presentation failures are logged.
func (r *Renderer) End() error {
	if r.state != FrameAcquired {
		return r.violation("end", ErrNotAcquired)
	}
	frame := r.frame
	r.frame = nil
	r.state = FrameIdle
	r.stats.Frames++

	releaseErr := r.session.Release(frame)

	var resizeErr error
	if r.resizePending {
		r.resizePending = false
		resizeErr = r.applyResize(r.pendingWidth, r.pendingHeight)
	}

	if releaseErr != nil {
		var ae *surface.AcquireError
		switch {
		case !errors.As(releaseErr, &ae):
			return errors.Join(fmt.Errorf("gpu: release: %w", releaseErr), resizeErr)
		case ae.Kind == surface.KindOutOfMemory:
			return errors.Join(fmt.Errorf("gpu: present: %w", releaseErr), resizeErr)
		case ae.Kind == surface.KindLost:
			r.stats.Reconfigures++
			slogger().Warn("gpu: target lost on present, reconfiguring", "err", ae.Err)
			if err := r.session.Reconfigure(); err != nil {
				slogger().Warn("gpu: reconfigure failed", "err", err)
			}
		default:
			slogger().Debug("gpu: transient present failure", "err", ae.Err)
		}
	}
	return resizeErr
}

// Render runs one tick: Begin, the background, every shape in order, End.
// It reports whether a frame was presented. A failed draw still ends the
// frame.
func (r *Renderer) Render(bg shapes.RGBA, list ...shapes.Shape) (bool, error) {
	ok, err := r.Begin()
	if !ok || err != nil {
		return false, err
	}

	drawErr := r.DrawBackground(bg)
	for i := 0; drawErr == nil && i < len(list); i++ {
		drawErr = r.DrawShape(list[i])
	}
	if err := r.End(); err != nil {
		return false, errors.Join(drawErr, err)
	}
	if drawErr != nil {
		return true, drawErr
	}
	slogger().Debug("gpu: frame rendered", "shapes", len(list), "submissions", r.stats.Submissions)
	return true, nil
}

// submitPass records one render pass against the held frame and submits
// it. A non-nil staging buffer is copied into the uniform buffer ahead of
// the pass, inside the same command buffer. The pass is ended and the
// recording finished on every path out of record.
func (r *Renderer) submitPass(label string, load gputypes.LoadOp, clearValue gputypes.Color, staging hal.Buffer, record func(hal.RenderPassEncoder)) error {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		r.uniform.ReleaseStaging(staging)
		return fmt.Errorf("gpu: create %s encoder: %w", label, err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		encoder.Destroy()
		r.uniform.ReleaseStaging(staging)
		return fmt.Errorf("gpu: begin %s: %w", label, err)
	}
	if staging != nil {
		r.uniform.CopyTo(encoder, staging)
	}

	func() {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: label,
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       r.frame.View(),
				LoadOp:     load,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearValue,
			}},
		})
		defer rp.End()
		record(rp)
	}()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.Destroy()
		r.uniform.ReleaseStaging(staging)
		return fmt.Errorf("gpu: end %s: %w", label, err)
	}
	index, err := r.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		r.device.FreeCommandBuffer(cmd)
		encoder.Destroy()
		r.uniform.ReleaseStaging(staging)
		return fmt.Errorf("gpu: submit %s: %w", label, err)
	}

	r.inflight = append(r.inflight, inflight{index: index, encoder: encoder, cmd: cmd, staging: staging})
	r.stats.Submissions++
	return nil
}

// retire frees command buffers the queue has finished with.
func (r *Renderer) retire() {
	if len(r.inflight) == 0 {
		return
	}
	done := r.queue.PollCompleted()
	kept := r.inflight[:0]
	for _, f := range r.inflight {
		if f.index > done {
			kept = append(kept, f)
			continue
		}
		r.device.FreeCommandBuffer(f.cmd)
		f.encoder.Destroy()
		r.uniform.ReleaseStaging(f.staging)
	}
	clear(r.inflight[len(kept):])
	r.inflight = kept
}

func (r *Renderer) violation(op string, err error) error {
	r.stats.Violations++
	slogger().Error("gpu: frame protocol violation", "op", op, "state", r.state, "err", err)
	return fmt.Errorf("gpu: %s: %w", op, err)
}

// Destroy discards a held frame and releases every GPU resource the
// renderer created. The session and device are owned by the caller.
func (r *Renderer) Destroy() {
	if r.frame != nil {
		r.session.Discard(r.frame)
		r.frame = nil
		r.state = FrameIdle
	}
	for _, f := range r.inflight {
		r.device.FreeCommandBuffer(f.cmd)
		f.encoder.Destroy()
		if r.uniform != nil {
			r.uniform.ReleaseStaging(f.staging)
		}
	}
	r.inflight = nil
	if r.registry != nil {
		r.registry.Destroy()
		r.registry = nil
	}
	if r.uniform != nil {
		r.uniform.Destroy()
		r.uniform = nil
	}
	if r.geometry != nil {
		r.geometry.Destroy()
		r.geometry = nil
	}
}
