// Package app connects a Host to the renderer: it opens the GPU device for
// the host's window, forwards resize and key events, and runs one frame per
// refresh tick.
//
// Escape and close end the loop normally. An out-of-memory failure ends it
// with an error matching ErrFatal. Every other acquisition failure is logged
// and the next tick retries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/shapes"
	"github.com/gogpu/shapes/config"
	"github.com/gogpu/shapes/internal/gpu"
	"github.com/gogpu/shapes/surface"
	"github.com/gogpu/wgpu/hal"
)

// ErrFatal is wrapped by errors that ended the loop abnormally.
var ErrFatal = errors.New("app: fatal render error")

// Option configures an App during creation.
type Option func(*App)

// WithScene sets the scene drawn every tick. The default is DemoScene.
func WithScene(s Scene) Option {
	return func(a *App) { a.scene = s }
}

// WithClearColor sets the background color.
func WithClearColor(c shapes.RGBA) Option {
	return func(a *App) { a.clear = c }
}

// WithFrameLimit ends the loop after n ticks. Zero runs until closed.
func WithFrameLimit(n uint64) Option {
	return func(a *App) { a.limit = n }
}

// App runs the render loop for one host.
type App struct {
	host     Host
	renderer *gpu.Renderer
	scene    Scene
	clear    shapes.RGBA
	limit    uint64

	// owned is set when the App opened the device and must release it.
	owned   *gpu.Device
	session *surface.Session

	ticks uint64
	quit  bool
	err   error
}

// New creates an App around an existing renderer.
func New(host Host, r *gpu.Renderer, opts ...Option) *App {
	gpu.SetLogger(shapes.Logger())
	a := &App{
		host:     host,
		renderer: r,
		session:  r.Session(),
		clear:    shapes.DefaultClearColor,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.scene == nil {
		a.scene = DemoScene(nil)
	}
	return a
}

// Open opens a device for host's window and builds the session and renderer
// described by cfg. The returned App owns them; call Close when done.
func Open(host Host, cfg *config.Config, opts ...Option) (*App, error) {
	backend, err := cfg.BackendValue()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.PresentModeValue()
	if err != nil {
		return nil, err
	}
	clearColor, err := cfg.ClearColorValue()
	if err != nil {
		return nil, err
	}
	list, err := cfg.Shapes()
	if err != nil {
		return nil, err
	}
	shaders, err := gpu.LoadShaders(cfg.ShaderDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFatal, err)
	}

	display, window := host.NativeHandles()
	dev, err := gpu.OpenDevice(backend, display, window)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFatal, err)
	}
	if dev.Info().DeviceType == gputypes.DeviceTypeCPU {
		shapes.Logger().Warn("app: software backend does not rasterize indexed draws; frames show only the clear color",
			"adapter", dev.Info().Name)
	}

	session := surface.NewSession(dev.Surface(), dev.HAL(), dev.Queue(),
		surface.WithFormat(dev.SurfaceFormat(surface.DefaultConfig().Format)),
		surface.WithPresentMode(dev.PresentMode(mode)))

	w, h := physicalSize(host)
	r, err := gpu.NewRenderer(dev.HAL(), dev.Queue(), session,
		gpu.WithShaders(shaders), gpu.WithSize(w, h))
	if err != nil {
		session.Close()
		dev.Destroy()
		return nil, fmt.Errorf("%w: %w", ErrFatal, err)
	}

	base := []Option{WithClearColor(clearColor), WithFrameLimit(uint64(cfg.Frames))}
	if len(list) > 0 {
		base = append(base, WithScene(StaticScene(list)))
	}
	a := New(host, r, append(base, opts...)...)
	a.owned = dev
	return a, nil
}

// Run registers the event callbacks and runs the loop until Escape, close,
// the frame limit, ctx cancellation or a fatal error.
func (a *App) Run(ctx context.Context) error {
	a.host.OnResize(a.onResize)
	a.host.OnKeyPress(a.onKeyPress)
	a.host.OnClose(func() {
		shapes.Logger().Info("app: close requested")
		a.quit = true
	})

	err := a.host.Run(ctx, a.tick)
	st := a.renderer.Stats()
	shapes.Logger().Info("app: loop finished",
		"ticks", a.ticks,
		"frames", st.Frames,
		"skipped", st.Skipped,
		"submissions", st.Submissions,
		"reconfigures", st.Reconfigures)

	if a.err != nil {
		return a.err
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) tick() bool {
	if a.quit {
		return false
	}
	list := a.scene.Frame(a.ticks)
	a.ticks++

	if _, err := a.renderer.Render(a.clear, list...); err != nil {
		if gpu.IsFatal(err) {
			shapes.Logger().Error("app: fatal render error", "err", err)
			a.err = fmt.Errorf("%w: %w", ErrFatal, err)
			return false
		}
		shapes.Logger().Warn("app: frame failed", "err", err)
	}

	if a.limit > 0 && a.ticks >= a.limit {
		return false
	}
	return !a.quit
}

func (a *App) onResize(width, height int) {
	w, h := toPixels(width, a.host.ScaleFactor()), toPixels(height, a.host.ScaleFactor())
	shapes.Logger().Debug("app: resize", "width", w, "height", h)
	if err := a.renderer.Resize(w, h); err != nil {
		shapes.Logger().Warn("app: resize failed", "width", w, "height", h, "err", err)
	}
}

func (a *App) onKeyPress(key gpucontext.Key, _ gpucontext.Modifiers) {
	if key == gpucontext.KeyEscape {
		shapes.Logger().Info("app: escape pressed")
		a.quit = true
	}
}

// Ticks returns the number of ticks run.
func (a *App) Ticks() uint64 { return a.ticks }

// Stats returns the renderer counters.
func (a *App) Stats() gpu.Stats { return a.renderer.Stats() }

// Surface returns the presentation surface.
func (a *App) Surface() hal.Surface { return a.session.Surface() }

// Size returns the configured target size.
func (a *App) Size() (uint32, uint32) { return a.session.Size() }

// Close releases the renderer, and the session and device when Open
// created them.
func (a *App) Close() {
	a.renderer.Destroy()
	if a.owned != nil {
		a.session.Close()
		a.owned.Destroy()
		a.owned = nil
	}
}
