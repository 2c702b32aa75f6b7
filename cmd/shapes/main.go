// Command shapes draws a rectangle and an ellipse every frame until Escape,
// a window close or the configured frame limit.
//
// Usage:
//
//	shapes [-config shapes.yaml] [-backend vulkan] [-frames 120] [-snapshot out.png] [-v]
//
// Exit status is 0 on a normal exit and 1 on a configuration or fatal
// render error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/shapes"
	"github.com/gogpu/shapes/app"
	"github.com/gogpu/shapes/config"

	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		width      = flag.Int("width", 0, "window width (overrides config)")
		height     = flag.Int("height", 0, "window height (overrides config)")
		backend    = flag.String("backend", "", "GPU backend: auto, vulkan, metal, dx12, gl, software")
		frames     = flag.Int("frames", -1, "stop after this many frames (0 runs until closed)")
		host       = flag.String("host", "", "window host (default: best available)")
		snapshot   = flag.String("snapshot", "", "write the last frame to this .png, .bmp or .tiff file (software backend only; it shows the clear color, shapes are not rasterized)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "shapes: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *frames >= 0 {
		cfg.Frames = *frames
	}
	if *snapshot != "" {
		cfg.Snapshot = *snapshot
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "shapes: %v\n", err)
		return 1
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	shapes.SetLogger(logger)

	hosts := gpucontext.NewRegistry[app.Host](gpucontext.WithPriority("headless"))
	hosts.Register("headless", func() app.Host {
		return app.NewHeadlessHost(cfg.Window.Width, cfg.Window.Height)
	})
	name := *host
	if name == "" {
		name = hosts.BestName()
	}
	if !hosts.Has(name) {
		logger.Error("unknown host", "host", name, "available", hosts.Available())
		return 1
	}
	h := hosts.Get(name)

	a, err := app.Open(h, cfg)
	if err != nil {
		logger.Error("startup failed", "err", err)
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("running", "title", cfg.Window.Title, "host", name, "backend", cfg.Backend, "frames", cfg.Frames)
	runErr := a.Run(ctx)

	if cfg.Snapshot != "" {
		if err := saveSnapshot(a, cfg.Snapshot); err != nil {
			logger.Warn("snapshot failed", "path", cfg.Snapshot, "err", err)
		} else {
			logger.Info("snapshot saved", "path", cfg.Snapshot)
		}
	}

	if runErr != nil {
		logger.Error("render loop failed", "err", runErr)
		return 1
	}
	return 0
}

func saveSnapshot(a *app.App, path string) error {
	img, err := a.Snapshot()
	if err != nil {
		return err
	}
	return app.WriteImage(path, img)
}
