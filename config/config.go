// Package config loads the renderer configuration from YAML.
//
// Every field is optional; missing values keep their Default. A minimal
// file looks like:
//
//	window:
//	  width: 1280
//	  height: 720
//	present_mode: mailbox
//	clear_color: "#1a334d"
//	scene:
//	  - kind: rect
//	    x: 0.5
//	    w: 0.75
//	    h: 0.75
//	    rotation: 3.14159
//	  - kind: ellipse
//	    x: -0.5
//	    w: 0.25
//	    h: 0.25
//	    fill: "#ff8800"
//
// An empty scene selects the animated demo scene.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shapes"
	"github.com/gogpu/shapes/internal/gpu"
	"gopkg.in/yaml.v3"
)

// maxFileSize bounds the configuration file read by Load.
const maxFileSize = 1 << 20

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the complete renderer configuration.
type Config struct {
	Window      Window `yaml:"window"`
	Backend     string `yaml:"backend"`
	PresentMode string `yaml:"present_mode"`
	ClearColor  string `yaml:"clear_color"`

	// ShaderDir holds precompiled SPIR-V blobs. Empty uses the embedded
	// shaders.
	ShaderDir string `yaml:"shader_dir"`

	// Frames stops the loop after this many ticks. Zero runs until closed.
	Frames int `yaml:"frames"`

	// Snapshot is written from the final software framebuffer. The file
	// extension selects the encoder: .png, .bmp or .tiff. The software
	// backend does not rasterize indexed draws, so the image holds only
	// the clear color.
	Snapshot string `yaml:"snapshot"`

	LogLevel string  `yaml:"log_level"`
	Scene    []Shape `yaml:"scene"`
}

// Window is the initial window size.
type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Shape is one entry of a static scene. Rotation is in radians.
type Shape struct {
	Kind     string  `yaml:"kind"`
	X        float32 `yaml:"x"`
	Y        float32 `yaml:"y"`
	W        float32 `yaml:"w"`
	H        float32 `yaml:"h"`
	Rotation float32 `yaml:"rotation"`
	Fill     string  `yaml:"fill"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Window:      Window{Width: 800, Height: 600, Title: "shapes"},
		Backend:     "auto",
		PresentMode: "fifo",
		LogLevel:    "info",
	}
}

// Load reads and validates the file at path on top of Default.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config: %s: file too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	shapes.Logger().Debug("config: loaded", "path", path, "shapes", len(cfg.Scene))
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height))
	}
	if _, err := gpu.ParseBackend(c.Backend); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if _, err := c.PresentModeValue(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ClearColorValue(); err != nil {
		errs = append(errs, err)
	}
	if c.Frames < 0 {
		errs = append(errs, fmt.Errorf("%w: frames %d", ErrInvalid, c.Frames))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Shapes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// presentModes maps configuration names to present modes.
var presentModes = map[string]gputypes.PresentMode{
	"fifo":         gputypes.PresentModeFifo,
	"vsync":        gputypes.PresentModeFifo,
	"fifo_relaxed": gputypes.PresentModeFifoRelaxed,
	"immediate":    gputypes.PresentModeImmediate,
	"mailbox":      gputypes.PresentModeMailbox,
}

// PresentModeValue returns the configured present mode. Empty means Fifo.
func (c *Config) PresentModeValue() (gputypes.PresentMode, error) {
	name := strings.ToLower(strings.TrimSpace(c.PresentMode))
	if name == "" {
		return gputypes.PresentModeFifo, nil
	}
	m, ok := presentModes[name]
	if !ok {
		return 0, fmt.Errorf("%w: present mode %q", ErrInvalid, c.PresentMode)
	}
	return m, nil
}

// BackendValue returns the configured backend.
func (c *Config) BackendValue() (gputypes.Backend, error) {
	return gpu.ParseBackend(c.Backend)
}

// ClearColorValue returns the background color. Empty means
// shapes.DefaultClearColor.
func (c *Config) ClearColorValue() (shapes.RGBA, error) {
	if c.ClearColor == "" {
		return shapes.DefaultClearColor, nil
	}
	col, err := shapes.ParseHex(c.ClearColor)
	if err != nil {
		return shapes.RGBA{}, fmt.Errorf("%w: clear_color: %w", ErrInvalid, err)
	}
	return col, nil
}

// Level returns the configured log level. Empty means Info.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level: %w", ErrInvalid, err)
	}
	return l, nil
}

// Shapes converts the static scene into draw requests, in file order.
func (c *Config) Shapes() ([]shapes.Shape, error) {
	out := make([]shapes.Shape, 0, len(c.Scene))
	for i, sc := range c.Scene {
		kind, err := shapes.ParseKind(sc.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: scene[%d]: %w", ErrInvalid, i, err)
		}
		s := shapes.Shape{Kind: kind, X: sc.X, Y: sc.Y, W: sc.W, H: sc.H, Rotation: sc.Rotation}
		if sc.Fill != "" {
			fill, err := shapes.ParseHex(sc.Fill)
			if err != nil {
				return nil, fmt.Errorf("%w: scene[%d]: fill: %w", ErrInvalid, i, err)
			}
			s = s.WithFill(fill)
		}
		out = append(out, s)
	}
	return out, nil
}
