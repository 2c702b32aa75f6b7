package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/shapes"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Errorf("window = %dx%d, want 800x600", cfg.Window.Width, cfg.Window.Height)
	}
	if m, _ := cfg.PresentModeValue(); m != gputypes.PresentModeFifo {
		t.Errorf("present mode = %v, want Fifo", m)
	}
	if c, _ := cfg.ClearColorValue(); c != shapes.DefaultClearColor {
		t.Errorf("clear color = %+v, want default", c)
	}
	if l, _ := cfg.Level(); l != slog.LevelInfo {
		t.Errorf("level = %v, want info", l)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
window:
  width: 1280
  height: 720
backend: software
present_mode: Mailbox
clear_color: "#ff0000"
frames: 3
snapshot: out.png
log_level: debug
scene:
  - kind: rect
    x: 0.5
    w: 0.75
    h: 0.75
    rotation: 3.5
  - kind: ellipse
    x: -0.5
    w: 0.25
    h: 0.25
    fill: "#00ff00"
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("window = %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Window.Title != "shapes" {
		t.Errorf("title = %q, want the default", cfg.Window.Title)
	}
	if m, _ := cfg.PresentModeValue(); m != gputypes.PresentModeMailbox {
		t.Errorf("present mode = %v, want Mailbox", m)
	}
	if b, _ := cfg.BackendValue(); b != gputypes.BackendEmpty {
		t.Errorf("backend = %v, want Empty", b)
	}
	if c, _ := cfg.ClearColorValue(); c != shapes.RGB(1, 0, 0) {
		t.Errorf("clear color = %+v", c)
	}
	if l, _ := cfg.Level(); l != slog.LevelDebug {
		t.Errorf("level = %v, want debug", l)
	}
	if cfg.Frames != 3 || cfg.Snapshot != "out.png" {
		t.Errorf("frames = %d, snapshot = %q", cfg.Frames, cfg.Snapshot)
	}

	list, err := cfg.Shapes()
	if err != nil {
		t.Fatal(err)
	}
	want := []shapes.Shape{
		shapes.Rect(0.5, 0, 0.75, 0.75, 3.5),
		shapes.NewEllipse(-0.5, 0, 0.25, 0.25, 0).WithFill(shapes.RGB(0, 1, 0)),
	}
	if len(list) != len(want) {
		t.Fatalf("shapes = %d, want %d", len(list), len(want))
	}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("shape %d = %+v, want %+v", i, list[i], want[i])
		}
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) = %v", err)
	}
	if len(cfg.Scene) != 0 {
		t.Errorf("scene = %v, want empty", cfg.Scene)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero width", "window: {width: 0, height: 10}"},
		{"backend", "backend: glide"},
		{"present mode", "present_mode: triple"},
		{"clear color", "clear_color: '#12'"},
		{"frames", "frames: -1"},
		{"log level", "log_level: loud"},
		{"shape kind", "scene: [{kind: triangle}]"},
		{"shape fill", "scene: [{kind: rect, fill: nope}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse(%q) = %v, want ErrInvalid", tt.yaml, err)
			}
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("colour: red\n")); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes.yaml")
	if err := os.WriteFile(path, []byte("window: {width: 320, height: 200}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Window.Width != 320 || cfg.Window.Height != 200 {
		t.Errorf("window = %dx%d", cfg.Window.Width, cfg.Window.Height)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) = %v, want not exist", err)
	}
}

func TestShapesTransparentFill(t *testing.T) {
	cfg, err := Parse([]byte("scene: [{kind: rect, w: 1, h: 1, fill: '#00000000'}]"))
	if err != nil {
		t.Fatal(err)
	}
	list, err := cfg.Shapes()
	if err != nil {
		t.Fatal(err)
	}
	if got := list[0].FillColor(); got != (shapes.RGBA{}) {
		t.Errorf("FillColor() = %v, want transparent black", got)
	}
}

func TestLoadLogsThroughSharedLogger(t *testing.T) {
	var buf bytes.Buffer
	orig := shapes.Logger()
	shapes.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { shapes.SetLogger(orig) })

	path := filepath.Join(t.TempDir(), "shapes.yaml")
	if err := os.WriteFile(path, []byte("frames: 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "config: loaded") {
		t.Errorf("load not logged through shapes.Logger:\n%s", buf.String())
	}
}
