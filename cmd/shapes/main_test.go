package main

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/shapes"
	"github.com/gogpu/shapes/app"
	"github.com/gogpu/shapes/config"
)

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -2 && d <= 2
}

// The software backend clears the target but does not rasterize indexed
// draws, so a snapshot of a full scene is the clear color everywhere.
func TestSoftwareSnapshotShowsClearColor(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "software"
	cfg.Frames = 2
	cfg.Window.Width, cfg.Window.Height = 40, 20
	cfg.Scene = []config.Shape{
		{Kind: "rectangle", W: 1.5, H: 1.5, Fill: "#ff0000"},
		{Kind: "ellipse", W: 1, H: 1, Fill: "#00ff00"},
	}

	a, err := app.Open(app.NewHeadlessHost(cfg.Window.Width, cfg.Window.Height), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := saveSnapshot(a, path); err != nil {
		t.Fatalf("saveSnapshot: %v", err)
	}
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatal(err)
	}

	b := img.Bounds()
	if b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("snapshot is %v, want 40x20", b)
	}
	c := shapes.DefaultClearColor
	want := [4]uint8{uint8(c.R * 255), uint8(c.G * 255), uint8(c.B * 255), 255}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, al := img.At(x, y).RGBA()
			got := [4]uint8{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), uint8(al >> 8)}
			for i := range got {
				if !near(got[i], want[i]) {
					t.Fatalf("pixel (%d,%d) = %v, want clear color %v", x, y, got, want)
				}
			}
		}
	}
	if img.At(20, 10) != img.At(0, 0) {
		t.Errorf("center %v differs from corner %v", img.At(20, 10), img.At(0, 0))
	}
}
