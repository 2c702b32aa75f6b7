package app

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/shapes/internal/gputest"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// pixelSurface is a surface with an in-memory framebuffer.
type pixelSurface struct {
	gputest.Surface
	pix []byte
}

func (s *pixelSurface) GetFramebuffer() []byte { return s.pix }

func checker(w, h int) []byte {
	pix := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		if (i%w+i/w)%2 == 0 {
			copy(pix[i*4:], []byte{255, 0, 0, 255})
		} else {
			copy(pix[i*4:], []byte{0, 0, 255, 255})
		}
	}
	return pix
}

func TestSnapshotSurface(t *testing.T) {
	s := &pixelSurface{pix: checker(4, 3)}
	img, err := SnapshotSurface(s, 4, 3)
	if err != nil {
		t.Fatalf("SnapshotSurface: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("(0,0) = %v, want red", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("(1,0) = %v, want blue", got)
	}

	s.pix[0] = 7
	if img.Pix[0] == 7 {
		t.Error("snapshot shares the framebuffer")
	}
}

func TestSnapshotSurfaceErrors(t *testing.T) {
	if _, err := SnapshotSurface(gputest.NewSurface(), 4, 4); !errors.Is(err, ErrNoFramebuffer) {
		t.Errorf("surface without framebuffer: err = %v", err)
	}
	short := &pixelSurface{pix: make([]byte, 8)}
	if _, err := SnapshotSurface(short, 4, 4); !errors.Is(err, ErrNoFramebuffer) {
		t.Errorf("short framebuffer: err = %v", err)
	}
	if _, err := SnapshotSurface(short, 0, 4); !errors.Is(err, ErrNoFramebuffer) {
		t.Errorf("zero size: err = %v", err)
	}
}

func TestWriteImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	copy(img.Pix, checker(4, 3))
	dir := t.TempDir()

	decoders := map[string]func([]byte) (image.Image, error){
		"out.png":  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		"out.bmp":  func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
		"out.tiff": func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
		"OUT.TIF":  func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
	}
	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := WriteImage(path, img); err != nil {
				t.Fatalf("WriteImage: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			got, err := decode(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Bounds().Dx() != 4 || got.Bounds().Dy() != 3 {
				t.Fatalf("bounds = %v", got.Bounds())
			}
			r, g, b, _ := got.At(1, 0).RGBA()
			if r != 0 || g != 0 || b != 0xffff {
				t.Errorf("(1,0) = %d,%d,%d, want blue", r, g, b)
			}
		})
	}
}

func TestWriteImageUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jpg")
	err := WriteImage(path, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, ErrUnknownImageFormat) {
		t.Fatalf("err = %v, want ErrUnknownImageFormat", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("file created for unknown format")
	}
}

func TestEncodeImageUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeImage(&buf, "gif", image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrUnknownImageFormat) {
		t.Errorf("err = %v", err)
	}
}
