package app

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Snapshot errors.
var (
	// ErrNoFramebuffer is returned for surfaces whose pixels cannot be read
	// back. Only the software backend exposes its framebuffer.
	ErrNoFramebuffer = errors.New("app: surface has no readable framebuffer")

	// ErrUnknownImageFormat is returned for unsupported output extensions.
	ErrUnknownImageFormat = errors.New("app: unknown image format")
)

// framebufferReader is implemented by surfaces that keep their pixels in
// memory. The data is RGBA, row-major, without padding.
type framebufferReader interface {
	GetFramebuffer() []byte
}

// Snapshot copies the last presented frame.
func (a *App) Snapshot() (*image.RGBA, error) {
	w, h := a.Size()
	return SnapshotSurface(a.Surface(), w, h)
}

// SnapshotSurface reads the framebuffer of s as a width x height image.
func SnapshotSurface(s hal.Surface, width, height uint32) (*image.RGBA, error) {
	fb, ok := s.(framebufferReader)
	if !ok {
		return nil, ErrNoFramebuffer
	}
	data := fb.GetFramebuffer()
	if want := int(width) * int(height) * 4; want == 0 || len(data) < want {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrNoFramebuffer, len(data), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	copy(img.Pix, data)
	return img, nil
}

// EncodeImage writes img in format: "png", "bmp" or "tiff".
func EncodeImage(w io.Writer, format string, img image.Image) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	case "tif", "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %q", ErrUnknownImageFormat, format)
}

// WriteImage encodes img to path, choosing the format from the extension.
func WriteImage(path string, img image.Image) (err error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	switch strings.ToLower(format) {
	case "png", "bmp", "tif", "tiff":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownImageFormat, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("app: snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := EncodeImage(f, format, img); err != nil {
		return fmt.Errorf("app: snapshot: %w", err)
	}
	return nil
}
