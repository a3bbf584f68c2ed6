package display

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PNG writes each frame to a file. It backs the render-only mode and the
// /preview.png endpoint.
type PNG struct {
	path string
}

func NewPNG(path string) *PNG {
	return &PNG{path: path}
}

// Path returns the output file path.
func (p *PNG) Path() string { return p.path }

// Show writes img atomically: readers of the preview never see a partial
// file.
func (p *PNG) Show(img *image.RGBA) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("display: create preview dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".preview-*.png")
	if err != nil {
		return fmt.Errorf("display: create preview: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("display: encode preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, p.path)
}

func (p *PNG) Close() error { return nil }
