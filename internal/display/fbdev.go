package display

import (
	"fmt"
	"image"
	"os"
	"sync"

	"toddlerclock/internal/convert"
)

// Framebuffer writes RGB565 frames to a Linux fbdev device such as the
// PiTFT's /dev/fb1. The device must already be configured for 16bpp at
// width x height with no row padding.
type Framebuffer struct {
	mu     sync.Mutex
	f      *os.File
	width  int
	height int
}

// OpenFramebuffer opens device for writing.
func OpenFramebuffer(device string, width, height int) (*Framebuffer, error) {
	f, err := os.OpenFile(device, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("display: open framebuffer %s: %w", device, err)
	}
	return &Framebuffer{f: f, width: width, height: height}, nil
}

func (fb *Framebuffer) Show(img *image.RGBA) error {
	buf, err := convert.PackRGB565(img, fb.width, fb.height)
	if err != nil {
		return err
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.f == nil {
		return os.ErrClosed
	}
	if _, err := fb.f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("display: write framebuffer: %w", err)
	}
	return nil
}

func (fb *Framebuffer) Close() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.f == nil {
		return nil
	}
	err := fb.f.Close()
	fb.f = nil
	return err
}
