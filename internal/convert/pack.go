package convert

import (
	"fmt"
	"image"
)

// BytesPerPixel is the framebuffer depth used by small SPI TFTs (PiTFT,
// Waveshare 3.5"): 16bpp RGB565.
const BytesPerPixel = 2

// PackRGB565 converts img into little-endian RGB565 rows of exactly
// width x height pixels, the layout fbtft devices expect.
//
//   - img must be at least width x height; extra pixels on the right or
//     bottom are cropped.
//   - alpha is ignored; the frame is always opaque.
//   - byteIndex = (y*width + x) * 2, low byte first.
func PackRGB565(img *image.RGBA, width, height int) ([]byte, error) {
	b := img.Bounds()
	if b.Dx() < width || b.Dy() < height {
		return nil, fmt.Errorf("convert: image %dx%d smaller than %dx%d", b.Dx(), b.Dy(), width, height)
	}

	out := make([]byte, width*height*BytesPerPixel)
	for y := 0; y < height; y++ {
		rowOff := y * img.Stride
		for x := 0; x < width; x++ {
			i := rowOff + x*4
			px := RGB565(img.Pix[i+0], img.Pix[i+1], img.Pix[i+2])

			o := (y*width + x) * BytesPerPixel
			out[o] = byte(px)
			out[o+1] = byte(px >> 8)
		}
	}
	return out, nil
}

// RGB565 packs an 8-bit-per-channel colour into 5/6/5 bits.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}
