package cpu

import (
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

const (
	ScreenWidth  = 512
	ScreenHeight = 256
)

// GetFramebufferRGBA decodes the screen memory map into a 512×256 RGBA8888
// byte slice. Each RAM word holds 16 pixels, least significant bit leftmost;
// a set bit is black.
func (c *CPU) GetFramebufferRGBA() []byte {
	pixels := make([]byte, ScreenWidth*ScreenHeight*4)
	for wordIdx := 0; wordIdx < ScreenWords; wordIdx++ {
		word := c.RAM[int(ScreenBase)+wordIdx]
		row := wordIdx / (ScreenWidth / 16)
		col := (wordIdx % (ScreenWidth / 16)) * 16
		for bit := 0; bit < 16; bit++ {
			var shade byte = 0xFF
			if word&(1<<bit) != 0 {
				shade = 0x00
			}
			p := (row*ScreenWidth + col + bit) * 4
			pixels[p+0] = shade
			pixels[p+1] = shade
			pixels[p+2] = shade
			pixels[p+3] = 0xFF
		}
	}
	return pixels
}

// GetFramebufferImage returns the screen as an *image.RGBA.
func (c *CPU) GetFramebufferImage() *image.RGBA {
	return &image.RGBA{
		Pix:    c.GetFramebufferRGBA(),
		Stride: ScreenWidth * 4,
		Rect:   image.Rect(0, 0, ScreenWidth, ScreenHeight),
	}
}

// SaveScreenshot encodes the screen as a PNG, enlarged by scale with
// nearest-neighbour sampling so single pixels stay crisp.
func (c *CPU) SaveScreenshot(filename string, scale int) error {
	var img image.Image = c.GetFramebufferImage()
	if scale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, ScreenWidth*scale, ScreenHeight*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
