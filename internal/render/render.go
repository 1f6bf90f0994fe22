// Package render turns decoded TIM2 frames into PNG files.
package render

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/anthonynsimon/bild/imgio"
	xdraw "golang.org/x/image/draw"

	"github.com/ossyrian/pacparse/internal/tim2"
)

// ErrBufferSize is returned when the pixel buffer does not match the
// requested dimensions.
var ErrBufferSize = errors.New("render: pixel buffer size mismatch")

// NewImage wraps tightly packed RGBA8 bytes in an image, upscaled by an
// integer factor with nearest-neighbour sampling when scale > 1.
func NewImage(width, height int, rgba []byte, scale int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBufferSize, width, height)
	}
	if len(rgba) != width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrBufferSize, len(rgba), width, height)
	}

	src := &image.NRGBA{
		Pix:    rgba,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	if scale <= 1 {
		return src, nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width*scale, height*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// EncodePNG writes the RGBA8 buffer as a PNG to w.
func EncodePNG(w io.Writer, width, height int, rgba []byte, scale int) error {
	img, err := NewImage(width, height, rgba, scale)
	if err != nil {
		return err
	}
	return imgio.PNGEncoder()(w, img)
}

// WritePNG writes the RGBA8 buffer as a PNG file at path.
func WritePNG(path string, width, height int, rgba []byte, scale int) error {
	img, err := NewImage(width, height, rgba, scale)
	if err != nil {
		return err
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteFrame renders the first frame of img to path. Frames with mipmaps are
// not rendered; the returned bool reports whether a file was written.
func WriteFrame(path string, img *tim2.Image, key *tim2.Pixel, scale int) (bool, error) {
	if len(img.Frames) == 0 {
		return false, nil
	}

	f := img.Frames[0]
	if f.Header.HasMipmaps() {
		return false, nil
	}

	if err := WritePNG(path, f.Width(), f.Height(), f.ToRaw(key), scale); err != nil {
		return false, err
	}
	return true, nil
}
