package drowsiness

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	ErrInvalidFrame = errors.New("invalid frame")
	ErrEmptyPatch   = errors.New("empty eye patch")
)

// Frame is one still image. It is never mutated after construction.
type Frame struct {
	img *image.RGBA
}

type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func rectangleFrom(r image.Rectangle) Rectangle {
	return Rectangle{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

func (r Rectangle) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rectangle) bounds() image.Rectangle {
	return image.Rectangle{
		Min: image.Point{X: r.X, Y: r.Y},
		Max: image.Point{X: r.X + r.Width, Y: r.Y + r.Height},
	}
}

func NewFrame(img image.Image) (Frame, error) {
	if img == nil {
		return Frame{}, fmt.Errorf("%w: nil image", ErrInvalidFrame)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Frame{}, fmt.Errorf("%w: zero dimensions %dx%d", ErrInvalidFrame, b.Dx(), b.Dy())
	}

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	return Frame{img: rgba}, nil
}

// NewFrameFromPixels builds a frame from an interleaved 8-bit RGB buffer.
func NewFrameFromPixels(pix []byte, width, height, channels int) (Frame, error) {
	if width <= 0 || height <= 0 {
		return Frame{}, fmt.Errorf("%w: zero dimensions %dx%d", ErrInvalidFrame, width, height)
	}
	if channels != 3 {
		return Frame{}, fmt.Errorf("%w: expected 3 channels, got %d", ErrInvalidFrame, channels)
	}
	if len(pix) != width*height*channels {
		return Frame{}, fmt.Errorf("%w: buffer holds %d bytes, want %d", ErrInvalidFrame, len(pix), width*height*channels)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		rgba.Pix[j] = pix[i]
		rgba.Pix[j+1] = pix[i+1]
		rgba.Pix[j+2] = pix[i+2]
		rgba.Pix[j+3] = 0xff
	}

	return Frame{img: rgba}, nil
}

func DecodeFrame(r io.Reader) (Frame, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return NewFrame(img)
}

func (f Frame) Validate() error {
	if f.img == nil {
		return fmt.Errorf("%w: empty frame", ErrInvalidFrame)
	}
	if f.img.Rect.Dx() <= 0 || f.img.Rect.Dy() <= 0 {
		return fmt.Errorf("%w: zero dimensions", ErrInvalidFrame)
	}
	return nil
}

func (f Frame) Width() int {
	if f.img == nil {
		return 0
	}
	return f.img.Rect.Dx()
}

func (f Frame) Height() int {
	if f.img == nil {
		return 0
	}
	return f.img.Rect.Dy()
}

func (f Frame) Image() image.Image {
	return f.img
}

func (f Frame) Gray() *image.Gray {
	gray := image.NewGray(f.img.Rect)
	draw.Draw(gray, gray.Rect, f.img, f.img.Rect.Min, draw.Src)
	return gray
}

// Crop returns the part of r that lies inside the frame. The result shares
// pixels with the frame and may be empty.
func (f Frame) Crop(r Rectangle) image.Image {
	if f.img == nil || r.Empty() {
		return image.NewRGBA(image.Rectangle{})
	}
	return f.img.SubImage(r.bounds().Intersect(f.img.Rect))
}
