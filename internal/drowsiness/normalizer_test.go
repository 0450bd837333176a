package drowsiness

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func TestNormalizeShapeAndRange(t *testing.T) {
	sizes := []struct {
		w, h int
	}{
		{10, 10},
		{24, 24},
		{200, 150},
		{1, 1},
		{3, 97},
	}

	for _, s := range sizes {
		t.Run(image.Pt(s.w, s.h).String(), func(t *testing.T) {
			tensor, err := Normalize(gradientImage(s.w, s.h))
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if tensor.Shape != [4]int{1, 24, 24, 1} {
				t.Fatalf("shape = %v", tensor.Shape)
			}
			if len(tensor.Data) != 24*24 {
				t.Fatalf("len(data) = %d", len(tensor.Data))
			}
			for i, v := range tensor.Data {
				if v < 0 || v > 1 {
					t.Fatalf("data[%d] = %f out of [0,1]", i, v)
				}
			}
		})
	}
}

func TestNormalizeBlackPatchIsZero(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	tensor, err := Normalize(img)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for i, v := range tensor.Data {
		if v != 0 {
			t.Fatalf("data[%d] = %f, want 0", i, v)
		}
	}
}

func TestNormalizeUsesPatchOrigin(t *testing.T) {
	img := gradientImage(100, 100)
	sub := img.SubImage(image.Rect(50, 50, 74, 74))

	tensor, err := Normalize(sub)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if tensor.Data[0] == 0 {
		t.Fatalf("top-left sample should come from the sub image origin, got 0")
	}
}

func TestNormalizeEmptyPatch(t *testing.T) {
	tests := []struct {
		name  string
		patch image.Image
	}{
		{"nil", nil},
		{"zero width", image.NewRGBA(image.Rect(0, 0, 0, 10))},
		{"zero height", image.NewRGBA(image.Rect(0, 0, 10, 0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.patch)
			if !errors.Is(err, ErrEmptyPatch) {
				t.Fatalf("err = %v, want ErrEmptyPatch", err)
			}
		})
	}
}
