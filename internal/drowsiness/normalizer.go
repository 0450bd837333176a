package drowsiness

import (
	"image"

	"golang.org/x/image/draw"
)

const PatchSize = 24

var TensorShape = [4]int{1, PatchSize, PatchSize, 1}

// Tensor is a dense NHWC float tensor.
type Tensor struct {
	Shape [4]int
	Data  []float32
}

func (t Tensor) Len() int {
	return t.Shape[0] * t.Shape[1] * t.Shape[2] * t.Shape[3]
}

// Normalize turns an eye patch into the (1,24,24,1) tensor the classifier
// expects. The whole patch is resampled into the grid, never cropped.
func Normalize(patch image.Image) (Tensor, error) {
	if patch == nil {
		return Tensor{}, ErrEmptyPatch
	}

	src := patch.Bounds()
	if src.Dx() <= 0 || src.Dy() <= 0 {
		return Tensor{}, ErrEmptyPatch
	}

	gray := image.NewGray(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(gray, gray.Rect, patch, src.Min, draw.Src)

	// BiLinear widens its support when shrinking, so every source pixel
	// contributes to the output like an area average.
	scaled := image.NewGray(image.Rect(0, 0, PatchSize, PatchSize))
	draw.BiLinear.Scale(scaled, scaled.Rect, gray, gray.Rect, draw.Src, nil)

	data := make([]float32, PatchSize*PatchSize)
	for y := 0; y < PatchSize; y++ {
		for x := 0; x < PatchSize; x++ {
			data[y*PatchSize+x] = float32(scaled.GrayAt(x, y).Y) / 255
		}
	}

	return Tensor{Shape: TensorShape, Data: data}, nil
}
