package cascade

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

type Params struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
}

// OpenCV's own detectMultiScale defaults.
var DefaultParams = Params{
	ScaleFactor:  1.1,
	MinNeighbors: 3,
	MinSize:      0,
}

// Classifier is a Haar cascade detector. A single cascade is not safe for
// concurrent detectMultiScale calls, so detections are serialized.
type Classifier struct {
	name       string
	classifier gocv.CascadeClassifier
	params     Params
	mu         sync.Mutex
}

func Load(path string, params Params) (*Classifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cascade %s: %w", path, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("cascade %s: failed to load", path)
	}

	if params.ScaleFactor <= 1 {
		params.ScaleFactor = DefaultParams.ScaleFactor
	}

	return &Classifier{
		name:       path,
		classifier: classifier,
		params:     params,
	}, nil
}

func (c *Classifier) Detect(gray *image.Gray) ([]image.Rectangle, error) {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, fmt.Errorf("cascade %s: convert frame: %w", c.name, err)
	}
	defer mat.Close()

	minSize := image.Pt(c.params.MinSize, c.params.MinSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.classifier.DetectMultiScaleWithParams(
		mat,
		c.params.ScaleFactor,
		c.params.MinNeighbors,
		0,
		minSize,
		image.Point{},
	), nil
}

func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Close()
}
