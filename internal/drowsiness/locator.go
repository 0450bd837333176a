package drowsiness

import (
	"fmt"
	"image"
)

// Detector proposes candidate regions in a grayscale image. Results come
// back in the detector's own scan order.
type Detector interface {
	Detect(gray *image.Gray) ([]image.Rectangle, error)
}

type DetectorFunc func(gray *image.Gray) ([]image.Rectangle, error)

func (fn DetectorFunc) Detect(gray *image.Gray) ([]image.Rectangle, error) {
	return fn(gray)
}

type Regions struct {
	Faces     []Rectangle
	LeftEyes  []Rectangle
	RightEyes []Rectangle
}

type IRegionLocator interface {
	Locate(frame Frame) (Regions, error)
}

type RegionLocator struct {
	face     Detector
	leftEye  Detector
	rightEye Detector
}

// NewRegionLocator wires the three detectors. face may be nil, in which case
// no faces are ever reported.
func NewRegionLocator(face, leftEye, rightEye Detector) *RegionLocator {
	return &RegionLocator{
		face:     face,
		leftEye:  leftEye,
		rightEye: rightEye,
	}
}

func (l *RegionLocator) Locate(frame Frame) (Regions, error) {
	if err := frame.Validate(); err != nil {
		return Regions{}, err
	}

	gray := frame.Gray()

	faces, err := runDetector(l.face, gray)
	if err != nil {
		return Regions{}, fmt.Errorf("face detector: %w", err)
	}

	leftEyes, err := runDetector(l.leftEye, gray)
	if err != nil {
		return Regions{}, fmt.Errorf("left eye detector: %w", err)
	}

	rightEyes, err := runDetector(l.rightEye, gray)
	if err != nil {
		return Regions{}, fmt.Errorf("right eye detector: %w", err)
	}

	return Regions{
		Faces:     faces,
		LeftEyes:  leftEyes,
		RightEyes: rightEyes,
	}, nil
}

func runDetector(d Detector, gray *image.Gray) ([]Rectangle, error) {
	if d == nil {
		return nil, nil
	}

	found, err := d.Detect(gray)
	if err != nil {
		return nil, err
	}

	rects := make([]Rectangle, 0, len(found))
	for _, r := range found {
		rects = append(rects, rectangleFrom(r))
	}
	return rects, nil
}
