package drowsiness

import (
	"errors"
	"fmt"
)

var (
	ErrTensorShape = errors.New("tensor shape must be (1,24,24,1)")
	ErrModelOutput = errors.New("model must return two class scores")
)

type EyeLabel string

const (
	EyeClose EyeLabel = "Close"
	EyeOpen  EyeLabel = "Open"
)

// labels is indexed by the model's output position. Any substituted model
// must keep this order.
var labels = [2]EyeLabel{EyeClose, EyeOpen}

// Model scores a flattened (1,24,24,1) input and returns [P(Close), P(Open)].
type Model interface {
	Predict(input []float32) ([]float32, error)
}

type IEyeStateClassifier interface {
	Classify(t Tensor) (EyeLabel, error)
}

type EyeStateClassifier struct {
	model Model
}

func NewEyeStateClassifier(model Model) *EyeStateClassifier {
	return &EyeStateClassifier{model: model}
}

func (c *EyeStateClassifier) Classify(t Tensor) (EyeLabel, error) {
	if t.Shape != TensorShape || len(t.Data) != t.Len() {
		return "", ErrTensorShape
	}

	scores, err := c.model.Predict(t.Data)
	if err != nil {
		return "", fmt.Errorf("predict: %w", err)
	}
	if len(scores) != len(labels) {
		return "", fmt.Errorf("%w: got %d", ErrModelOutput, len(scores))
	}

	return labels[argmax(scores)], nil
}

// argmax returns the first index holding the maximum value.
func argmax(scores []float32) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}
