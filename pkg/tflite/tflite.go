package tflite

import (
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-tflite"
	"github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("model is closed")

type IModel interface {
	Predict(input []float32) ([]float32, error)
	Close()
}

// model owns one loaded flatbuffer and a fixed pool of interpreters. An
// interpreter is never used by two goroutines at once.
type model struct {
	model        *tflite.Model
	options      *tflite.InterpreterOptions
	interpreters []*tflite.Interpreter
	pool         chan *tflite.Interpreter
	inputLen     int
	outputLen    int
	log          *logrus.Logger
}

func New(path string, poolSize int, log *logrus.Logger) (IModel, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	if poolSize < 1 {
		poolSize = 1
	}

	tfModel := tflite.NewModelFromFile(path)
	if tfModel == nil {
		return nil, fmt.Errorf("model %s: cannot load", path)
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(1)
	options.SetErrorReporter(func(msg string, _ interface{}) {
		log.WithField("model", path).Error(msg)
	}, nil)

	m := &model{
		model:   tfModel,
		options: options,
		pool:    make(chan *tflite.Interpreter, poolSize),
		log:     log,
	}

	for i := 0; i < poolSize; i++ {
		interpreter := tflite.NewInterpreter(tfModel, options)
		if interpreter == nil {
			m.Close()
			return nil, fmt.Errorf("model %s: cannot create interpreter", path)
		}
		if status := interpreter.AllocateTensors(); status != tflite.OK {
			interpreter.Delete()
			m.Close()
			return nil, fmt.Errorf("model %s: allocate tensors: status %d", path, status)
		}
		m.interpreters = append(m.interpreters, interpreter)
		m.pool <- interpreter
	}

	if err := m.inspect(m.interpreters[0]); err != nil {
		m.Close()
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{
		"model":        path,
		"interpreters": poolSize,
		"input_len":    m.inputLen,
		"output_len":   m.outputLen,
	}).Info("Classifier model loaded")

	return m, nil
}

func (m *model) inspect(interpreter *tflite.Interpreter) error {
	input := interpreter.GetInputTensor(0)
	output := interpreter.GetOutputTensor(0)
	if input == nil || output == nil {
		return errors.New("missing input or output tensor")
	}
	if input.Type() != tflite.Float32 || output.Type() != tflite.Float32 {
		return fmt.Errorf("expected float32 tensors, got %v -> %v", input.Type(), output.Type())
	}

	m.inputLen = elements(input)
	m.outputLen = elements(output)
	return nil
}

func elements(t *tflite.Tensor) int {
	n := 1
	for i := 0; i < t.NumDims(); i++ {
		n *= t.Dim(i)
	}
	return n
}

func (m *model) Predict(input []float32) ([]float32, error) {
	if len(input) != m.inputLen {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), m.inputLen)
	}

	interpreter, ok := <-m.pool
	if !ok {
		return nil, ErrClosed
	}
	defer func() { m.pool <- interpreter }()

	if err := interpreter.GetInputTensor(0).SetFloat32s(input); err != nil {
		return nil, fmt.Errorf("set input: %w", err)
	}
	if status := interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("invoke: status %d", status)
	}

	out := interpreter.GetOutputTensor(0).Float32s()
	scores := make([]float32, len(out))
	copy(scores, out)
	return scores, nil
}

// Close waits for in-flight predictions to return their interpreters.
func (m *model) Close() {
	for range m.interpreters {
		interpreter := <-m.pool
		interpreter.Delete()
	}
	m.interpreters = nil
	close(m.pool)

	if m.options != nil {
		m.options.Delete()
	}
	if m.model != nil {
		m.model.Delete()
	}
}
