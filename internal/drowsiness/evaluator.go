package drowsiness

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusAlert  Status = "Alert"
	StatusDrowsy Status = "Drowsy"
)

// AlertSink plays the audible alarm. Trigger must be safe to call while the
// alarm is already sounding and must never block on playback.
type AlertSink interface {
	Trigger()
	Stop()
}

type NopAlertSink struct{}

func (NopAlertSink) Trigger() {}
func (NopAlertSink) Stop()    {}

type Verdict struct {
	Status    Status
	EyeStates []EyeLabel
	Faces     []Rectangle
}

type IEvaluator interface {
	Evaluate(frame Frame) (Verdict, error)
}

type Evaluator struct {
	locator     IRegionLocator
	classifier  IEyeStateClassifier
	sink        AlertSink
	stopOnAlert bool
	log         *logrus.Logger
}

type Option func(*Evaluator)

// WithStopOnAlert makes an Alert verdict silence a sounding alarm.
func WithStopOnAlert(stop bool) Option {
	return func(e *Evaluator) {
		e.stopOnAlert = stop
	}
}

func WithLogger(log *logrus.Logger) Option {
	return func(e *Evaluator) {
		e.log = log
	}
}

func NewEvaluator(locator IRegionLocator, classifier IEyeStateClassifier, sink AlertSink, opts ...Option) *Evaluator {
	if sink == nil {
		sink = NopAlertSink{}
	}

	silent := logrus.New()
	silent.SetOutput(io.Discard)

	e := &Evaluator{
		locator:    locator,
		classifier: classifier,
		sink:       sink,
		log:        silent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs one frame through the pipeline. Only frame-level problems
// and unexpected detector or model failures are returned; a degenerate eye
// region just drops that eye from the verdict.
func (e *Evaluator) Evaluate(frame Frame) (Verdict, error) {
	if err := frame.Validate(); err != nil {
		return Verdict{}, err
	}

	regions, err := e.locator.Locate(frame)
	if err != nil {
		return Verdict{}, err
	}

	states := make([]EyeLabel, 0, 2)

	for _, eye := range []struct {
		side  string
		rects []Rectangle
	}{
		{side: "right", rects: regions.RightEyes},
		{side: "left", rects: regions.LeftEyes},
	} {
		label, ok, err := e.classifyFirst(frame, eye.rects)
		if err != nil {
			return Verdict{}, err
		}
		if !ok {
			e.log.WithFields(logrus.Fields{
				"eye":        eye.side,
				"candidates": len(eye.rects),
			}).Debug("No usable eye region")
			continue
		}
		states = append(states, label)
	}

	verdict := Verdict{
		Status:    Decide(states),
		EyeStates: states,
		Faces:     regions.Faces,
	}

	switch {
	case verdict.Status == StatusDrowsy:
		e.sink.Trigger()
	case e.stopOnAlert:
		e.sink.Stop()
	}

	e.log.WithFields(logrus.Fields{
		"status":     verdict.Status,
		"eye_states": verdict.EyeStates,
		"faces":      len(verdict.Faces),
	}).Debug("Frame evaluated")

	return verdict, nil
}

// classifyFirst only looks at the first candidate. Detector order is
// positional, not a confidence ranking.
func (e *Evaluator) classifyFirst(frame Frame, rects []Rectangle) (EyeLabel, bool, error) {
	if len(rects) == 0 {
		return "", false, nil
	}

	tensor, err := Normalize(frame.Crop(rects[0]))
	if errors.Is(err, ErrEmptyPatch) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	label, err := e.classifier.Classify(tensor)
	if err != nil {
		return "", false, err
	}
	return label, true, nil
}

// Decide is the aggregation rule: any closed eye means drowsy. No eyes at
// all counts as alert.
func Decide(states []EyeLabel) Status {
	for _, s := range states {
		if s == EyeClose {
			return StatusDrowsy
		}
	}
	return StatusAlert
}
