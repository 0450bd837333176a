package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/maheshmm7/DriveGaurdAI/internal/config"
	"github.com/maheshmm7/DriveGaurdAI/internal/drowsiness"
	"github.com/maheshmm7/DriveGaurdAI/pkg/alarm"
	"github.com/maheshmm7/DriveGaurdAI/pkg/cascade"
	"github.com/maheshmm7/DriveGaurdAI/pkg/tflite"
	"github.com/sirupsen/logrus"
)

// Pipeline owns the loaded artifacts behind an Evaluator. Every artifact is
// loaded in New, so a Pipeline that exists is ready to serve.
type Pipeline struct {
	Evaluator *drowsiness.Evaluator
	Alarm     *alarm.Alarm

	closers []func() error
	log     *logrus.Logger
}

func New(cfg config.PipelineConfig, log *logrus.Logger) (*Pipeline, error) {
	p := &Pipeline{log: log}

	var face drowsiness.Detector
	if cfg.Detector.Face.Cascade != "" {
		c, err := p.loadCascade("face", cfg.Detector.Face)
		if err != nil {
			return nil, err
		}
		face = c
	} else {
		log.Warn("Face cascade not configured, face detection disabled")
	}

	leftEye, err := p.loadCascade("left_eye", cfg.Detector.LeftEye)
	if err != nil {
		return nil, err
	}
	rightEye, err := p.loadCascade("right_eye", cfg.Detector.RightEye)
	if err != nil {
		return nil, err
	}

	model, err := tflite.New(cfg.ModelPath, cfg.PoolSize, log)
	if err != nil {
		p.Close()
		return nil, err
	}
	p.closers = append(p.closers, func() error {
		model.Close()
		return nil
	})

	var sink drowsiness.AlertSink = drowsiness.NopAlertSink{}
	if cfg.AlarmEnabled {
		player, err := alarm.NewSpeakerPlayer(cfg.AlarmSound, log)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Alarm = alarm.New(player, log)
		sink = p.Alarm
	}

	p.Evaluator = drowsiness.NewEvaluator(
		drowsiness.NewRegionLocator(face, leftEye, rightEye),
		drowsiness.NewEyeStateClassifier(model),
		sink,
		drowsiness.WithStopOnAlert(cfg.StopOnAlert),
		drowsiness.WithLogger(log),
	)

	log.WithFields(logrus.Fields{
		"model":         cfg.ModelPath,
		"pool_size":     cfg.PoolSize,
		"alarm":         cfg.AlarmEnabled,
		"stop_on_alert": cfg.StopOnAlert,
	}).Info("Drowsiness pipeline ready")

	return p, nil
}

func (p *Pipeline) loadCascade(name string, cc config.CascadeConfig) (*cascade.Classifier, error) {
	c, err := cascade.Load(cc.Cascade, cascade.Params{
		ScaleFactor:  cc.ScaleFactor,
		MinNeighbors: cc.MinNeighbors,
		MinSize:      cc.MinSize,
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	p.log.WithFields(logrus.Fields{
		"detector":      name,
		"cascade":       cc.Cascade,
		"min_neighbors": cc.MinNeighbors,
		"min_size":      cc.MinSize,
	}).Debug("Cascade loaded")

	p.closers = append(p.closers, c.Close)
	return c, nil
}

// WaitAlarm blocks until a playing alarm finishes or timeout passes.
func (p *Pipeline) WaitAlarm(timeout time.Duration) {
	if p.Alarm == nil {
		return
	}
	deadline := time.Now().Add(timeout)
	for p.Alarm.Playing() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
}

// Close silences the alarm and releases the artifacts in reverse load order.
func (p *Pipeline) Close() error {
	if p.Alarm != nil {
		p.Alarm.Stop()
	}

	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil

	return errors.Join(errs...)
}
