package main

import (
	"time"

	"github.com/maheshmm7/DriveGaurdAI/internal/cli"
	"github.com/maheshmm7/DriveGaurdAI/internal/config"
	"github.com/maheshmm7/DriveGaurdAI/internal/drowsiness"
	"github.com/maheshmm7/DriveGaurdAI/internal/pipeline"
	"github.com/sirupsen/logrus"
)

func main() {
	cli.Execute(func(cfg config.PipelineConfig, log *logrus.Logger) (drowsiness.IEvaluator, func() error, error) {
		p, err := pipeline.New(cfg, log)
		if err != nil {
			return nil, nil, err
		}

		release := func() error {
			p.WaitAlarm(10 * time.Second)
			return p.Close()
		}
		return p.Evaluator, release, nil
	})
}
