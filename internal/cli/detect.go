package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/maheshmm7/DriveGaurdAI/internal/config"
	"github.com/maheshmm7/DriveGaurdAI/internal/drowsiness"
	"github.com/maheshmm7/DriveGaurdAI/pkg/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type detectOptions struct {
	alarm       bool
	stopOnAlert bool
	workers     int
}

// Result is one line of detect or stream output.
type Result struct {
	File      string   `json:"file"`
	Status    string   `json:"status,omitempty"`
	EyeStates []string `json:"eye_states"`
	Faces     int      `json:"faces"`
	Error     string   `json:"error,omitempty"`
}

func newDetectCommand(factory EvaluatorFactory) *cobra.Command {
	var opts detectOptions

	cmd := &cobra.Command{
		Use:   "detect [images...]",
		Short: "Evaluate image files locally and print one JSON verdict per file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPipelineConfig()
			if err != nil {
				return err
			}
			cfg.AlarmEnabled = opts.alarm
			cfg.StopOnAlert = opts.stopOnAlert
			if opts.workers > 0 && cfg.PoolSize > opts.workers {
				cfg.PoolSize = opts.workers
			}

			evaluator, release, err := factory(cfg, log.NewLogger())
			if err != nil {
				return fmt.Errorf("load pipeline: %w", err)
			}
			defer release()

			return runDetect(cmd.Context(), evaluator, args, opts.workers, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVar(&opts.alarm, "alarm", false, "Play the alarm sound on a Drowsy verdict")
	cmd.Flags().BoolVar(&opts.stopOnAlert, "stop-on-alert", false, "Silence the alarm on an Alert verdict")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "Number of images evaluated in parallel")

	return cmd
}

// runDetect evaluates paths with at most workers in flight and writes the
// results in input order.
func runDetect(ctx context.Context, evaluator drowsiness.IEvaluator, paths []string, workers int, out, errOut io.Writer) error {
	if workers < 1 {
		workers = 1
	}

	var bar *progressbar.ProgressBar
	if len(paths) > 1 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Evaluating"),
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionShowCount(),
		)
	}

	results := make([]Result, len(paths))
	var mu sync.Mutex
	failed := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = evaluateFile(evaluator, path)
			if results[i].Error != "" {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(errOut)
	}

	enc := jsoniter.NewEncoder(out)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(paths))
	}
	return nil
}

func evaluateFile(evaluator drowsiness.IEvaluator, path string) Result {
	result := Result{File: path}

	f, err := os.Open(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer f.Close()

	frame, err := drowsiness.DecodeFrame(f)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	verdict, err := evaluator.Evaluate(frame)
	if err != nil {
		if errors.Is(err, drowsiness.ErrInvalidFrame) {
			result.Error = drowsiness.ErrInvalidFrame.Error()
		} else {
			result.Error = err.Error()
		}
		return result
	}

	result.Status = string(verdict.Status)
	result.Faces = len(verdict.Faces)
	result.EyeStates = make([]string, 0, len(verdict.EyeStates))
	for _, state := range verdict.EyeStates {
		result.EyeStates = append(result.EyeStates, string(state))
	}
	return result
}
