package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// PipelineConfig locates the artifacts the evaluator is built from.
type PipelineConfig struct {
	Detector     DetectorConfig
	ModelPath    string
	PoolSize     int
	AlarmEnabled bool
	AlarmSound   string
	StopOnAlert  bool
}

func LoadPipelineConfig() (PipelineConfig, error) {
	detector, err := LoadDetectorConfig("")
	if err != nil {
		return PipelineConfig{}, err
	}

	cfg := PipelineConfig{
		Detector:     detector,
		ModelPath:    envOr("MODEL_PATH", "models/cnnfinal.tflite"),
		PoolSize:     runtime.NumCPU(),
		AlarmEnabled: true,
		AlarmSound:   envOr("ALARM_SOUND_PATH", "assets/alarm.wav"),
	}

	if v := os.Getenv("MODEL_POOL_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return PipelineConfig{}, fmt.Errorf("MODEL_POOL_SIZE must be a positive integer, got %q", v)
		}
		cfg.PoolSize = n
	}

	if cfg.AlarmEnabled, err = envBool("ALARM_ENABLED", true); err != nil {
		return PipelineConfig{}, err
	}
	if cfg.StopOnAlert, err = envBool("ALERT_STOP_ON_ALERT", false); err != nil {
		return PipelineConfig{}, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}
