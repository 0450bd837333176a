package config

import (
	"path/filepath"
	"runtime"
	"testing"
)

func clearPipelineEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MODEL_PATH", "MODEL_POOL_SIZE", "ALARM_ENABLED", "ALARM_SOUND_PATH", "ALERT_STOP_ON_ALERT"} {
		t.Setenv(key, "")
	}
	t.Setenv("DETECTOR_CONFIG", filepath.Join("..", "..", "config", "detector.yaml"))
}

func TestLoadPipelineConfigDefaults(t *testing.T) {
	clearPipelineEnv(t)

	cfg, err := LoadPipelineConfig()
	if err != nil {
		t.Fatalf("LoadPipelineConfig: %v", err)
	}
	if cfg.ModelPath != "models/cnnfinal.tflite" || cfg.AlarmSound != "assets/alarm.wav" {
		t.Fatalf("paths = %q %q", cfg.ModelPath, cfg.AlarmSound)
	}
	if cfg.PoolSize != runtime.NumCPU() || !cfg.AlarmEnabled || cfg.StopOnAlert {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Detector.Face.MinNeighbors != 5 || cfg.Detector.Face.MinSize != 25 {
		t.Fatalf("face = %+v", cfg.Detector.Face)
	}
}

func TestLoadPipelineConfigOverrides(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("MODEL_POOL_SIZE", "3")
	t.Setenv("ALARM_ENABLED", "false")
	t.Setenv("ALERT_STOP_ON_ALERT", "true")

	cfg, err := LoadPipelineConfig()
	if err != nil {
		t.Fatalf("LoadPipelineConfig: %v", err)
	}
	if cfg.PoolSize != 3 || cfg.AlarmEnabled || !cfg.StopOnAlert {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadPipelineConfigRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		"MODEL_POOL_SIZE":     "0",
		"ALARM_ENABLED":       "sometimes",
		"ALERT_STOP_ON_ALERT": "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			clearPipelineEnv(t)
			t.Setenv(key, value)
			if _, err := LoadPipelineConfig(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}
