package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const defaultDetectorConfigPath = "config/detector.yaml"

// CascadeConfig tunes one Haar cascade. Zero values fall back to the
// defaults of DefaultDetectorConfig.
type CascadeConfig struct {
	Cascade      string  `yaml:"cascade"`
	ScaleFactor  float64 `yaml:"scale_factor" validate:"omitempty,gt=1"`
	MinNeighbors int     `yaml:"min_neighbors" validate:"min=0"`
	MinSize      int     `yaml:"min_size" validate:"min=0"`
}

// DetectorConfig lists the three cascades. An empty face cascade disables
// face detection; both eye cascades are required.
type DetectorConfig struct {
	Face     CascadeConfig `yaml:"face"`
	LeftEye  CascadeConfig `yaml:"left_eye"`
	RightEye CascadeConfig `yaml:"right_eye"`
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Face: CascadeConfig{
			Cascade:      "models/haarcascade_frontalface_alt.xml",
			ScaleFactor:  1.1,
			MinNeighbors: 5,
			MinSize:      25,
		},
		LeftEye: CascadeConfig{
			Cascade:      "models/haarcascade_lefteye_2splits.xml",
			ScaleFactor:  1.1,
			MinNeighbors: 3,
		},
		RightEye: CascadeConfig{
			Cascade:      "models/haarcascade_righteye_2splits.xml",
			ScaleFactor:  1.1,
			MinNeighbors: 3,
		},
	}
}

// LoadDetectorConfig reads path, or DETECTOR_CONFIG, or the default file.
// A missing default file yields the defaults; a missing explicit file is an
// error.
func LoadDetectorConfig(path string) (DetectorConfig, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("DETECTOR_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = defaultDetectorConfigPath
	}

	cfg := DefaultDetectorConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return DetectorConfig{}, fmt.Errorf("detector config %s: %w", path, err)
	}

	cfg, err = ParseDetectorConfig(raw)
	if err != nil {
		return DetectorConfig{}, fmt.Errorf("detector config %s: %w", path, err)
	}

	return cfg, nil
}

func ParseDetectorConfig(raw []byte) (DetectorConfig, error) {
	cfg := DefaultDetectorConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return DetectorConfig{}, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return DetectorConfig{}, err
	}
	if cfg.LeftEye.Cascade == "" || cfg.RightEye.Cascade == "" {
		return DetectorConfig{}, errors.New("left_eye and right_eye cascades are required")
	}

	return cfg, nil
}

