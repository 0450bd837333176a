package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDetectorConfigKeepsDefaults(t *testing.T) {
	cfg, err := ParseDetectorConfig([]byte(`
face:
  min_neighbors: 7
left_eye:
  cascade: eyes/left.xml
`))
	if err != nil {
		t.Fatalf("ParseDetectorConfig: %v", err)
	}

	def := DefaultDetectorConfig()
	if cfg.Face.MinNeighbors != 7 || cfg.Face.MinSize != def.Face.MinSize || cfg.Face.Cascade != def.Face.Cascade {
		t.Fatalf("face = %+v", cfg.Face)
	}
	if cfg.LeftEye.Cascade != "eyes/left.xml" || cfg.LeftEye.ScaleFactor != 1.1 {
		t.Fatalf("left eye = %+v", cfg.LeftEye)
	}
	if cfg.RightEye != def.RightEye {
		t.Fatalf("right eye = %+v", cfg.RightEye)
	}
}

func TestParseDetectorConfigDisablesFace(t *testing.T) {
	cfg, err := ParseDetectorConfig([]byte("face:\n  cascade: \"\"\n"))
	if err != nil {
		t.Fatalf("ParseDetectorConfig: %v", err)
	}
	if cfg.Face.Cascade != "" {
		t.Fatalf("face cascade = %q, want disabled", cfg.Face.Cascade)
	}
}

func TestParseDetectorConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bad yaml", "face: [unclosed"},
		{"scale factor not above one", "face:\n  scale_factor: 1\n"},
		{"negative neighbors", "left_eye:\n  min_neighbors: -1\n"},
		{"missing eye cascade", "right_eye:\n  cascade: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDetectorConfig([]byte(tt.raw)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadDetectorConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detector.yaml")
	if err := os.WriteFile(path, []byte("face:\n  min_size: 40\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadDetectorConfig(path)
	if err != nil {
		t.Fatalf("LoadDetectorConfig: %v", err)
	}
	if cfg.Face.MinSize != 40 {
		t.Fatalf("min size = %d", cfg.Face.MinSize)
	}

	t.Setenv("DETECTOR_CONFIG", filepath.Join(dir, "missing.yaml"))
	if _, err := LoadDetectorConfig(""); err == nil {
		t.Fatal("expected error for missing explicit file")
	}
}
