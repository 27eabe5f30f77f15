package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "starguard.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigAndDefaults(t *testing.T) {
	path := writeConfig(t, `
starguard:
  input:
    mode: file
    file:
      path: data/events.jsonl
  detection:
    cluster_min_size: 15
  analysis:
    granularity: day
    subrange_prefix: "2024"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sg := &cfg.StarGuard
	sg.ApplyDefaults()

	if sg.Input.File.Path != "data/events.jsonl" {
		t.Fatalf("unexpected input path: %s", sg.Input.File.Path)
	}
	if sg.Detection.ClusterMinSize != 15 {
		t.Fatalf("explicit setting overridden: %d", sg.Detection.ClusterMinSize)
	}
	if sg.Detection.ClusterGapMinutes != 60 {
		t.Fatalf("expected default gap 60, got %d", sg.Detection.ClusterGapMinutes)
	}
	if sg.Detection.DormantMinAgeDays != 365 || sg.Detection.DormantMaxRepos != 3 {
		t.Fatalf("unexpected dormant defaults: %+v", sg.Detection)
	}
	if sg.Analysis.Granularity != "day" || sg.Analysis.SubRangePrefix != "2024" {
		t.Fatalf("unexpected analysis config: %+v", sg.Analysis)
	}
	if sg.Analysis.Spike.Window != 4 || sg.Analysis.Spike.RealDropThreshold != -5 || sg.Analysis.Spike.FakeSpikeThreshold != 10 {
		t.Fatalf("unexpected spike defaults: %+v", sg.Analysis.Spike)
	}
	if err := sg.Validate(); err != nil {
		t.Fatalf("defaulted config must validate: %v", err)
	}
}

func TestValidateRejectsBadGranularity(t *testing.T) {
	var sg StarGuardConfig
	sg.ApplyDefaults()
	sg.Analysis.Granularity = "month"

	err := sg.Validate()
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cerr.Field != "analysis.granularity" {
		t.Fatalf("unexpected field: %s", cerr.Field)
	}
}

func TestValidateRejectsNonNegativeRealDrop(t *testing.T) {
	var sg StarGuardConfig
	sg.ApplyDefaults()
	sg.Analysis.Spike.RealDropThreshold = 5

	if err := sg.Validate(); err == nil {
		t.Fatalf("expected error for positive real drop threshold")
	}
}

func TestValidateRejectsRulesWithoutPath(t *testing.T) {
	var sg StarGuardConfig
	sg.ApplyDefaults()
	sg.Detection.Rules.Enabled = true

	err := sg.Validate()
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cerr.Field != "detection.rules.path" {
		t.Fatalf("unexpected field: %s", cerr.Field)
	}
}

func TestValidateRejectsBadSpikeDates(t *testing.T) {
	var sg StarGuardConfig
	sg.ApplyDefaults()
	sg.Timeline.SpikeStart = "March 1"

	if err := sg.Validate(); err == nil {
		t.Fatalf("expected error for malformed spike date")
	}
}

func TestValidateRejectsMetricsWithoutGateway(t *testing.T) {
	var sg StarGuardConfig
	sg.ApplyDefaults()
	sg.Metrics.Enabled = true

	if err := sg.Validate(); err == nil {
		t.Fatalf("expected error for metrics without pushgateway URL")
	}
}
