package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigError reports an invalid setting. It is fatal at startup, before
// any data is read.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// Config is the root configuration.
type Config struct {
	StarGuard StarGuardConfig `yaml:"starguard"`
}

// StarGuardConfig is the project configuration.
type StarGuardConfig struct {
	Input     InputConfig     `yaml:"input"`
	Detection DetectionConfig `yaml:"detection"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Collect   CollectConfig   `yaml:"collect"`
	Output    OutputConfig    `yaml:"output"`
	Timeline  TimelineConfig  `yaml:"timeline"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InputConfig selects where the event snapshot comes from.
type InputConfig struct {
	Mode  string          `yaml:"mode"` // file|redis
	File  FileInputConfig `yaml:"file"`
	Redis RedisConfig     `yaml:"redis"`
}

// FileInputConfig points at an enriched-events JSONL file.
type FileInputConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig controls the Redis event list.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Key          string        `yaml:"key"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// DetectionConfig holds the ensemble thresholds.
type DetectionConfig struct {
	ClusterGapMinutes       int         `yaml:"cluster_gap_minutes"`
	ClusterMinSize          int         `yaml:"cluster_min_size"`
	DormantMinAgeDays       int         `yaml:"dormant_min_age_days"`
	DormantMaxRepos         int         `yaml:"dormant_max_repos"`
	LowActivityMaxFollowers int         `yaml:"low_activity_max_followers"`
	LowActivityMaxFollowing int         `yaml:"low_activity_max_following"`
	Rules                   RulesConfig `yaml:"rules"`
}

// RulesConfig controls the optional Sigma rules detector.
type RulesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AnalysisConfig controls bucketing granularity and the correlation engine.
type AnalysisConfig struct {
	Granularity    string      `yaml:"granularity"`     // day|week
	SubRangePrefix string      `yaml:"subrange_prefix"` // e.g. "2024"
	NotableDelta   float64     `yaml:"notable_delta"`
	Spike          SpikeConfig `yaml:"spike"`
}

// SpikeConfig controls moving-average spike detection.
type SpikeConfig struct {
	Window             int     `yaml:"window"`
	RealDropThreshold  float64 `yaml:"real_drop_threshold"`
	FakeSpikeThreshold float64 `yaml:"fake_spike_threshold"`
}

// CollectConfig controls the GitHub stargazer collector.
type CollectConfig struct {
	Owner   string              `yaml:"owner"`
	Repo    string              `yaml:"repo"`
	Token   string              `yaml:"token"`
	Workers int                 `yaml:"workers"`
	Output  CollectOutputConfig `yaml:"output"`
}

// CollectOutputConfig selects where collected events go.
type CollectOutputConfig struct {
	Mode       string                 `yaml:"mode"` // file|redis|clickhouse
	File       FileOutputConfig       `yaml:"file"`
	Redis      RedisConfig            `yaml:"redis"`
	ClickHouse ClickHouseOutputConfig `yaml:"clickhouse"`
}

// OutputConfig controls report persistence.
type OutputConfig struct {
	Mode string           `yaml:"mode"` // file|http
	File FileOutputConfig `yaml:"file"`
	HTTP HTTPOutputConfig `yaml:"http"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// ClickHouseOutputConfig config for ClickHouse HTTP JSONEachRow writes.
type ClickHouseOutputConfig struct {
	URL      string            `yaml:"url"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// TimelineConfig controls the timeline subcommand.
type TimelineConfig struct {
	ChartPath  string `yaml:"chart_path"`
	SpikeStart string `yaml:"spike_start"` // YYYY-MM-DD, optional
	SpikeEnd   string `yaml:"spike_end"`
}

// MetricsConfig controls Prometheus run metrics.
type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills unset values with the standard thresholds.
func (c *StarGuardConfig) ApplyDefaults() {
	if c.Input.Mode == "" {
		c.Input.Mode = "file"
	}
	if c.Input.File.Path == "" {
		c.Input.File.Path = "data/enriched_events.jsonl"
	}
	if c.Input.Redis.Addr == "" {
		c.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Input.Redis.Key == "" {
		c.Input.Redis.Key = "star_events"
	}
	if c.Input.Redis.BlockTimeout == 0 {
		c.Input.Redis.BlockTimeout = 5 * time.Second
	}

	if c.Detection.ClusterGapMinutes == 0 {
		c.Detection.ClusterGapMinutes = 60
	}
	if c.Detection.ClusterMinSize == 0 {
		c.Detection.ClusterMinSize = 10
	}
	if c.Detection.DormantMinAgeDays == 0 {
		c.Detection.DormantMinAgeDays = 365
	}
	if c.Detection.DormantMaxRepos == 0 {
		c.Detection.DormantMaxRepos = 3
	}
	if c.Detection.LowActivityMaxFollowers == 0 {
		c.Detection.LowActivityMaxFollowers = 5
	}
	if c.Detection.LowActivityMaxFollowing == 0 {
		c.Detection.LowActivityMaxFollowing = 10
	}

	if c.Analysis.Granularity == "" {
		c.Analysis.Granularity = "week"
	}
	if c.Analysis.NotableDelta == 0 {
		c.Analysis.NotableDelta = 5
	}
	if c.Analysis.Spike.Window == 0 {
		c.Analysis.Spike.Window = 4
	}
	if c.Analysis.Spike.RealDropThreshold == 0 {
		c.Analysis.Spike.RealDropThreshold = -5
	}
	if c.Analysis.Spike.FakeSpikeThreshold == 0 {
		c.Analysis.Spike.FakeSpikeThreshold = 10
	}

	if c.Collect.Workers <= 0 {
		c.Collect.Workers = 4
	}
	if c.Collect.Output.Mode == "" {
		c.Collect.Output.Mode = "file"
	}
	if c.Collect.Output.File.Path == "" {
		c.Collect.Output.File.Path = "data/enriched_events.jsonl"
	}
	if c.Collect.Output.Redis.Addr == "" {
		c.Collect.Output.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Collect.Output.Redis.Key == "" {
		c.Collect.Output.Redis.Key = "star_events"
	}
	if c.Collect.Output.ClickHouse.Database == "" {
		c.Collect.Output.ClickHouse.Database = "starguard"
	}
	if c.Collect.Output.ClickHouse.Table == "" {
		c.Collect.Output.ClickHouse.Table = "star_events"
	}

	if c.Output.Mode == "" {
		c.Output.Mode = "file"
	}
	if c.Output.File.Path == "" {
		c.Output.File.Path = "output/report.json"
	}

	if c.Timeline.ChartPath == "" {
		c.Timeline.ChartPath = "output/timeline.png"
	}

	if c.Metrics.Job == "" {
		c.Metrics.Job = "starguard"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects settings that would corrupt a run. Called after
// ApplyDefaults and before any data is loaded.
func (c *StarGuardConfig) Validate() error {
	switch c.Input.Mode {
	case "file", "redis":
	default:
		return &ConfigError{Field: "input.mode", Reason: "must be file or redis"}
	}

	if c.Detection.ClusterGapMinutes < 0 {
		return &ConfigError{Field: "detection.cluster_gap_minutes", Reason: "must not be negative"}
	}
	if c.Detection.ClusterMinSize <= 0 {
		return &ConfigError{Field: "detection.cluster_min_size", Reason: "must be positive"}
	}
	if c.Detection.DormantMinAgeDays < 0 {
		return &ConfigError{Field: "detection.dormant_min_age_days", Reason: "must not be negative"}
	}
	if c.Detection.DormantMaxRepos < 0 {
		return &ConfigError{Field: "detection.dormant_max_repos", Reason: "must not be negative"}
	}
	if c.Detection.LowActivityMaxFollowers < 0 {
		return &ConfigError{Field: "detection.low_activity_max_followers", Reason: "must not be negative"}
	}
	if c.Detection.LowActivityMaxFollowing < 0 {
		return &ConfigError{Field: "detection.low_activity_max_following", Reason: "must not be negative"}
	}
	if c.Detection.Rules.Enabled && c.Detection.Rules.Path == "" {
		return &ConfigError{Field: "detection.rules.path", Reason: "required when rules are enabled"}
	}

	switch c.Analysis.Granularity {
	case "day", "week":
	default:
		return &ConfigError{Field: "analysis.granularity", Reason: "must be day or week"}
	}
	if c.Analysis.NotableDelta < 0 {
		return &ConfigError{Field: "analysis.notable_delta", Reason: "must not be negative"}
	}
	if c.Analysis.Spike.Window <= 0 {
		return &ConfigError{Field: "analysis.spike.window", Reason: "must be positive"}
	}
	if c.Analysis.Spike.RealDropThreshold >= 0 {
		return &ConfigError{Field: "analysis.spike.real_drop_threshold", Reason: "must be negative"}
	}
	if c.Analysis.Spike.FakeSpikeThreshold <= 0 {
		return &ConfigError{Field: "analysis.spike.fake_spike_threshold", Reason: "must be positive"}
	}

	switch c.Collect.Output.Mode {
	case "file", "redis", "clickhouse":
	default:
		return &ConfigError{Field: "collect.output.mode", Reason: "must be file, redis, or clickhouse"}
	}

	switch c.Output.Mode {
	case "file", "http":
	default:
		return &ConfigError{Field: "output.mode", Reason: "must be file or http"}
	}
	if c.Output.Mode == "http" && c.Output.HTTP.URL == "" {
		return &ConfigError{Field: "output.http.url", Reason: "required for http output"}
	}

	for _, v := range []struct {
		field string
		value string
	}{
		{"timeline.spike_start", c.Timeline.SpikeStart},
		{"timeline.spike_end", c.Timeline.SpikeEnd},
	} {
		if v.value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v.value); err != nil {
			return &ConfigError{Field: v.field, Reason: "must be YYYY-MM-DD"}
		}
	}
	if c.Metrics.Enabled && c.Metrics.PushgatewayURL == "" {
		return &ConfigError{Field: "metrics.pushgateway_url", Reason: "required when metrics are enabled"}
	}

	return nil
}
