package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"starguard/config"
	"starguard/internal/analysis"
	"starguard/internal/detect"
	"starguard/internal/input/githubapi"
	inputredis "starguard/internal/input/redis"
	"starguard/internal/logger"
	"starguard/internal/metrics"
	"starguard/internal/output/eventsclickhouse"
	"starguard/internal/output/eventsjson"
	"starguard/internal/output/eventsredis"
	"starguard/internal/output/reporthttp"
	"starguard/internal/output/reportjson"
	"starguard/internal/output/timelinepng"
	"starguard/internal/pipeline"
	"starguard/internal/report"
	"starguard/internal/snapshot"
	"starguard/pkg/models"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: starguard <command> [flags]

Commands:
  collect     Fetch and enrich a repository's stargazers
  detect      Run the detection ensemble over a snapshot
  correlate   Run detection plus the correlation engine
  timeline    Build the daily timeline and render the chart
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "collect":
		os.Exit(runCollect(os.Args[2:]))
	case "detect":
		os.Exit(runDetect(os.Args[2:]))
	case "correlate":
		os.Exit(runCorrelate(os.Args[2:]))
	case "timeline":
		os.Exit(runTimeline(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func findConfigFile(configArg string) string {
	if configArg != "" {
		if _, err := os.Stat(configArg); err == nil {
			return configArg
		}
		log.Printf("Warning: config file not found at %s, trying default locations", configArg)
	}

	if _, err := os.Stat("starguard.yml"); err == nil {
		return "starguard.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exePath), "starguard.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "starguard.yml"
}

// setup loads config, applies defaults, validates, and starts logging.
func setup(configArg string) (*config.StarGuardConfig, error) {
	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	sg := &cfg.StarGuard
	sg.ApplyDefaults()
	if err := sg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.Init(sg.Logging.Enabled, sg.Logging.Level, sg.Logging.File, sg.Logging.Console); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infof("Config loaded from: %s", configPath)
	return sg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Infof("Shutting down")
		cancel()
	}()
	return ctx, cancel
}

func loadEvents(ctx context.Context, cfg *config.StarGuardConfig) ([]*models.StarEvent, error) {
	switch cfg.Input.Mode {
	case "file":
		logger.Infof("Loading snapshot from file: %s", cfg.Input.File.Path)
		return snapshot.LoadFile(cfg.Input.File.Path)
	case "redis":
		logger.Infof("Draining snapshot from redis list: %s", cfg.Input.Redis.Key)
		consumer, err := inputredis.NewConsumer(inputredis.Config{
			Addr:         cfg.Input.Redis.Addr,
			Password:     cfg.Input.Redis.Password,
			DB:           cfg.Input.Redis.DB,
			Key:          cfg.Input.Redis.Key,
			BlockTimeout: cfg.Input.Redis.BlockTimeout,
		})
		if err != nil {
			return nil, err
		}
		defer consumer.Close()
		return consumer.Drain(ctx)
	default:
		return nil, fmt.Errorf("unknown input mode: %s", cfg.Input.Mode)
	}
}

func buildEnsemble(cfg *config.StarGuardConfig) (*detect.Ensemble, error) {
	th := detect.Thresholds{
		ClusterGapMinutes:       cfg.Detection.ClusterGapMinutes,
		ClusterMinSize:          cfg.Detection.ClusterMinSize,
		DormantMinAgeDays:       cfg.Detection.DormantMinAgeDays,
		DormantMaxRepos:         cfg.Detection.DormantMaxRepos,
		LowActivityMaxFollowers: cfg.Detection.LowActivityMaxFollowers,
		LowActivityMaxFollowing: cfg.Detection.LowActivityMaxFollowing,
	}

	var extra []detect.Detector
	if cfg.Detection.Rules.Enabled {
		det, stats, err := detect.NewSigmaDetector(cfg.Detection.Rules.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
		logger.Infof("Rules loaded: loaded=%d skipped_complex=%d skipped_source=%d skipped_invalid=%d files=%d",
			stats.Loaded,
			stats.SkippedComplex,
			stats.SkippedSource,
			stats.SkippedInvalid,
			stats.TotalFiles,
		)
		if stats.Loaded == 0 {
			logger.Warnf("No compatible rules loaded; rules detector will flag nothing")
		}
		extra = append(extra, det)
	}

	return detect.NewEnsemble(th, extra...), nil
}

func reportWriter(cfg *config.StarGuardConfig) (pipeline.ReportWriter, error) {
	switch cfg.Output.Mode {
	case "file":
		logger.Infof("Report output mode: file (%s)", cfg.Output.File.Path)
		return reportjson.NewWriter(cfg.Output.File.Path)
	case "http":
		logger.Infof("Report output mode: http (%s)", cfg.Output.HTTP.URL)
		return reporthttp.NewWriter(reporthttp.Config{
			URL:     cfg.Output.HTTP.URL,
			Timeout: cfg.Output.HTTP.Timeout,
			Headers: cfg.Output.HTTP.Headers,
		})
	default:
		return nil, fmt.Errorf("unknown output mode: %s", cfg.Output.Mode)
	}
}

func runCollect(args []string) int {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	owner := fs.String("owner", "", "Repository owner (overrides config)")
	repo := fs.String("repo", "", "Repository name (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := setup(*configArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if *owner != "" {
		cfg.Collect.Owner = *owner
	}
	if *repo != "" {
		cfg.Collect.Repo = *repo
	}
	if cfg.Collect.Owner == "" || cfg.Collect.Repo == "" {
		fmt.Fprintln(os.Stderr, "collect requires owner and repo (flags or config)")
		return 2
	}

	var writer pipeline.EventWriter
	switch cfg.Collect.Output.Mode {
	case "file":
		writer, err = eventsjson.NewWriter(cfg.Collect.Output.File.Path)
	case "redis":
		writer, err = eventsredis.NewWriter(eventsredis.Config{
			Addr:     cfg.Collect.Output.Redis.Addr,
			Password: cfg.Collect.Output.Redis.Password,
			DB:       cfg.Collect.Output.Redis.DB,
			Key:      cfg.Collect.Output.Redis.Key,
		})
	case "clickhouse":
		writer, err = eventsclickhouse.NewWriter(eventsclickhouse.Config{
			URL:      cfg.Collect.Output.ClickHouse.URL,
			Database: cfg.Collect.Output.ClickHouse.Database,
			Table:    cfg.Collect.Output.ClickHouse.Table,
			Username: cfg.Collect.Output.ClickHouse.Username,
			Password: cfg.Collect.Output.ClickHouse.Password,
			Timeout:  cfg.Collect.Output.ClickHouse.Timeout,
			Headers:  cfg.Collect.Output.ClickHouse.Headers,
		})
	default:
		err = fmt.Errorf("unknown collect output mode: %s", cfg.Collect.Output.Mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create event writer: %v\n", err)
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	token := cfg.Collect.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	pipe := pipeline.NewCollectPipeline(
		githubapi.NewClient(token),
		writer,
		cfg.Collect.Owner,
		cfg.Collect.Repo,
		cfg.Collect.Workers,
		500,
	)
	defer pipe.Close()

	n, err := pipe.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "collect failed: %v\n", err)
		return 1
	}
	fmt.Printf("collected %d star events from %s/%s\n", n, cfg.Collect.Owner, cfg.Collect.Repo)
	return 0
}

func runDetect(args []string) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := setup(*configArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	run := metrics.NewRun(metricsURL(cfg), cfg.Metrics.Job)

	events, err := loadEvents(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load events: %v\n", err)
		return 1
	}
	logger.Infof("Loaded %d star events", len(events))

	ensemble, err := buildEnsemble(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	result := ensemble.Run(events)

	rep := report.BuildDetection(events, result, report.DetectionOptions{
		Thresholds: detect.Thresholds{
			ClusterGapMinutes:       cfg.Detection.ClusterGapMinutes,
			ClusterMinSize:          cfg.Detection.ClusterMinSize,
			DormantMinAgeDays:       cfg.Detection.DormantMinAgeDays,
			DormantMaxRepos:         cfg.Detection.DormantMaxRepos,
			LowActivityMaxFollowers: cfg.Detection.LowActivityMaxFollowers,
			LowActivityMaxFollowing: cfg.Detection.LowActivityMaxFollowing,
		},
	})

	writer, err := reportWriter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer writer.Close()
	if err := writer.WriteReport(rep); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		return 1
	}

	observeRun(run, len(events), result, 0)
	printDetection(rep)
	return 0
}

func runCorrelate(args []string) int {
	fs := flag.NewFlagSet("correlate", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	granularity := fs.String("granularity", "", "Bucket granularity: day or week (overrides config)")
	subrange := fs.String("subrange", "", "Period-key prefix for the focus range, e.g. 2024 (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := setup(*configArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if *granularity != "" {
		cfg.Analysis.Granularity = *granularity
	}
	if *subrange != "" {
		cfg.Analysis.SubRangePrefix = *subrange
	}

	ctx, cancel := signalContext()
	defer cancel()

	run := metrics.NewRun(metricsURL(cfg), cfg.Metrics.Job)

	events, err := loadEvents(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load events: %v\n", err)
		return 1
	}
	logger.Infof("Loaded %d star events", len(events))

	ensemble, err := buildEnsemble(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	result := ensemble.Run(events)

	rep, err := report.BuildCorrelation(events, result, report.CorrelationOptions{
		Granularity:    cfg.Analysis.Granularity,
		SubRangePrefix: cfg.Analysis.SubRangePrefix,
		NotableDelta:   cfg.Analysis.NotableDelta,
		Spikes: analysis.SpikeThresholds{
			Window:    cfg.Analysis.Spike.Window,
			RealDrop:  cfg.Analysis.Spike.RealDropThreshold,
			FakeSpike: cfg.Analysis.Spike.FakeSpikeThreshold,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "correlation failed: %v\n", err)
		return 1
	}

	writer, err := reportWriter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer writer.Close()
	if err := writer.WriteReport(rep); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		return 1
	}

	observeRun(run, len(events), result, len(rep.Spikes))
	printCorrelation(rep)
	return 0
}

func runTimeline(args []string) int {
	fs := flag.NewFlagSet("timeline", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	chart := fs.String("chart", "", "Chart PNG output path (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := setup(*configArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if *chart != "" {
		cfg.Timeline.ChartPath = *chart
	}

	ctx, cancel := signalContext()
	defer cancel()

	events, err := loadEvents(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load events: %v\n", err)
		return 1
	}
	logger.Infof("Loaded %d star events", len(events))

	ensemble, err := buildEnsemble(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	result := ensemble.Run(events)

	window, err := timelineWindow(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	rep, err := report.BuildTimeline(events, result, window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "timeline failed: %v\n", err)
		return 1
	}

	writer, err := reportWriter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer writer.Close()
	if err := writer.WriteReport(rep); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		return 1
	}

	png, err := timelinepng.NewWriter(cfg.Timeline.ChartPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err := png.WriteTimeline(rep); err != nil {
		fmt.Fprintf(os.Stderr, "failed to render chart: %v\n", err)
		return 1
	}

	printTimeline(rep, cfg.Timeline.ChartPath)
	return 0
}

func timelineWindow(cfg *config.StarGuardConfig) (*report.TimelineWindow, error) {
	if cfg.Timeline.SpikeStart == "" || cfg.Timeline.SpikeEnd == "" {
		return nil, nil
	}
	start, err := time.Parse("2006-01-02", cfg.Timeline.SpikeStart)
	if err != nil {
		return nil, fmt.Errorf("invalid timeline.spike_start: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.Timeline.SpikeEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid timeline.spike_end: %w", err)
	}
	return &report.TimelineWindow{Start: start.UTC(), End: end.UTC()}, nil
}

func metricsURL(cfg *config.StarGuardConfig) string {
	if !cfg.Metrics.Enabled {
		return ""
	}
	return cfg.Metrics.PushgatewayURL
}

func observeRun(run *metrics.Run, total int, result detect.EnsembleResult, spikes int) {
	run.ObserveEvents(total)
	run.ObserveFake(len(result.Fake))
	for _, res := range result.Results {
		run.ObserveDetector(res.Detector, res.Count)
	}
	run.ObserveSpikes(spikes)
	if err := run.Push(); err != nil {
		logger.Errorf("Failed to push metrics: %v", err)
	}
}

func printDetection(rep *models.DetectionReport) {
	fmt.Printf("events: %d (%s to %s)\n", rep.TotalEvents,
		rep.RangeStart.Format("2006-01-02"), rep.RangeEnd.Format("2006-01-02"))
	for _, res := range rep.Detectors {
		fmt.Printf("  %-16s %d\n", res.Detector, res.Count)
	}
	fmt.Printf("fake: %d (%.1f%%)  real: %d (%.1f%%)\n",
		rep.FakeTotal, rep.FakePct, rep.RealTotal, rep.RealPct)
	if len(rep.Clusters) > 0 {
		fmt.Printf("clusters: %d\n", len(rep.Clusters))
	}
	if len(rep.Dormant) > 0 {
		fmt.Printf("dormant accounts: %d\n", len(rep.Dormant))
	}
}

func printCorrelation(rep *models.CorrelationReport) {
	fmt.Printf("events: %d, fake: %d (%.1f%%), %s buckets: %d\n",
		rep.TotalEvents, rep.FakeTotal, rep.FakePct, rep.Granularity, len(rep.Buckets))
	fmt.Printf("overall correlation: %s\n", formatStat(rep.Overall))
	if rep.SubRangeName != "" {
		fmt.Printf("%s correlation: %s\n", rep.SubRangeName, formatStat(rep.SubRange))
	}
	fmt.Printf("inverse movements: %d/%d (%.1f%%), notable same-direction: %d\n",
		rep.Direction.InverseCount, rep.Direction.TotalPairs,
		rep.Direction.InversePct, rep.Direction.NotableCount)
	for _, sp := range rep.Spikes {
		fmt.Printf("compensatory spike at %s: real %.0f (avg %.1f), fake %.0f (avg %.1f)\n",
			sp.Period, sp.Real, sp.RealAvg, sp.Fake, sp.FakeAvg)
	}
	fmt.Printf("regime: %s\n", rep.Regime)
	fmt.Printf("verdict: %s\n", rep.Verdict)
}

func formatStat(s models.CorrelationStat) string {
	if !s.Valid {
		return fmt.Sprintf("undefined (insufficient data, n=%d)", s.N)
	}
	return fmt.Sprintf("r=%.3f p=%.4f n=%d", s.R, s.PValue, s.N)
}

func printTimeline(rep *models.TimelineReport, chartPath string) {
	fmt.Printf("events: %d, fake: %d, days: %d\n", rep.TotalEvents, rep.FakeTotal, len(rep.Buckets))
	for _, w := range rep.Windows {
		line := fmt.Sprintf("  %-7s days=%d total=%d fake=%.1f%% per-day=%.2f",
			w.Label, w.Days, w.Total, w.FakePct, w.PerDay)
		if w.VelocityUp > 0 {
			line += fmt.Sprintf(" velocity=%.1fx", w.VelocityUp)
		}
		fmt.Println(line)
	}
	fmt.Printf("chart: %s\n", chartPath)
}
