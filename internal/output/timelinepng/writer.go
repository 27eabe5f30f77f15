// Package timelinepng renders the daily timeline report to a PNG chart.
package timelinepng

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"starguard/internal/logger"
	"starguard/pkg/models"
)

// Writer renders timeline reports to PNG files.
type Writer struct {
	path string
}

// NewWriter creates a PNG chart writer, creating parent directories as
// needed.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("chart output path is empty")
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	logger.Infof("Timeline chart writer initialized: %s", path)
	return &Writer{path: path}, nil
}

// WriteTimeline renders the daily real and fake series as two lines.
func (w *Writer) WriteTimeline(report *models.TimelineReport) error {
	if len(report.Buckets) == 0 {
		return fmt.Errorf("timeline has no buckets to render")
	}

	p := plot.New()
	p.Title.Text = "Stars per day"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Stars"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}

	realPts := make(plotter.XYs, len(report.Buckets))
	fakePts := make(plotter.XYs, len(report.Buckets))
	for i, b := range report.Buckets {
		x := float64(b.PeriodStart.Unix())
		realPts[i] = plotter.XY{X: x, Y: float64(b.Real)}
		fakePts[i] = plotter.XY{X: x, Y: float64(b.Fake)}
	}

	realLine, err := plotter.NewLine(realPts)
	if err != nil {
		return fmt.Errorf("failed to build real series: %w", err)
	}
	realLine.Color = color.RGBA{R: 0x2b, G: 0x8a, B: 0x3e, A: 0xff}

	fakeLine, err := plotter.NewLine(fakePts)
	if err != nil {
		return fmt.Errorf("failed to build fake series: %w", err)
	}
	fakeLine.Color = color.RGBA{R: 0xc9, G: 0x2a, B: 0x2a, A: 0xff}

	p.Add(realLine, fakeLine)
	p.Legend.Add("real", realLine)
	p.Legend.Add("fake", fakeLine)
	p.Legend.Top = true

	if err := p.Save(24*vg.Centimeter, 12*vg.Centimeter, w.path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}

// Close is a no-op.
func (w *Writer) Close() error {
	return nil
}
