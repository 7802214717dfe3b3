// Package plot records tank levels over a run and renders them as a line
// chart.
package plot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	_ "gonum.org/v1/plot/vg/vgimg"

	"github.com/sweeney/water-system/internal/logic"
)

// ErrNoSamples is returned when rendering a series with nothing recorded.
var ErrNoSamples = errors.New("plot: no samples recorded")

const (
	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// Series is the level time series of both tanks. Not safe for concurrent use.
type Series struct {
	a plotter.XYs
	b plotter.XYs
}

// NewSeries creates an empty series.
func NewSeries() *Series {
	return &Series{}
}

// Add records both tank levels at elapsed time since the start of the run.
func (s *Series) Add(elapsed time.Duration, a, b logic.Level) {
	t := elapsed.Seconds()
	s.a = append(s.a, plotter.XY{X: t, Y: float64(a)})
	s.b = append(s.b, plotter.XY{X: t, Y: float64(b)})
}

// Len returns the number of recorded samples.
func (s *Series) Len() int {
	return len(s.a)
}

func (s *Series) build() (*plot.Plot, error) {
	if s.Len() == 0 {
		return nil, ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = "Water Levels in Tanks A and B"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Water Level"
	p.Y.Min = 0
	p.Y.Max = 1
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLines(p, "Tank A Level", s.a, "Tank B Level", s.b); err != nil {
		return nil, fmt.Errorf("add lines: %w", err)
	}
	p.Legend.Top = true
	return p, nil
}

// Render writes the chart to w in the given image format ("png", "svg", ...).
func (s *Series) Render(w io.Writer, format string) error {
	p, err := s.build()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return fmt.Errorf("create %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return nil
}

// Save writes the chart to path; the format follows the file extension.
func (s *Series) Save(path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		return fmt.Errorf("plot %s: missing file extension", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	if err := s.Render(f, format); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("plot %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("plot %s: %w", path, err)
	}
	return nil
}
