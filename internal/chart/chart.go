// Package chart accumulates decoded readings into per-channel time
// series and renders them: a live HTML line chart (go-echarts) served
// while the run is in progress, and a static PNG (gonum/plot) written
// at shutdown. Over-limit samples become gaps in both renderings.
package chart

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/thermo.report/internal/config"
	"github.com/banshee-data/thermo.report/internal/k204"
	"github.com/banshee-data/thermo.report/internal/poller"
)

// Builder is a poller.Sink collecting chart data. It is safe for
// concurrent use: the acquisition loop records while HTTP handlers
// render.
type Builder struct {
	mu     sync.Mutex
	title  string
	labels [k204.NumChannels]string
	unit   string
	x      []float64
	// y holds one series per channel; nil entries are gaps (OL)
	y [k204.NumChannels][]*float64
}

// NewBuilder creates an empty chart for the given run title, with
// series labelled from the configured channel names.
func NewBuilder(title string, cfg *config.Config) *Builder {
	b := &Builder{title: title}
	for i := range b.labels {
		b.labels[i] = fmt.Sprintf("%s: %s", k204.ChannelLabel(i), cfg.ChannelName(i))
	}
	return b
}

// Record implements poller.Sink.
func (b *Builder) Record(s poller.Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.unit = s.Reading.Unit.String()
	b.x = append(b.x, s.Elapsed.Seconds())
	for i, v := range s.Reading.Channels {
		if v.OverLimit {
			b.y[i] = append(b.y[i], nil)
			continue
		}
		temp := v.Temp
		b.y[i] = append(b.y[i], &temp)
	}
	return nil
}

// Flush implements poller.Sink; the builder has nothing buffered.
func (b *Builder) Flush() error { return nil }

// Len returns the number of samples collected so far.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.x)
}

// RenderHTML writes the current series as a self-contained echarts
// line chart. Safe to call at any point during the run.
func (b *Builder) RenderHTML(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	unit := b.unit
	if unit == "" {
		unit = "°C"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: b.title,
			Width:     "1000px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    b.title,
			Subtitle: fmt.Sprintf("%d samples", len(b.x)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Elapsed [s]", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("Temperature [%s]", unit)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Left: "right"}),
	)

	xLabels := make([]string, len(b.x))
	for i, xv := range b.x {
		xLabels[i] = fmt.Sprintf("%.1f", xv)
	}
	line.SetXAxis(xLabels)

	for ch := 0; ch < k204.NumChannels; ch++ {
		data := make([]opts.LineData, len(b.y[ch]))
		for i, v := range b.y[ch] {
			if v == nil {
				// null renders as a gap, matching the OL semantics
				data[i] = opts.LineData{Value: nil}
			} else {
				data[i] = opts.LineData{Value: *v}
			}
		}
		line.AddSeries(b.labels[ch], data)
	}

	return line.Render(w)
}
