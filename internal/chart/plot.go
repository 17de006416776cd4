package chart

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/thermo.report/internal/k204"
)

// channel colors matching the conventional probe lead colors
var lineColors = [k204.NumChannels]color.RGBA{
	{R: 220, G: 50, B: 47, A: 255},
	{R: 38, G: 139, B: 210, A: 255},
	{R: 133, G: 153, B: 0, A: 255},
	{R: 203, G: 75, B: 22, A: 255},
}

// SavePNG renders the collected series to a static PNG. OL samples are
// omitted, which leaves visible breaks in the affected line segments.
func (b *Builder) SavePNG(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	unit := b.unit
	if unit == "" {
		unit = "°C"
	}

	p := plot.New()
	p.Title.Text = b.title
	p.X.Label.Text = "Elapsed [s]"
	p.Y.Label.Text = fmt.Sprintf("Temperature [%s]", unit)
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	for ch := 0; ch < k204.NumChannels; ch++ {
		pts := make(plotter.XYs, 0, len(b.x))
		for i, v := range b.y[ch] {
			if v == nil {
				continue
			}
			pts = append(pts, plotter.XY{X: b.x[i], Y: *v})
		}
		if len(pts) == 0 {
			continue
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build %s series: %w", k204.ChannelLabel(ch), err)
		}
		line.Color = lineColors[ch]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(b.labels[ch], line)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
