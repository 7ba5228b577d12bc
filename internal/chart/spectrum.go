package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/RMahshie/micfreq/pkg/models"
)

// ErrNotEnoughData is returned when there are fewer than two combined points to draw
var ErrNotEnoughData = errors.New("at least two combined samples are needed to draw a chart")

// SpectrumChart is everything drawn on the frequency vs dB plot
type SpectrumChart struct {
	Datasets []models.Series
	Combined []models.Sample // sorted by frequency
	Mode     models.ReductionMode
	Peaks    []models.Sample
	Selected []models.Sample
	Width    int
	Height   int
}

// Render draws the chart as PNG into w
func (sc SpectrumChart) Render(w io.Writer) error {
	if len(sc.Combined) < 2 {
		return ErrNotEnoughData
	}

	width, height := sc.Width, sc.Height
	if width <= 0 {
		width = 1200
	}
	if height <= 0 {
		height = 600
	}

	var series []chart.Series
	for _, ds := range sc.Datasets {
		if len(ds.Samples) < 2 {
			continue
		}
		x, y := split(ds.Samples)
		series = append(series, chart.ContinuousSeries{
			Name:    "Dataset " + ds.Name,
			XValues: x,
			YValues: y,
		})
	}

	// Combined curve: black, dashed, thick
	x, y := split(sc.Combined)
	series = append(series, chart.ContinuousSeries{
		Name:    sc.Mode.Label(),
		XValues: x,
		YValues: y,
		Style: chart.Style{
			StrokeColor:     drawing.ColorBlack,
			StrokeWidth:     3,
			StrokeDashArray: []float64{8, 4},
		},
	})

	if len(sc.Peaks) > 0 {
		series = append(series, markers("Peaks", sc.Peaks, drawing.ColorRed))
	}
	if len(sc.Selected) > 0 {
		series = append(series, markers("Selected", sc.Selected, drawing.ColorFromHex("2ca02c")))
	}

	graph := chart.Chart{
		Title:  "Frequency vs dB",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{
				Top:  40,
				Left: 160,
			},
		},
		XAxis: chart.XAxis{
			Name: "Frequency (MHz)",
		},
		YAxis: chart.YAxis{
			Name: "dB",
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render spectrum chart: %w", err)
	}
	return nil
}

// markers draws samples as unconnected dots
func markers(name string, samples []models.Sample, color drawing.Color) chart.ContinuousSeries {
	x, y := split(samples)
	return chart.ContinuousSeries{
		Name:    name,
		XValues: x,
		YValues: y,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    5,
			DotColor:    color,
		},
	}
}

func split(samples []models.Sample) (x, y []float64) {
	x = make([]float64, len(samples))
	y = make([]float64, len(samples))
	for i, s := range samples {
		x[i] = s.Frequency
		y[i] = s.Level
	}
	return x, y
}
