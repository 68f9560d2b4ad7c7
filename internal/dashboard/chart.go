package dashboard

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"go-segment-report/internal/model"
	"go-segment-report/pkg/utils"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Chart dimensions of the usage bar chart.
const (
	ChartWidth  = 12 * vg.Inch
	ChartHeight = 8 * vg.Inch
)

// WriteUsageChart renders the usage rates as a PNG bar chart. Undefined rates
// are drawn as empty bars labelled N/A.
func WriteUsageChart(w io.Writer, metrics []model.Metric) error {
	p := plot.New()
	p.Title.Text = "Taxa de Utilização de Produtos e Serviços"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Produtos e Serviços"
	p.Y.Label.Text = "Taxa de Utilização"
	p.Y.Min = 0

	values := make(plotter.Values, len(metrics))
	names := make([]string, len(metrics))
	top := 0.0
	for i, m := range metrics {
		names[i] = m.Name
		if !model.IsUndefined(m.Value) {
			values[i] = m.Value
			top = math.Max(top, m.Value)
		}
	}

	if len(metrics) > 0 {
		bars, err := plotter.NewBarChart(values, vg.Points(30))
		if err != nil {
			return fmt.Errorf("failed to build bar chart: %w", err)
		}
		bars.Color = color.RGBA{R: 33, G: 145, B: 140, A: 255}
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)

		xys := make(plotter.XYs, len(metrics))
		labels := make([]string, len(metrics))
		for i, m := range metrics {
			xys[i] = plotter.XY{X: float64(i), Y: values[i]}
			labels[i] = utils.FormatPercent(m.Value, 1)
		}
		rateLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return fmt.Errorf("failed to build labels: %w", err)
		}
		for i := range rateLabels.TextStyle {
			rateLabels.TextStyle[i].XAlign = draw.XCenter
			rateLabels.TextStyle[i].YAlign = draw.YBottom
		}
		p.Add(rateLabels)
		p.NominalX(names...)
	}

	grid := plotter.NewGrid()
	grid.Vertical.Width = 0
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(grid)

	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Max = math.Max(top*1.15, 0.1)

	wt, err := p.WriterTo(ChartWidth, ChartHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to create chart writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
