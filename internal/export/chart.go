package export

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/piwi3910/pvlayout/internal/model"
)

// RenderSweepChart renders the energy obtained at every sampled pitch as an
// HTML line chart. The winning pitch is drawn as a second series holding a
// single point.
func RenderSweepChart(result model.OptimizationResult) ([]byte, error) {
	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("sweep has no candidates")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Energy by pitch",
			Subtitle: fmt.Sprintf("best %.2f m, %.1f kWp", result.Best.Pitch, result.Best.TotalEnergy/1000),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Pitch (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Energy (kWp)"}),
	)

	bestIdx := result.BestIndex()
	xAxis := make([]string, len(result.Candidates))
	energy := make([]opts.LineData, len(result.Candidates))
	best := make([]opts.LineData, len(result.Candidates))
	for i, c := range result.Candidates {
		xAxis[i] = strconv.FormatFloat(c.Pitch, 'f', -1, 64)
		energy[i] = opts.LineData{Value: c.TotalEnergy / 1000}
		// "-" leaves a gap in the series
		best[i] = opts.LineData{Value: "-"}
		if i == bestIdx {
			best[i] = opts.LineData{Value: c.TotalEnergy / 1000, Symbol: "pin", SymbolSize: 30}
		}
	}

	line.SetXAxis(xAxis).
		AddSeries("Energy", energy).
		AddSeries("Best", best)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSweepChart writes RenderSweepChart's output to path.
func WriteSweepChart(path string, result model.OptimizationResult) error {
	html, err := RenderSweepChart(result)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
