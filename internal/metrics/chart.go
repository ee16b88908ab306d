package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth    = 900
	chartHeight   = 420
	chartDays     = 30
	rollingWindow = 7
)

const emptyChartSVG = `<svg width="600" height="300" xmlns="http://www.w3.org/2000/svg">
  <text x="300" y="150" text-anchor="middle" font-family="Arial" font-size="16">No data available yet</text>
</svg>`

func dailySeries(name string, xvalues []time.Time, yvalues []float64, hex string) chart.TimeSeries {
	return chart.TimeSeries{
		Name: name,
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex(hex).WithAlpha(128),
			StrokeWidth: 1.0,
		},
		XValues: xvalues,
		YValues: yvalues,
	}
}

func rollingSeries(name string, xvalues []time.Time, yvalues []float64, hex string) chart.TimeSeries {
	return chart.TimeSeries{
		Name: name,
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex(hex),
			StrokeWidth: 2.0,
		},
		XValues: xvalues,
		YValues: yvalues,
	}
}

// RenderChart writes an SVG chart of the last 30 days of daily P50/P90
// values plus their 7-day rolling medians. With fewer than two data points
// it writes a placeholder instead.
func RenderChart(stats []DailyStat, w io.Writer) error {
	if len(stats) < 2 {
		_, err := io.WriteString(w, emptyChartSVG)
		return err
	}

	recent := stats
	if len(recent) > chartDays {
		recent = recent[len(recent)-chartDays:]
	}

	xvalues := make([]time.Time, 0, len(recent))
	p50 := make([]float64, 0, len(recent))
	p90 := make([]float64, 0, len(recent))
	for _, d := range recent {
		day, err := time.Parse("2006-01-02", d.Day)
		if err != nil {
			return fmt.Errorf("bad day value %q: %w", d.Day, err)
		}
		xvalues = append(xvalues, day)
		p50 = append(p50, d.P50Hours)
		p90 = append(p90, d.P90Hours)
	}

	graph := chart.Chart{
		Title:  "PR Lead Time (Daily + 7d median)",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("01/02"),
		},
		YAxis: chart.YAxis{
			Name: "Hours",
		},
		Series: []chart.Series{
			dailySeries("P50 daily", xvalues, p50, "2196F3"),
			dailySeries("P90 daily", xvalues, p90, "FF9800"),
			rollingSeries("P50 7d median", xvalues, RollingMedian(p50, rollingWindow), "0D47A1"),
			rollingSeries("P90 7d median", xvalues, RollingMedian(p90, rollingWindow), "E65100"),
		},
	}
	graph.Elements = []chart.Renderable{chart.LegendThin(&graph)}

	return graph.Render(chart.SVG, w)
}
