package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRenderChartPlaceholderWithoutData(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderChart(nil, &buf); err != nil {
		t.Fatalf("RenderChart() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No data available yet") {
		t.Errorf("expected placeholder, got %q", buf.String())
	}
}

func TestRenderChartSinglePointUsesPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderChart(statsFixture[:1], &buf); err != nil {
		t.Fatalf("RenderChart() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No data available yet") {
		t.Errorf("a single sample cannot form a line, expected placeholder, got %.120q", buf.String())
	}
}

func TestRenderChartProducesSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderChart(statsFixture, &buf); err != nil {
		t.Fatalf("RenderChart() failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Errorf("output is not SVG: %.80q", out)
	}
}

func TestRenderChartKeepsLastThirtyDays(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := make([]DailyStat, 0, 40)
	for i := 0; i < 40; i++ {
		stats = append(stats, DailyStat{
			Day:      start.AddDate(0, 0, i).Format("2006-01-02"),
			PRCount:  1,
			P50Hours: float64(i),
			P90Hours: float64(i) + 1,
		})
	}
	var buf bytes.Buffer
	if err := RenderChart(stats, &buf); err != nil {
		t.Fatalf("RenderChart() failed: %v", err)
	}
}
