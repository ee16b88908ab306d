package metrics

import (
	"math"
	"sort"
	"time"
)

// LeadTime is one merged PR's created→merged duration in hours.
type LeadTime struct {
	MergedAt time.Time
	Hours    float64
}

// DailyStat aggregates the lead times of the PRs merged on one day.
type DailyStat struct {
	Day         string  `json:"day"`
	PRCount     int     `json:"pr_count"`
	P50Hours    float64 `json:"p50_hours"`
	P90Hours    float64 `json:"p90_hours"`
	MedianHours float64 `json:"median_hours"`
	MeanHours   float64 `json:"mean_hours"`
}

// LeadTimes computes lead-time hours for each merged PR, skipping entries
// with missing timestamps.
func LeadTimes(prs []PullRequest) []LeadTime {
	out := make([]LeadTime, 0, len(prs))
	for _, pr := range prs {
		if pr.CreatedAt.IsZero() || pr.MergedAt == nil {
			continue
		}
		out = append(out, LeadTime{
			MergedAt: *pr.MergedAt,
			Hours:    pr.MergedAt.Sub(pr.CreatedAt).Hours(),
		})
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// percentile interpolates linearly between the closest ranks of sorted data.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	index := float64(len(sorted)-1) * p / 100
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	return sorted[lower] + (sorted[upper]-sorted[lower])*(index-float64(lower))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// AggregateDaily groups lead times by merge day (UTC) and computes order
// statistics per day, oldest day first.
func AggregateDaily(leadTimes []LeadTime) []DailyStat {
	if len(leadTimes) == 0 {
		return nil
	}

	byDay := make(map[string][]float64)
	for _, lt := range leadTimes {
		day := lt.MergedAt.UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], lt.Hours)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	stats := make([]DailyStat, 0, len(days))
	for _, day := range days {
		times := byDay[day]
		sorted := append([]float64(nil), times...)
		sort.Float64s(sorted)

		stats = append(stats, DailyStat{
			Day:         day,
			PRCount:     len(times),
			P50Hours:    round1(percentile(sorted, 50)),
			P90Hours:    round1(percentile(sorted, 90)),
			MedianHours: round1(median(times)),
			MeanHours:   round1(mean(times)),
		})
	}
	return stats
}

// RollingMedian computes the trailing-window median for each position.
func RollingMedian(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = round1(median(values[start : i+1]))
	}
	return out
}
