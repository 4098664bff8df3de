// Package heatmap projects daily stat rows onto a dense, fixed-granularity
// intensity series for calendar rendering.
package heatmap

import (
	"time"

	"routinelink/internal/model"
)

// Point is one day in the heatmap window.
type Point struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
	Level int    `json:"level"` // 0..4
}

// Level buckets a completion count into the fixed intensity scale.
func Level(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		return 1
	case count <= 5:
		return 2
	case count <= 10:
		return 3
	default:
		return 4
	}
}

// Project maps stats onto one point per calendar day in
// [windowStart, windowEnd] inclusive, filling missing days with zeroes.
// Output length is exactly the number of days in the window regardless of
// how sparse the input is.
func Project(stats []model.DailyStat, windowStart, windowEnd time.Time) []Point {
	start := model.StartOfDay(windowStart)
	end := model.StartOfDay(windowEnd)
	if end.Before(start) {
		return nil
	}

	counts := make(map[string]int, len(stats))
	for _, s := range stats {
		counts[model.StartOfDay(s.Date).Format(time.DateOnly)] += s.CompletedCount
	}

	var points []Point
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(time.DateOnly)
		count := counts[key]
		points = append(points, Point{Date: key, Count: count, Level: Level(count)})
	}
	return points
}
