package model

import (
	"sort"
	"time"
)

// TagCount is the number of memories carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// DateCount is the number of memories created on a day (YYYY-MM-DD, UTC).
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// MemoryMetrics summarizes a user's memories.
type MemoryMetrics struct {
	TotalMemories        int            `json:"totalMemories"`
	MemoriesByCategory   map[string]int `json:"memoriesByCategory"`
	TopTags              []TagCount     `json:"topTags"`
	MemoriesOverTime     []DateCount    `json:"memoriesOverTime"`
	AverageContentLength int            `json:"averageContentLength"`
	TotalTags            int            `json:"totalTags"`
}

const (
	metricsTopTags    = 10
	metricsWindowDays = 30
)

// ComputeMemoryMetrics aggregates memories as of now.
func ComputeMemoryMetrics(memories []*Memory, now time.Time) *MemoryMetrics {
	metrics := &MemoryMetrics{
		TotalMemories:      len(memories),
		MemoriesByCategory: make(map[string]int),
		TopTags:            []TagCount{},
		MemoriesOverTime:   []DateCount{},
	}

	tagCounts := make(map[string]int)
	dayCounts := make(map[string]int)
	totalLength := 0

	for _, m := range memories {
		metrics.MemoriesByCategory[NormalizeCategory(m.Category)]++
		for _, tag := range m.Tags {
			tagCounts[tag]++
		}
		totalLength += len([]rune(m.Content))

		if int(now.Sub(m.CreatedAt).Hours()/24) <= metricsWindowDays {
			dayCounts[m.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}

	for tag, count := range tagCounts {
		metrics.TopTags = append(metrics.TopTags, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(metrics.TopTags, func(i, j int) bool {
		if metrics.TopTags[i].Count != metrics.TopTags[j].Count {
			return metrics.TopTags[i].Count > metrics.TopTags[j].Count
		}
		return metrics.TopTags[i].Tag < metrics.TopTags[j].Tag
	})
	if len(metrics.TopTags) > metricsTopTags {
		metrics.TopTags = metrics.TopTags[:metricsTopTags]
	}

	for date, count := range dayCounts {
		metrics.MemoriesOverTime = append(metrics.MemoriesOverTime, DateCount{Date: date, Count: count})
	}
	sort.Slice(metrics.MemoriesOverTime, func(i, j int) bool {
		return metrics.MemoriesOverTime[i].Date < metrics.MemoriesOverTime[j].Date
	})

	if len(memories) > 0 {
		metrics.AverageContentLength = int(float64(totalLength)/float64(len(memories)) + 0.5)
	}
	metrics.TotalTags = len(tagCounts)

	return metrics
}
