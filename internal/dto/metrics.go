package dto

import "time"

// MetricsSnapshot summarises process metrics for GET /metrics/summary.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	ChatAnswered             uint64    `json:"chatAnswered"`
	ChatFallback             uint64    `json:"chatFallback"`
	ChatSkipped              uint64    `json:"chatSkipped"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
