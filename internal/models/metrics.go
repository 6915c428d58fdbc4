package models

import "time"

// SystemMetrics is a JSON snapshot of the Prometheus counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ScheduleBuilds           uint64    `json:"schedule_builds"`
	ScheduleFailures         uint64    `json:"schedule_failures"`
	PublishJobs              uint64    `json:"publish_jobs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
