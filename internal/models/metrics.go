package models

import "time"

// SystemMetrics is a point-in-time snapshot of process counters used by the
// internal metrics endpoint.
type SystemMetrics struct {
	UptimeSeconds    float64   `json:"uptime_seconds"`
	RequestsTotal    int64     `json:"requests_total"`
	RequestsInFlight int64     `json:"requests_in_flight"`
	CacheHits        int64     `json:"cache_hits"`
	CacheMisses      int64     `json:"cache_misses"`
	CacheHitRate     float64   `json:"cache_hit_rate"`
	AttendanceMarks  int64     `json:"attendance_marks"`
	PolicyDenials    int64     `json:"policy_denials"`
	CollectedAt      time.Time `json:"collected_at"`
}
