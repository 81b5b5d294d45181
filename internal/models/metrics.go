package models

import "time"

// SystemMetrics summarises process level counters for the health endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	EnrollmentsCreated       uint64    `json:"enrollmentsCreated"`
	StudentsPromoted         uint64    `json:"studentsPromoted"`
	PromotionsSkipped        uint64    `json:"promotionsSkipped"`
	GroupsAutoCreated        uint64    `json:"groupsAutoCreated"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
