package http

import (
	"sync/atomic"
	"time"
)

// Stats counts server activity. All fields are updated atomically.
type Stats struct {
	startTime   time.Time
	predictions atomic.Int64
	cacheHits   atomic.Int64
	rejected    atomic.Int64
	wsClients   atomic.Int64
}

type StatsSnapshot struct {
	Uptime      string  `json:"uptime"`
	Predictions int64   `json:"predictions"`
	CacheHits   int64   `json:"cache_hits"`
	HitRate     float64 `json:"hit_rate"`
	Rejected    int64   `json:"rejected"`
	WSClients   int64   `json:"ws_clients"`
}

func newStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
		Predictions: s.predictions.Load(),
		CacheHits:   s.cacheHits.Load(),
		Rejected:    s.rejected.Load(),
		WSClients:   s.wsClients.Load(),
	}
	if snap.Predictions > 0 {
		snap.HitRate = float64(snap.CacheHits) / float64(snap.Predictions)
	}
	return snap
}
