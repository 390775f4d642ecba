package refresher

import (
	"sync"
	"time"
)

// Stats tracks refresher statistics since process start.
type Stats struct {
	mu sync.RWMutex

	TotalCycles    int64
	SkippedCycles  int64
	ProviderErrors int64

	LastCycle         uint64
	LastCycleAt       time.Time
	LastCycleDuration time.Duration
	TotalDuration     time.Duration
}

func (s *Stats) recordCycle(result *CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalCycles++
	s.ProviderErrors += int64(result.Failed)
	s.LastCycle = result.Cycle
	s.LastCycleAt = result.EndTime
	s.LastCycleDuration = result.Duration
	s.TotalDuration += result.Duration
}

func (s *Stats) recordSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SkippedCycles++
}

// GetStats returns a copy of the current statistics.
func (r *Refresher) GetStats() Stats {
	r.stats.mu.RLock()
	defer r.stats.mu.RUnlock()

	return Stats{
		TotalCycles:       r.stats.TotalCycles,
		SkippedCycles:     r.stats.SkippedCycles,
		ProviderErrors:    r.stats.ProviderErrors,
		LastCycle:         r.stats.LastCycle,
		LastCycleAt:       r.stats.LastCycleAt,
		LastCycleDuration: r.stats.LastCycleDuration,
		TotalDuration:     r.stats.TotalDuration,
	}
}

// StatsSnapshot returns the current statistics as a map.
func (r *Refresher) StatsSnapshot() map[string]interface{} {
	s := r.GetStats()
	return map[string]interface{}{
		"total_cycles":        s.TotalCycles,
		"skipped_cycles":      s.SkippedCycles,
		"provider_errors":     s.ProviderErrors,
		"last_cycle":          s.LastCycle,
		"last_cycle_at":       s.LastCycleAt,
		"last_cycle_duration": s.LastCycleDuration.String(),
		"total_duration":      s.TotalDuration.String(),
		"in_progress":         r.InProgress(),
	}
}
