package world

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Agents    int `json:"agents"`
	Hostiles  int `json:"hostiles"`
	Zones     int `json:"zones"`
	Visible   int `json:"visible_zones"`
	Observers int `json:"observers"`

	SpawnedTotal   uint64 `json:"spawned_total"`
	DeathsTotal    uint64 `json:"deaths_total"`
	MemoryRejected int    `json:"memory_rejected"`

	StepMS float64 `json:"step_ms"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m, _ := w.metrics.Load().(WorldMetrics)
	return m
}
