package sched

import "colony.ai/internal/sched/creep"

// StatsBucket aggregates reports over one bucket of ticks.
type StatsBucket struct {
	Ticks        int
	Actions      int
	Faults       int
	Idle         int
	MatrixBuilds int
}

// WindowStats keeps a rolling window of tick reports split into buckets.
type WindowStats struct {
	bucketTicks uint64
	windowTicks uint64

	buckets []StatsBucket
	curIdx  int
	curBase uint64 // start tick (inclusive) of current bucket
}

func NewWindowStats(bucketTicks, windowTicks uint64) *WindowStats {
	if bucketTicks <= 0 {
		bucketTicks = 300
	}
	if windowTicks < bucketTicks {
		windowTicks = bucketTicks
	}
	n := int(windowTicks / bucketTicks)
	if n < 1 {
		n = 1
	}
	return &WindowStats{
		bucketTicks: bucketTicks,
		windowTicks: uint64(n) * bucketTicks,
		buckets:     make([]StatsBucket, n),
	}
}

func (s *WindowStats) rotate(nowTick uint64) {
	// Move forward until nowTick is in [curBase, curBase+bucketTicks).
	for nowTick >= s.curBase+s.bucketTicks {
		s.curIdx = (s.curIdx + 1) % len(s.buckets)
		s.buckets[s.curIdx] = StatsBucket{}
		s.curBase += s.bucketTicks
	}
}

func (s *WindowStats) Observe(r TickReport) {
	if s == nil {
		return
	}
	s.rotate(r.Tick)
	b := &s.buckets[s.curIdx]
	b.Ticks++
	b.Actions += r.ActionTotal()
	b.Faults += r.Faults
	b.Idle += r.Outcomes[string(creep.OutcomeIdle)] + r.Outcomes[string(creep.OutcomeHeld)]
	b.MatrixBuilds += r.MatrixBuilds
}

func (s *WindowStats) WindowTicks() uint64 {
	if s == nil {
		return 0
	}
	return s.windowTicks
}

func (s *WindowStats) Summarize(nowTick uint64) StatsBucket {
	if s == nil {
		return StatsBucket{}
	}
	s.rotate(nowTick)
	var out StatsBucket
	for _, b := range s.buckets {
		out.Ticks += b.Ticks
		out.Actions += b.Actions
		out.Faults += b.Faults
		out.Idle += b.Idle
		out.MatrixBuilds += b.MatrixBuilds
	}
	return out
}
