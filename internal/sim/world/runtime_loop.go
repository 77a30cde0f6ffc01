package world

import (
	"context"
	"errors"
	"time"

	"colony.ai/internal/persistence/snapshot"
)

var ErrStopped = errors.New("world stopped")

type snapshotReq struct {
	resp chan snapshotResp
}

type snapshotResp struct {
	tick uint64
	err  error
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingSnapshots []snapshotReq
	start := w.tick.Load()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case req := <-w.snapshotReq:
			pendingSnapshots = append(pendingSnapshots, req)
		case <-ticker.C:
			e := w.step()
			w.handleSnapshotRequests(pendingSnapshots, e.Tick)
			pendingSnapshots = pendingSnapshots[:0]
			if w.cfg.MaxTicks > 0 && w.tick.Load()-start >= w.cfg.MaxTicks {
				return nil
			}
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// RequestSnapshot asks the loop to export a snapshot after the next tick and
// hand it to the snapshot sink.
func (w *World) RequestSnapshot(ctx context.Context) (uint64, error) {
	req := snapshotReq{resp: make(chan snapshotResp, 1)}
	select {
	case w.snapshotReq <- req:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-w.stop:
		return 0, ErrStopped
	}
	select {
	case r := <-req.resp:
		return r.tick, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (w *World) handleSnapshotRequests(reqs []snapshotReq, tick uint64) {
	if len(reqs) == 0 {
		return
	}
	var (
		snap snapshot.SnapshotV1
		err  error
	)
	if w.snapshotSink == nil {
		err = errors.New("no snapshot sink")
	} else {
		snap = w.ExportSnapshot(tick)
		select {
		case w.snapshotSink <- snap:
		default:
			err = errors.New("snapshot sink busy")
		}
	}
	for _, r := range reqs {
		r.resp <- snapshotResp{tick: tick, err: err}
	}
}
