package recognition

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/banshee-data/junction.report/internal/monitoring"
)

// PoolConfig sizes an async recognition pool.
type PoolConfig struct {
	Workers   int           // Concurrent recogniser calls
	QueueSize int           // Pending crops before new submissions are dropped
	Timeout   time.Duration // Per-call recogniser deadline
}

// PoolStats counts pool activity since creation.
type PoolStats struct {
	Submitted uint64
	Dropped   uint64
	Completed uint64
	Failed    uint64
}

type job struct {
	id  string
	gen uint64 // value of Pool.gen[id] when queued
	roi image.Image
}

// Pool runs recognition on a bounded set of workers. Read hands back the
// best reading completed since the previous Read for the same track and
// queues the current crop.
type Pool struct {
	rec     Recognizer
	timeout time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	jobs    chan job
	workers *pool.Pool

	mu       sync.Mutex
	closed   bool
	pending  map[string]Reading
	inflight map[string]int    // queued or running jobs per track
	gen      map[string]uint64 // bumped by Forget while jobs are in flight
	queued   int               // sum of inflight
	idle     chan struct{}     // closed when queued drops to zero

	submitted atomic.Uint64
	dropped   atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
}

// NewPool starts cfg.Workers workers calling rec. Close must be called to
// release them.
func NewPool(rec Recognizer, cfg PoolConfig) *Pool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		rec:      rec,
		timeout:  cfg.Timeout,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(chan job, cfg.QueueSize),
		workers:  pool.New().WithMaxGoroutines(cfg.Workers),
		pending:  make(map[string]Reading),
		inflight: make(map[string]int),
		gen:      make(map[string]uint64),
	}
	for i := 0; i < cfg.Workers; i++ {
		p.workers.Go(p.work)
	}
	return p
}

func (p *Pool) work() {
	for j := range p.jobs {
		ctx := p.ctx
		var cancel context.CancelFunc = func() {}
		if p.timeout > 0 {
			ctx, cancel = context.WithTimeout(p.ctx, p.timeout)
		}
		r, err := p.rec.Recognize(ctx, j.roi)
		cancel()

		switch {
		case err != nil:
			p.failed.Add(1)
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				monitoring.Debugf("plate recognition for track %s abandoned: %v", j.id, err)
			} else {
				monitoring.Logf("plate recognition for track %s failed: %v", j.id, err)
			}
			p.finish(j, nil)
		case !r.Valid():
			p.failed.Add(1)
			monitoring.Logf("plate recognition for track %s returned confidence %v outside [0,1]", j.id, r.Confidence)
			p.finish(j, nil)
		default:
			p.completed.Add(1)
			p.finish(j, &r)
		}
	}
}

// finish merges r, if any, and retires j. A reading for a track forgotten
// after j was queued is discarded.
func (p *Pool) finish(j job, r *Reading) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r != nil {
		if !p.closed && p.gen[j.id] == j.gen {
			p.pending[j.id] = Better(p.pending[j.id], *r)
		} else {
			monitoring.Debugf("discarding stale plate reading for track %s", j.id)
		}
	}

	if p.inflight[j.id]--; p.inflight[j.id] <= 0 {
		delete(p.inflight, j.id)
		delete(p.gen, j.id)
	}
	if p.queued--; p.queued == 0 && p.idle != nil {
		close(p.idle)
		p.idle = nil
	}
}

// Submit queues roi for recognition without blocking. It returns false when
// the queue is full or the pool is closed.
func (p *Pool) Submit(id string, roi image.Image) bool {
	if roi == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job{id: id, gen: p.gen[id], roi: roi}:
		p.submitted.Add(1)
		p.inflight[id]++
		if p.queued == 0 {
			p.idle = make(chan struct{})
		}
		p.queued++
		return true
	default:
		p.dropped.Add(1)
		monitoring.Debugf("recognition queue full, dropping crop for track %s", id)
		return false
	}
}

// Collect removes and returns the best completed reading for id.
func (p *Pool) Collect(id string) (Reading, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.pending[id]
	if ok {
		delete(p.pending, id)
	}
	return r, ok
}

// Read collects the best reading completed for id since the last Read and
// then submits roi. A crop submitted on one tick is adopted on a later one.
func (p *Pool) Read(_ context.Context, id string, roi image.Image) (Reading, bool) {
	r, ok := p.Collect(id)
	p.Submit(id, roi)
	return r, ok
}

// Forget discards pending readings for an evicted track. Recognitions
// already queued or running for id are discarded when they finish, so a
// later track reusing id starts without a reading.
func (p *Pool) Forget(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, id)
	if p.inflight[id] > 0 {
		p.gen[id]++
	}
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Submitted: p.submitted.Load(),
		Dropped:   p.dropped.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Close cancels in-flight recognitions and waits for the workers to exit.
// Crops still queued are handed to the recogniser with a cancelled context.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	close(p.jobs)
	p.mu.Unlock()

	p.workers.Wait()
}

// Flush waits until no crop is queued or running. It is intended for
// replays and tests that need deterministic adoption of readings.
func (p *Pool) Flush(ctx context.Context) error {
	p.mu.Lock()
	idle := p.idle
	p.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
