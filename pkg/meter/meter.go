// Package meter maintains a sliding-window estimate of keystroke rate.
//
// The core is a ring of 60 per-second buckets rotated once per second by an
// internal timer. Recording a keystroke is a single atomic increment so the
// keyboard delivery path never waits on a reader; reporting sums the ring
// under a mutex for a consistent view.
package meter

import (
	"sync"
	"sync/atomic"
	"time"
)

// Window geometry. Fixed by the published status format, not configurable.
const (
	// Length is the ring size: one bucket per completed second.
	Length = 60

	shortWindow  = 10
	mediumWindow = 30
)

const rotatePeriod = time.Second

// Snapshot is a consistent view of the windowed sums and the lifetime total.
// The three sums are nested: the 10 most recent buckets, the 30 most recent,
// and the full ring.
type Snapshot struct {
	Sum10 uint64
	Sum30 uint64
	Sum60 uint64
	Total uint64
}

// Meter counts qualifying keystrokes into per-second buckets.
// The zero value is not usable; construct with New. A Meter is intended to
// be singly instantiated and shared by reference.
type Meter struct {
	// pending accumulates keystrokes for the second in progress. It lives
	// deliberately outside mu: Record runs synchronously on the keyboard
	// delivery path and must never wait on a rotation or a reader holding
	// the lock. An increment racing a rotation may be credited to either
	// adjacent second; that is accepted.
	pending atomic.Uint64

	mu      sync.Mutex // guards buckets, cursor, total
	buckets [Length]uint64
	cursor  int
	total   uint64

	timerMu sync.Mutex
	timer   *time.Timer

	lastRotate atomic.Int64 // unix nanos of the most recent rotation
}

// New returns a Meter with an all-zero ring and no rotation tick armed.
func New() *Meter {
	return &Meter{}
}

// Record counts one keystroke toward the second in progress. It is safe for
// any number of concurrent callers, completes in O(1), and never blocks.
func (m *Meter) Record() {
	m.pending.Add(1)
}

// Rotate closes the second in progress: the cursor advances by one bucket,
// the pending count is committed into it (overwriting the bucket from 60
// seconds ago) and added to the lifetime total. Normally invoked by the
// internal tick; exported so callers may drive time themselves in tests.
func (m *Meter) Rotate() {
	m.mu.Lock()
	m.cursor = (m.cursor + 1) % Length
	n := m.pending.Load()
	m.buckets[m.cursor] = n
	m.total += n
	m.mu.Unlock()

	// The reset is not part of the critical section. A keystroke landing
	// between the load above and this store is lost, and one landing just
	// before the load is counted into the closed second; both stay within
	// the accepted one-event boundary jitter.
	m.pending.Store(0)
	m.lastRotate.Store(time.Now().UnixNano())
}

// Snapshot returns the nested window sums and lifetime total as of the most
// recent rotation. Safe for concurrent callers; a snapshot never observes a
// rotation half applied.
func (m *Meter) Snapshot() Snapshot {
	var s Snapshot
	m.mu.Lock()
	defer m.mu.Unlock()

	i := 0
	for ; i < shortWindow; i++ {
		s.Sum10 += m.buckets[(Length+m.cursor-i)%Length]
	}
	s.Sum30 = s.Sum10
	for ; i < mediumWindow; i++ {
		s.Sum30 += m.buckets[(Length+m.cursor-i)%Length]
	}
	s.Sum60 = s.Sum30
	for ; i < Length; i++ {
		s.Sum60 += m.buckets[(Length+m.cursor-i)%Length]
	}
	s.Total = m.total
	return s
}

// Start arms the once-per-second rotation tick. Each tick re-arms itself
// relative to its own completion, so scheduling delay accumulates rather
// than being corrected, and a delayed tick still advances exactly one
// bucket. Calling Start on a running meter is a no-op.
func (m *Meter) Start() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.timer != nil {
		return
	}
	m.lastRotate.Store(time.Now().UnixNano())
	m.timer = time.AfterFunc(rotatePeriod, m.tick)
}

func (m *Meter) tick() {
	m.Rotate()

	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.timer == nil {
		// Stopped while this tick was running; do not re-arm.
		return
	}
	m.timer.Reset(rotatePeriod)
}

// Stop disarms the rotation tick. A tick already in flight finishes its
// rotation but does not re-arm, so no tick dangles after Stop returns.
// Idempotent.
func (m *Meter) Stop() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.timer == nil {
		return
	}
	m.timer.Stop()
	m.timer = nil
}

// LastRotation reports when the ring last rotated (or when Start armed the
// tick, if no rotation has happened yet). Zero before the first Start.
func (m *Meter) LastRotation() time.Time {
	ns := m.lastRotate.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
