package audio

import (
	"sync"
	"time"
)

// Clock abstracts the real-time audio clock so scheduling is testable.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer mirrors the piece of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the production Clock backed by package time.
func SystemClock() Clock { return realClock{} }

// Buffer is one decoded playback chunk.
type Buffer struct {
	Data       []byte // PCM16 little-endian
	SampleRate int
	Channels   int
}

func (b Buffer) Duration() time.Duration {
	return PCMDuration(len(b.Data), b.SampleRate, b.Channels)
}

type scheduled struct {
	startTimer Timer
	doneTimer  Timer
}

// Scheduler queues decoded buffers for gapless sequential playback. Each
// buffer starts at max(now, nextStart) and advances nextStart by its duration,
// so bursts and jitter never cause overlap, gaps, or starts in the past.
type Scheduler struct {
	clock Clock
	emit  func(Buffer)

	mu         sync.Mutex
	next       time.Time
	began      bool
	stopped    bool
	seq        int64
	pending    map[int64]*scheduled
	onSpeaking func(bool)
}

// NewScheduler creates a scheduler that hands each buffer to emit at its
// scheduled start time. emit must not block.
func NewScheduler(clock Clock, emit func(Buffer)) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if emit == nil {
		emit = func(Buffer) {}
	}
	return &Scheduler{
		clock:   clock,
		emit:    emit,
		pending: make(map[int64]*scheduled),
	}
}

// OnSpeaking registers a callback fired on every transition of the
// "agent is speaking" indicator: true when the first buffer is queued, false
// exactly when the last one finishes or is halted. The callback must not call
// back into the scheduler.
func (s *Scheduler) OnSpeaking(f func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSpeaking = f
}

// Begin anchors the next available start time to the current clock time.
// Called once when a session becomes active.
func (s *Scheduler) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = s.clock.Now()
	s.began = true
	s.stopped = false
}

// Schedule enqueues a buffer and returns its computed start time.
func (s *Scheduler) Schedule(b Buffer) time.Time {
	s.mu.Lock()

	now := s.clock.Now()
	if s.stopped || !s.began {
		// Late audio after stop (or before begin) is ignored.
		s.mu.Unlock()
		return now
	}

	start := s.next
	if now.After(start) {
		start = now
	}
	dur := b.Duration()
	s.next = start.Add(dur)

	s.seq++
	id := s.seq
	entry := &scheduled{}
	entry.startTimer = s.clock.AfterFunc(start.Sub(now), func() {
		s.emit(b)
	})
	entry.doneTimer = s.clock.AfterFunc(start.Add(dur).Sub(now), func() {
		s.finish(id)
	})
	s.pending[id] = entry

	var notify func(bool)
	if len(s.pending) == 1 {
		notify = s.onSpeaking
	}
	s.mu.Unlock()

	if notify != nil {
		notify(true)
	}
	return start
}

// Speaking reports whether any scheduled buffer has not yet finished playing.
func (s *Scheduler) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Stop forcibly halts every scheduled-but-unfinished buffer and clears the
// queue. Safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	hadPending := s.drainLocked()
	s.stopped = true
	s.began = false
	notify := s.onSpeaking
	s.mu.Unlock()

	if hadPending && notify != nil {
		notify(false)
	}
}

// Flush drops pending buffers and re-anchors the queue to now, used when the
// remote side interrupts its own speech.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	hadPending := s.drainLocked()
	if s.began {
		s.next = s.clock.Now()
	}
	notify := s.onSpeaking
	s.mu.Unlock()

	if hadPending && notify != nil {
		notify(false)
	}
}

func (s *Scheduler) drainLocked() bool {
	hadPending := len(s.pending) > 0
	for id, entry := range s.pending {
		entry.startTimer.Stop()
		entry.doneTimer.Stop()
		delete(s.pending, id)
	}
	return hadPending
}

func (s *Scheduler) finish(id int64) {
	s.mu.Lock()
	_, ok := s.pending[id]
	delete(s.pending, id)
	last := ok && len(s.pending) == 0
	notify := s.onSpeaking
	s.mu.Unlock()

	if last && notify != nil {
		notify(false)
	}
}
