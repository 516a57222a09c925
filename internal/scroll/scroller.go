// Package scroll drives the looping marquee of the active-user gallery.
//
// The gallery renders its list twice back-to-back. A [Scroller] advances an
// offset by a fixed step on every tick and, once the offset passes half of the
// content height, jumps back to the top so the second copy seamlessly becomes
// the first.
package scroll

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultStep is the number of pixels advanced per tick.
	DefaultStep = 1

	// DefaultPreRoll is the offset assigned after a wrap. Negative values hold
	// the list at the top for -PreRoll/Step ticks.
	DefaultPreRoll = -100

	// DefaultInterval is the time between ticks.
	DefaultInterval = 100 * time.Millisecond
)

// Action is a scroll instruction for the gallery container.
type Action struct {
	// Top is the target scroll position in pixels, never negative.
	Top int `json:"top"`
	// Instant requests a jump without smooth scrolling. Set only on wrap.
	Instant bool `json:"instant"`
}

// Scroller holds the scroll state of one gallery. It is safe for concurrent
// use: content height updates arrive from the poll path while ticks arrive
// from the scroll loop.
type Scroller struct {
	step    int
	preRoll int

	mu     sync.Mutex
	offset int
	height int
}

// New creates a [Scroller]. step must be positive; preRoll must not be
// positive.
func New(step, preRoll int) (*Scroller, error) {
	if step <= 0 {
		return nil, errors.New("scroll step must be positive")
	}
	if preRoll > 0 {
		return nil, errors.New("scroll pre-roll cannot be positive")
	}
	return &Scroller{step: step, preRoll: preRoll}, nil
}

// SetContentHeight records the total height of the rendered content,
// recomputes the wrap threshold, and restarts the loop from the top.
func (s *Scroller) SetContentHeight(height int) {
	if height < 0 {
		height = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height = height
	s.offset = 0
}

// Tick advances the offset by one step. It reports false when there is no
// content to scroll.
//
// The tick on which the offset reaches half of the content height resets the
// offset to the pre-roll value and returns an instant scroll-to-top.
func (s *Scroller) Tick() (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.height == 0 {
		return Action{}, false
	}

	s.offset += s.step
	if 2*s.offset >= s.height {
		s.offset = s.preRoll
		return Action{Top: 0, Instant: true}, true
	}
	return Action{Top: max(0, s.offset)}, true
}

// Offset returns the raw offset, which is negative during pre-roll.
func (s *Scroller) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// Threshold returns the offset at which the next wrap happens.
func (s *Scroller) Threshold() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.height + 1) / 2
}

// Run ticks every interval and passes each action to sink until ctx is
// cancelled.
func (s *Scroller) Run(ctx context.Context, interval time.Duration, sink func(Action)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if action, ok := s.Tick(); ok {
				sink(action)
			}
		}
	}
}

// Handle owns a running scroll loop started by [Scroller.Start].
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Start runs [Scroller.Run] in a new goroutine and returns its handle.
func (s *Scroller) Start(ctx context.Context, interval time.Duration, sink func(Action)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		s.Run(ctx, interval, sink)
	}()
	return h
}

// Stop cancels the loop and waits for it to exit. Safe to call repeatedly.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}
