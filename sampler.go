package main

import (
	"sync"
	"time"
)

// MouseSampler decouples pointer-motion frequency from transmission
// frequency. Positions are recorded eagerly on every movement, but only
// the latest sample is handed to the transmit function, on a fixed
// cadence; ticks with no new movement send nothing.
type MouseSampler struct {
	mu       sync.Mutex
	x, y     float64
	dirty    bool
	transmit func(x, y float64)

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

// NewMouseSampler starts a sampler ticking at the given interval.
func NewMouseSampler(interval time.Duration, transmit func(x, y float64)) *MouseSampler {
	s := &MouseSampler{
		transmit: transmit,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

// Record notes the latest pointer position
func (s *MouseSampler) Record(x, y float64) {
	s.mu.Lock()
	s.x = x
	s.y = y
	s.dirty = true
	s.mu.Unlock()
}

func (s *MouseSampler) loop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.mu.Lock()
			if !s.dirty {
				s.mu.Unlock()
				continue
			}
			x, y := s.x, s.y
			s.dirty = false
			s.mu.Unlock()
			s.transmit(x, y)
		}
	}
}

// Stop halts the sampling loop. Safe to call repeatedly.
func (s *MouseSampler) Stop() {
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.done)
	})
}
