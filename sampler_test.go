package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sample struct {
	x, y float64
}

func TestSamplerSendsLatestSampleOnly(t *testing.T) {
	out := make(chan sample, 16)
	s := NewMouseSampler(10*time.Millisecond, func(x, y float64) {
		out <- sample{x, y}
	})
	defer s.Stop()

	// Several movements inside one tick collapse to the last one
	s.Record(1, 1)
	s.Record(2, 2)
	s.Record(3, 3)

	select {
	case got := <-out:
		require.Equal(t, sample{3, 3}, got)
	case <-time.After(time.Second):
		t.Fatal("no sample transmitted")
	}
}

func TestSamplerIdleTicksSendNothing(t *testing.T) {
	out := make(chan sample, 16)
	s := NewMouseSampler(5*time.Millisecond, func(x, y float64) {
		out <- sample{x, y}
	})
	defer s.Stop()

	s.Record(7, 7)

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("no sample transmitted")
	}

	// No further movement: subsequent ticks stay silent
	select {
	case got := <-out:
		t.Fatalf("unexpected retransmission: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSamplerStopIsIdempotent(t *testing.T) {
	s := NewMouseSampler(time.Hour, func(x, y float64) {})
	s.Stop()
	s.Stop()
}

func TestSamplerStopsTransmitting(t *testing.T) {
	out := make(chan sample, 16)
	s := NewMouseSampler(5*time.Millisecond, func(x, y float64) {
		out <- sample{x, y}
	})

	s.Stop()
	s.Record(9, 9)

	select {
	case got := <-out:
		t.Fatalf("sample after stop: %+v", got)
	case <-time.After(30 * time.Millisecond):
	}
}
