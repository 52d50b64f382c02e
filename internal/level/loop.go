package level

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultTickRate is the frame rate used when none is configured.
const DefaultTickRate = 66

// Loop drives Manager frames at a fixed tick rate.
type Loop struct {
	m        *Manager
	interval time.Duration
	frames   atomic.Uint64
}

// NewLoop creates a frame loop running tickRate frames per second.
func NewLoop(m *Manager, tickRate int) *Loop {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &Loop{m: m, interval: time.Second / time.Duration(tickRate)}
}

// Interval returns the frame length.
func (l *Loop) Interval() time.Duration { return l.interval }

// Frames returns the number of frames run so far.
func (l *Loop) Frames() uint64 { return l.frames.Load() }

// Start runs frames until ctx is cancelled.
func (l *Loop) Start(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	dt := l.interval.Seconds()
	slog.Info("frame loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("frame loop stopping", "frames", l.frames.Load())
			return ctx.Err()
		case <-ticker.C:
			l.m.Frame(dt)
			l.frames.Add(1)
		}
	}
}

// Autosave saves the running level every interval until ctx is cancelled.
// Failed saves are logged and retried on the next tick.
func Autosave(ctx context.Context, m *Manager, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Save(ctx, "autosave"); err != nil {
				slog.Warn("autosave failed", "error", err)
			}
		}
	}
}
