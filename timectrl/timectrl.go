// Package timectrl steps scene time across an observation window.
package timectrl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrInvalidWindow = errors.New("invalid time window")

// Mode describes how the TimeController advances scene time.
type Mode int

const (
	// RealTime waits one Tick of wall-clock time between steps.
	RealTime Mode = iota
	// Accelerated steps as fast as listeners return.
	Accelerated
)

// Listener is invoked once per step. A returned error stops the sweep.
type Listener func(ctx context.Context, step int, t time.Time) error

// TimeController drives scene time and notifies registered listeners.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	listeners   []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the time of the last step.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime moves the controller to t without notifying listeners.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	tc.mu.Unlock()
}

// AddListener registers a callback invoked on every step.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// Run notifies listeners at StartTime and then at each of the following
// steps-1 ticks. It returns early on the first listener error or when ctx
// is done.
func (tc *TimeController) Run(ctx context.Context, steps int) error {
	if steps < 1 {
		return fmt.Errorf("%w: steps = %d", ErrInvalidWindow, steps)
	}
	if steps > 1 && tc.Tick <= 0 {
		return fmt.Errorf("%w: tick = %s", ErrInvalidWindow, tc.Tick)
	}

	tc.mu.RLock()
	listeners := append([]Listener(nil), tc.listeners...)
	tc.mu.RUnlock()

	var ticker *time.Ticker
	if tc.Mode == RealTime && steps > 1 {
		ticker = time.NewTicker(tc.Tick)
		defer ticker.Stop()
	}

	simTime := tc.StartTime
	for step := 0; step < steps; step++ {
		if step > 0 {
			if ticker != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
			simTime = simTime.Add(tc.Tick)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		tc.SetTime(simTime)
		for _, fn := range listeners {
			if err := fn(ctx, step, simTime); err != nil {
				return fmt.Errorf("step %d at %s: %w", step, simTime.Format(time.RFC3339), err)
			}
		}
	}
	return nil
}

// Start runs the sweep in a separate goroutine. The returned channel yields
// the sweep's result and is then closed.
func (tc *TimeController) Start(ctx context.Context, steps int) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- tc.Run(ctx, steps)
	}()
	return done
}
