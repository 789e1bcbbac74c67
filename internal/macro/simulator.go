// Package macro synthesizes relative mouse motion and left clicks.
package macro

import (
	"time"

	"github.com/rs/zerolog"

	"mousemacros/internal/input"
	"mousemacros/internal/keys"
	"mousemacros/internal/logging"
	"mousemacros/internal/metrics"
)

// DefaultPressDuration is how long the left button stays down per click.
const DefaultPressDuration = 20 * time.Millisecond

// Simulator drives an input.Injector. Runs block the caller until done.
type Simulator struct {
	inj   input.Injector
	press time.Duration
	sleep func(time.Duration)
	log   zerolog.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithPressDuration overrides DefaultPressDuration.
func WithPressDuration(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.press = d
		}
	}
}

// WithSleep replaces time.Sleep, mostly for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(s *Simulator) { s.sleep = fn }
}

// NewSimulator creates a simulator injecting through inj.
func NewSimulator(inj input.Injector, log zerolog.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		inj:   inj,
		press: DefaultPressDuration,
		sleep: time.Sleep,
		log:   logging.Subsystem(log, "macro"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Move performs times relative moves of sensitivity along the vertical axis,
// waiting rateMs milliseconds after each. It reports false if injection failed.
func (s *Simulator) Move(sensitivity int, times, rateMs uint) bool {
	rate := time.Duration(rateMs) * time.Millisecond
	for i := uint(0); i < times; i++ {
		if err := s.inj.MoveMouse(0, sensitivity); err != nil {
			s.log.Error().Err(err).Uint("step", i).Msg("mouse move failed")
			return false
		}
		metrics.SyntheticEvents.WithLabelValues("move").Inc()
		s.sleep(rate)
	}
	return true
}

// Click performs times left clicks. The button is held for the press
// duration and rateMs milliseconds pass after each release.
func (s *Simulator) Click(times, rateMs uint) bool {
	rate := time.Duration(rateMs) * time.Millisecond
	for i := uint(0); i < times; i++ {
		if err := s.inj.MouseButton(keys.ButtonLeft, true); err != nil {
			s.log.Error().Err(err).Uint("step", i).Msg("mouse press failed")
			return false
		}
		s.sleep(s.press)
		if err := s.inj.MouseButton(keys.ButtonLeft, false); err != nil {
			s.log.Error().Err(err).Uint("step", i).Msg("mouse release failed")
			return false
		}
		metrics.SyntheticEvents.WithLabelValues("click").Inc()
		s.sleep(rate)
	}
	return true
}
