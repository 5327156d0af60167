package motor

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oakmoor/akdrive/canbus"
)

// SetpointScheduler re-sends the latest setpoint snapshot at a fixed
// interval. There is no queue: each tick packs whatever the state
// holds at that moment, so stale intent is simply overwritten by the
// next tick (last write wins).
type SetpointScheduler struct {
	bus   canbus.Interface
	state *State
	log   *logrus.Entry

	mu       sync.Mutex
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewSetpointScheduler(bus canbus.Interface, state *State, log *logrus.Logger) *SetpointScheduler {
	return &SetpointScheduler{
		bus:   bus,
		state: state,
		log:   log.WithField("loop", "setpoints"),
	}
}

// Start begins streaming. Intervals below MIN_SEND_INTERVAL are raised
// to the floor rather than rejected. Starting a running scheduler
// restarts it with the new interval.
func (s *SetpointScheduler) Start(interval time.Duration) {
	if interval < MIN_SEND_INTERVAL {
		interval = MIN_SEND_INTERVAL
	}
	s.Stop()

	s.mu.Lock()
	s.interval = interval
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go s.run(interval, stop, done)
}

func (s *SetpointScheduler) run(interval time.Duration, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.bus.Send(CommandFrame(s.state.Setpoints())); err != nil {
				s.log.WithError(err).Debug("send failed")
			}
		}
	}
}

// Stop halts streaming and waits up to STOP_TIMEOUT for the tick in
// flight. Safe on an unstarted scheduler; the shared state is left
// untouched either way.
func (s *SetpointScheduler) Stop() bool {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return true
	}
	close(stop)
	select {
	case <-done:
		return true
	case <-time.After(STOP_TIMEOUT):
		s.log.Warn("setpoint loop did not stop in time")
		return false
	}
}

// Running reports whether the stream loop is active.
func (s *SetpointScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Interval returns the effective (post-floor) stream period.
func (s *SetpointScheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}
