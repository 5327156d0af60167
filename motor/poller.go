package motor

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oakmoor/akdrive/canbus"
)

// TelemetryPoller drains status replies off the bus and publishes them
// into the shared state. Transport hiccups and short frames are logged
// and skipped: a missed frame means stale telemetry, never a dead
// loop.
type TelemetryPoller struct {
	bus     canbus.Interface
	state   *State
	timeout time.Duration
	log     *logrus.Entry

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewTelemetryPoller(bus canbus.Interface, state *State, timeout time.Duration, log *logrus.Logger) *TelemetryPoller {
	if timeout <= 0 {
		timeout = RECV_TIMEOUT
	}
	return &TelemetryPoller{
		bus:     bus,
		state:   state,
		timeout: timeout,
		log:     log.WithField("loop", "telemetry"),
	}
}

// Start launches the receive loop. Starting a running poller is a
// no-op.
func (p *TelemetryPoller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done)
}

func (p *TelemetryPoller) run(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := p.bus.Receive(p.timeout)
		if err != nil {
			p.log.WithError(err).Debug("receive failed")
			// back off so a dead bus cannot spin the loop hot
			select {
			case <-stop:
				return
			case <-time.After(p.timeout):
			}
			continue
		}
		if frame == nil {
			// quiet bus; loop around and re-check stop
			continue
		}

		t, err := UnpackReply(frame.Data[:frame.Len])
		if err != nil {
			p.log.WithError(err).WithField("len", frame.Len).Debug("discarding reply")
			continue
		}
		p.state.PublishTelemetry(t)
	}
}

// Stop signals the loop and waits up to STOP_TIMEOUT for it to exit.
// Returns false if the loop leaked; shutdown proceeds regardless.
// Stopping an unstarted poller is a no-op.
func (p *TelemetryPoller) Stop() bool {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return true
	}
	close(stop)
	select {
	case <-done:
		return true
	case <-time.After(STOP_TIMEOUT):
		p.log.Warn("telemetry loop did not stop in time")
		return false
	}
}

// Running reports whether the receive loop is active.
func (p *TelemetryPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}
