package canbus

import (
	"sync"
	"time"
)

// Loopback is an in-memory bus for tests and simulator mode. Sent
// frames are recorded for inspection; Inject plays the device side by
// queueing frames for Receive.
type Loopback struct {
	mu      sync.Mutex
	closed  bool
	sendErr error
	sent    []Frame

	rx   chan Frame
	done chan struct{}
}

func NewLoopback() *Loopback {
	return &Loopback{
		rx:   make(chan Frame, 64),
		done: make(chan struct{}),
	}
}

func (b *Loopback) Send(frame Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ERR_BUS_CLOSED
	}
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, frame)
	return nil
}

func (b *Loopback) Receive(timeout time.Duration) (*Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case frame := <-b.rx:
		return &frame, nil
	case <-b.done:
		return nil, ERR_BUS_CLOSED
	case <-timer.C:
		return nil, nil
	}
}

func (b *Loopback) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	return nil
}

// Inject queues a frame as if the device had replied on the wire.
// Dropped silently once the bus is shut down.
func (b *Loopback) Inject(frame Frame) {
	select {
	case b.rx <- frame:
	case <-b.done:
	}
}

// Sent returns a copy of every frame sent so far.
func (b *Loopback) Sent() []Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Frame, len(b.sent))
	copy(out, b.sent)
	return out
}

// LastSent returns the most recent sent frame, if any.
func (b *Loopback) LastSent() (Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		return Frame{}, false
	}
	return b.sent[len(b.sent)-1], true
}

// SetSendError makes every subsequent Send fail with err until cleared
// with nil. Used to simulate a flaky adapter.
func (b *Loopback) SetSendError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendErr = err
}
