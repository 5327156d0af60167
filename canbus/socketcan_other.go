//go:build !linux

package canbus

import (
	"errors"
	"time"
)

// SocketCAN requires a Linux host; other platforms reach the bus over
// an slcan serial adapter instead.
type SocketCAN struct{}

var errNoSocketCAN = errors.New("canbus: socketcan is only available on linux")

func NewSocketCAN(ifname string) (*SocketCAN, error) {
	return nil, errNoSocketCAN
}

func (b *SocketCAN) Send(frame Frame) error { return errNoSocketCAN }

func (b *SocketCAN) Receive(timeout time.Duration) (*Frame, error) {
	return nil, errNoSocketCAN
}

func (b *SocketCAN) Shutdown() error { return nil }
