package canbus

import (
	"errors"
	"time"
)

// SocketCAN identifier flags and masks, shared by every transport so
// frames look the same regardless of how they reached the wire.
const (
	CAN_EFF_FLAG = 0x80000000
	CAN_RTR_FLAG = 0x40000000
	CAN_SFF_MASK = 0x7FF
	CAN_EFF_MASK = 0x1FFFFFFF
)

// errors
var (
	ERR_BUS_CLOSED    = errors.New("canbus: bus is closed")
	ERR_DATA_TOO_LONG = errors.New("canbus: data length exceeds 8 bytes")
)

// Frame is a classical CAN data frame with a standard 11-bit
// identifier. The MIT-mode protocol never uses extended IDs or RTR.
type Frame struct {
	ID   uint32
	Len  uint8
	Data [8]byte
}

// NewFrame builds a frame from a byte slice, copying up to 8 bytes.
func NewFrame(id uint32, data []byte) (Frame, error) {
	if len(data) > 8 {
		return Frame{}, ERR_DATA_TOO_LONG
	}
	frame := Frame{ID: id & CAN_SFF_MASK, Len: uint8(len(data))}
	copy(frame.Data[:], data)
	return frame, nil
}

// Interface is the transport consumed by the motor package.
//
// Send and Receive must be safe to call from different goroutines at
// the same time; the bus itself is half-duplex per frame, not per
// call, so no serialization beyond that is provided here.
type Interface interface {
	// Send queues a frame for transmission. Success means the frame was
	// handed to the transport, not that any device saw it.
	Send(frame Frame) error

	// Receive blocks for at most timeout and returns the next frame.
	// A nil frame with a nil error means the timeout elapsed quietly.
	Receive(timeout time.Duration) (*Frame, error)

	// Shutdown closes the transport. Safe to call more than once.
	Shutdown() error
}
