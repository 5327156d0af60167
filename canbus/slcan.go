package canbus

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// slcan adapters poll the serial line in chunks this long so a Receive
// deadline is honoured to within one chunk.
const slcanReadSlice = 20 * time.Millisecond

// SLCAN talks to a serial-line CAN adapter (CANable, USBtin and
// friends) using the ASCII 't' frame protocol. This is the transport
// the AK series USB adapters present on both Windows and Linux.
type SLCAN struct {
	port *serial.Port

	writeMu sync.Mutex
	readMu  sync.Mutex
	buf     []byte

	mu     sync.Mutex
	closed bool
}

// NewSLCAN opens the adapter at device, resets its channel and opens it
// at the given CAN bitrate. Unknown bitrates fall back to 1 Mbit, the
// rate the actuator family runs at.
func NewSLCAN(device string, bitrate int) (*SLCAN, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        115200,
		ReadTimeout: slcanReadSlice,
	})
	if err != nil {
		return nil, err
	}

	b := &SLCAN{port: port}
	for _, cmd := range []string{"C\r", bitrateCommand(bitrate), "O\r"} {
		if _, err = port.Write([]byte(cmd)); err != nil {
			port.Close()
			return nil, err
		}
	}
	return b, nil
}

func bitrateCommand(bitrate int) string {
	codes := map[int]byte{
		10000:   '0',
		20000:   '1',
		50000:   '2',
		100000:  '3',
		125000:  '4',
		250000:  '5',
		500000:  '6',
		800000:  '7',
		1000000: '8',
	}
	code, ok := codes[bitrate]
	if !ok {
		code = '8'
	}
	return "S" + string(code) + "\r"
}

func (b *SLCAN) Send(frame Frame) error {
	if b.isClosed() {
		return ERR_BUS_CLOSED
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	_, err := b.port.Write(marshalFrame(frame))
	return err
}

func (b *SLCAN) Receive(timeout time.Duration) (*Frame, error) {
	b.readMu.Lock()
	defer b.readMu.Unlock()

	deadline := time.Now().Add(timeout)
	for {
		if frame := b.nextBuffered(); frame != nil {
			return frame, nil
		}
		if b.isClosed() {
			return nil, ERR_BUS_CLOSED
		}

		chunk := make([]byte, 64)
		n, err := b.port.Read(chunk)
		if n > 0 {
			b.buf = append(b.buf, chunk[:n]...)
			continue
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
	}
}

// nextBuffered pops complete lines off the receive buffer until one
// parses as a data frame. Adapter status lines and command acks are
// discarded.
func (b *SLCAN) nextBuffered() *Frame {
	for {
		// a bare BEL is the adapter rejecting a command; drop it so it
		// cannot wedge the line scanner
		for len(b.buf) > 0 && b.buf[0] == 0x07 {
			b.buf = b.buf[1:]
		}
		i := bytes.IndexByte(b.buf, '\r')
		if i < 0 {
			return nil
		}
		line := b.buf[:i]
		b.buf = b.buf[i+1:]
		if frame, ok := parseLine(line); ok {
			return frame
		}
	}
}

func (b *SLCAN) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.port.Write([]byte("C\r"))
	return b.port.Close()
}

func (b *SLCAN) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// marshalFrame renders a standard-ID data frame as an slcan 't' line.
func marshalFrame(frame Frame) []byte {
	buf := make([]byte, 0, 6+2*int(frame.Len))
	buf = append(buf, 't')
	buf = append(buf, fmt.Sprintf("%03X", frame.ID&CAN_SFF_MASK)...)
	buf = append(buf, '0'+frame.Len)
	for i := uint8(0); i < frame.Len; i++ {
		buf = append(buf, fmt.Sprintf("%02X", frame.Data[i])...)
	}
	buf = append(buf, '\r')
	return buf
}

// parseLine decodes an slcan 't' line. Anything else (acks, 'T'
// extended frames, version strings) reports false.
func parseLine(line []byte) (*Frame, bool) {
	if len(line) < 5 || line[0] != 't' {
		return nil, false
	}
	id, err := strconv.ParseUint(string(line[1:4]), 16, 32)
	if err != nil {
		return nil, false
	}
	dlc := int(line[4] - '0')
	if dlc < 0 || dlc > 8 || len(line) < 5+2*dlc {
		return nil, false
	}
	frame := &Frame{ID: uint32(id) & CAN_SFF_MASK, Len: uint8(dlc)}
	for i := 0; i < dlc; i++ {
		v, err := strconv.ParseUint(string(line[5+2*i:7+2*i]), 16, 8)
		if err != nil {
			return nil, false
		}
		frame.Data[i] = byte(v)
	}
	return frame, true
}
