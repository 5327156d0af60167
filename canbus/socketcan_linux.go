package canbus

import (
	"encoding/binary"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// SocketCAN drives a native Linux CAN interface (can0 etc) through an
// AF_CAN raw socket.
type SocketCAN struct {
	fd   int
	mu   sync.Mutex
	open bool
}

func NewSocketCAN(ifname string) (*SocketCAN, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, err
	}

	addr := &unix.SockaddrCAN{Ifindex: iface.Index}
	if err = unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &SocketCAN{fd: fd, open: true}, nil
}

func (b *SocketCAN) Send(frame Frame) error {
	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return ERR_BUS_CLOSED
	}
	fd := b.fd
	b.mu.Unlock()

	raw := make([]byte, 16)
	binary.LittleEndian.PutUint32(raw[0:4], frame.ID&CAN_SFF_MASK)
	raw[4] = frame.Len
	copy(raw[8:], frame.Data[:frame.Len])

	_, err := unix.Write(fd, raw)
	return err
}

// Receive waits for the next frame with unix.Poll so the caller owns
// the blocking, not a background reader goroutine.
func (b *SocketCAN) Receive(timeout time.Duration) (*Frame, error) {
	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return nil, ERR_BUS_CLOSED
	}
	fd := b.fd
	b.mu.Unlock()

	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	raw := make([]byte, 16)
	if _, err = unix.Read(fd, raw); err != nil {
		return nil, err
	}

	var frame Frame
	oid := binary.LittleEndian.Uint32(raw[0:4])
	if oid&CAN_EFF_FLAG != 0 {
		frame.ID = oid & CAN_EFF_MASK
	} else {
		frame.ID = oid & CAN_SFF_MASK
	}
	frame.Len = raw[4]
	if frame.Len > 8 {
		frame.Len = 8
	}
	copy(frame.Data[:], raw[8:16])

	return &frame, nil
}

// Shutdown closes the socket. A blocked Receive unsticks when the fd
// goes away.
func (b *SocketCAN) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil
	}
	b.open = false
	return unix.Close(b.fd)
}
