package motor

import (
	"errors"

	"github.com/oakmoor/akdrive/canbus"
)

// Mode control codes. A control frame is six 0xFF sentinel bytes, a
// seventh 0xFF, then the code; no encoded setpoint frame produces that
// prefix under the ranges in limits.go.
const (
	modeEnter = 0xFC
	modeExit  = 0xFD
	modeZero  = 0xFE
)

var ERR_REPLY_TOO_SHORT = errors.New("motor: reply shorter than 6 bytes")

// Setpoints is the commanded side of the loop: desired position,
// velocity, gains and feed-forward torque.
type Setpoints struct {
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
	Kp       float64 `json:"kp"`
	Kd       float64 `json:"kd"`
	Torque   float64 `json:"torque"`
}

// Telemetry is the measured side, decoded from status replies.
type Telemetry struct {
	// Echo is the controller id byte leading every reply. Address
	// matching is the transport's concern; it is surfaced untouched.
	Echo     uint8   `json:"echo"`
	Position float64 `json:"position"`
	Velocity float64 `json:"velocity"`
	Torque   float64 `json:"torque"`
}

// PackCommand encodes a setpoint group into the 8-byte MIT-mode
// command layout, most-significant bits first:
//
//	byte0 = pos[15:8]
//	byte1 = pos[7:0]
//	byte2 = vel[11:4]
//	byte3 = vel[3:0]<<4 | kp[11:8]
//	byte4 = kp[7:0]
//	byte5 = kd[11:4]
//	byte6 = kd[3:0]<<4 | torque[11:8]
//	byte7 = torque[7:0]
func PackCommand(sp Setpoints) [8]byte {
	p := FloatToUint(sp.Position, P_MIN, P_MAX, 16)
	v := FloatToUint(sp.Velocity, V_MIN, V_MAX, 12)
	kp := FloatToUint(sp.Kp, KP_MIN, KP_MAX, 12)
	kd := FloatToUint(sp.Kd, KD_MIN, KD_MAX, 12)
	t := FloatToUint(sp.Torque, T_MIN, T_MAX, 12)

	var buf [8]byte
	buf[0] = byte(p >> 8)
	buf[1] = byte(p)
	buf[2] = byte(v >> 4)
	buf[3] = byte(v&0xF)<<4 | byte(kp>>8)
	buf[4] = byte(kp)
	buf[5] = byte(kd >> 4)
	buf[6] = byte(kd&0xF)<<4 | byte(t>>8)
	buf[7] = byte(t)
	return buf
}

// UnpackReply decodes a status reply. Torque comes back against the
// symmetric range [-T_MAX, T_MAX] regardless of the nominal channel
// minimum: the firmware centres signed torque on the field midpoint.
// Keep it symmetric even if the limits table ever grows asymmetric
// entries.
func UnpackReply(data []byte) (Telemetry, error) {
	if len(data) < 6 {
		return Telemetry{}, ERR_REPLY_TOO_SHORT
	}
	p := uint16(data[1])<<8 | uint16(data[2])
	v := uint16(data[3])<<4 | uint16(data[4])>>4
	t := uint16(data[4]&0xF)<<8 | uint16(data[5])
	return Telemetry{
		Echo:     data[0],
		Position: UintToFloat(p, P_MIN, P_MAX, 16),
		Velocity: UintToFloat(v, V_MIN, V_MAX, 12),
		Torque:   UintToFloat(t, -T_MAX, T_MAX, 12),
	}, nil
}

func controlFrame(code byte) canbus.Frame {
	return canbus.Frame{
		ID:   CONTROLLER_ID,
		Len:  8,
		Data: [8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, code},
	}
}

// EnterModeFrame starts closed-loop MIT control on the actuator.
func EnterModeFrame() canbus.Frame { return controlFrame(modeEnter) }

// ExitModeFrame leaves MIT control.
func ExitModeFrame() canbus.Frame { return controlFrame(modeExit) }

// ZeroPositionFrame makes the current shaft position the zero
// reference.
func ZeroPositionFrame() canbus.Frame { return controlFrame(modeZero) }

// CommandFrame wraps a packed setpoint buffer in a bus frame addressed
// to the controller.
func CommandFrame(sp Setpoints) canbus.Frame {
	return canbus.Frame{ID: CONTROLLER_ID, Len: 8, Data: PackCommand(sp)}
}
