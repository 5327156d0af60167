// Package motor implements the MIT-mode control protocol for the
// CubeMars AK80-64 actuator: fixed-point frame packing, the mode
// handshake, and the concurrent telemetry/setpoint loops.
package motor

import "time"

// Physical ranges for the AK80-64. Encode inputs saturate at these
// bounds before quantization; out-of-range is never an error.
const (
	P_MIN = -12.5 // position, radians
	P_MAX = 12.5

	V_MIN = -8.0 // velocity, rad/s
	V_MAX = 8.0

	KP_MIN = 0.0 // position gain
	KP_MAX = 500.0

	KD_MIN = 0.0 // velocity gain
	KD_MAX = 5.0

	T_MIN = -144.0 // feed-forward torque, N·m
	T_MAX = 144.0
)

const (
	// CONTROLLER_ID is the fixed bus address of the actuator.
	CONTROLLER_ID = 0x17

	// MIN_SEND_INTERVAL floors the setpoint stream period so a bad
	// config cannot saturate the bus.
	MIN_SEND_INTERVAL = 10 * time.Millisecond

	// RECV_TIMEOUT bounds a single poller receive; stop requests are
	// re-checked at least this often.
	RECV_TIMEOUT = 100 * time.Millisecond

	// STOP_TIMEOUT bounds how long shutdown waits for a loop to drain
	// before leaking it and moving on.
	STOP_TIMEOUT = time.Second
)
