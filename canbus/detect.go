package canbus

import "runtime"

// DefaultDriver names the transport most hosts have: the USB slcan
// adapter the actuator ships with. Native socketcan must be chosen
// explicitly in config.
func DefaultDriver() string {
	return "slcan"
}

// DefaultPort guesses where the slcan adapter enumerates on this OS.
func DefaultPort() string {
	switch runtime.GOOS {
	case "linux":
		return "/dev/ttyACM0"
	case "darwin":
		return "/dev/tty.usbmodem0"
	default:
		return "COM5"
	}
}
