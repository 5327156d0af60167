package motor

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oakmoor/akdrive/canbus"
)

// Controller owns one actuator session: the shared state, the
// telemetry poller and the setpoint stream, all bound to a single bus.
// Every command is fire-and-forget: a nil error means the frame
// reached the transport, not that the device acknowledged it.
type Controller struct {
	bus       canbus.Interface
	state     *State
	poller    *TelemetryPoller
	scheduler *SetpointScheduler
	log       *logrus.Entry
}

func NewController(bus canbus.Interface, log *logrus.Logger) *Controller {
	state := NewState()
	return &Controller{
		bus:       bus,
		state:     state,
		poller:    NewTelemetryPoller(bus, state, RECV_TIMEOUT, log),
		scheduler: NewSetpointScheduler(bus, state, log),
		log:       log.WithField("device", fmt.Sprintf("0x%02X", CONTROLLER_ID)),
	}
}

// State exposes the shared setpoint/telemetry record. The presentation
// layer writes setpoints and reads telemetry through it.
func (c *Controller) State() *State { return c.state }

// Start brings up the telemetry poller. It runs for the life of the
// session, independent of MIT mode.
func (c *Controller) Start() {
	c.poller.Start()
	c.log.Info("session started")
}

// EnterMode switches the actuator into closed-loop MIT control.
func (c *Controller) EnterMode() error {
	return c.bus.Send(EnterModeFrame())
}

// ExitMode leaves MIT control.
func (c *Controller) ExitMode() error {
	return c.bus.Send(ExitModeFrame())
}

// ZeroPosition makes the current shaft position the zero reference.
func (c *Controller) ZeroPosition() error {
	return c.bus.Send(ZeroPositionFrame())
}

// SendSetpoints issues a single command frame from the current
// snapshot, outside any stream.
func (c *Controller) SendSetpoints() error {
	return c.bus.Send(CommandFrame(c.state.Setpoints()))
}

// StartStream begins periodic setpoint transmission. Sub-floor
// intervals are clamped by the scheduler.
func (c *Controller) StartStream(interval time.Duration) {
	c.scheduler.Start(interval)
	c.log.WithField("interval", c.scheduler.Interval()).Info("stream started")
}

// StopStream halts periodic transmission. No-op when not streaming.
func (c *Controller) StopStream() {
	if !c.scheduler.Running() {
		return
	}
	c.scheduler.Stop()
	c.log.Info("stream stopped")
}

// Streaming reports whether the setpoint stream is running.
func (c *Controller) Streaming() bool {
	return c.scheduler.Running()
}

// Close tears the session down: stream first, then the poller, then
// the bus. Telemetry resets to defaults; setpoints persist for the
// next connection.
func (c *Controller) Close() error {
	c.scheduler.Stop()
	c.poller.Stop()
	err := c.bus.Shutdown()
	c.state.ResetTelemetry()
	c.log.Info("session closed")
	return err
}
