package motor

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/oakmoor/akdrive/canbus"
)

func TestSetpointScheduler(t *testing.T) {
	Convey("with a loopback bus", t, func() {
		bus := canbus.NewLoopback()
		state := NewState()
		sched := NewSetpointScheduler(bus, state, quietLogger())

		Convey("each tick sends the current snapshot", func() {
			state.SetSetpoints(Setpoints{Position: 5.0, Velocity: 2.0, Kp: 100.0, Kd: 2.0, Torque: 10.0})
			sched.Start(MIN_SEND_INTERVAL)
			defer sched.Stop()

			So(eventually(time.Second, func() bool {
				return len(bus.Sent()) >= 2
			}), ShouldBeTrue)

			frame, ok := bus.LastSent()
			So(ok, ShouldBeTrue)
			So(frame.ID, ShouldEqual, CONTROLLER_ID)
			So(frame.Data, ShouldResemble, PackCommand(state.Setpoints()))
		})

		Convey("a later setpoint write wins on the next tick", func() {
			sched.Start(MIN_SEND_INTERVAL)
			defer sched.Stop()

			state.UpdateSetpoints(func(sp *Setpoints) { sp.Position = -3.0 })
			want := PackCommand(state.Setpoints())

			So(eventually(time.Second, func() bool {
				frame, ok := bus.LastSent()
				return ok && frame.Data == want
			}), ShouldBeTrue)
		})

		Convey("sub-floor intervals are raised to the floor", func() {
			sched.Start(time.Millisecond)
			defer sched.Stop()
			So(sched.Interval(), ShouldEqual, MIN_SEND_INTERVAL)
		})

		Convey("stopping an unstarted scheduler is a no-op", func() {
			So(sched.Stop(), ShouldBeTrue)
			So(sched.Running(), ShouldBeFalse)
		})

		Convey("cancellation leaves the shared state intact", func() {
			state.SetSetpoints(Setpoints{Position: 1.0, Kd: 0.5})
			sched.Start(MIN_SEND_INTERVAL)
			sched.Stop()
			So(state.Setpoints(), ShouldResemble, Setpoints{Position: 1.0, Kd: 0.5})
		})

		Convey("send errors are swallowed and the loop keeps ticking", func() {
			bus.SetSendError(errors.New("simulated tx error"))
			sched.Start(MIN_SEND_INTERVAL)
			defer sched.Stop()

			time.Sleep(30 * time.Millisecond)
			bus.SetSendError(nil)

			So(eventually(time.Second, func() bool {
				return len(bus.Sent()) > 0
			}), ShouldBeTrue)
		})
	})
}
