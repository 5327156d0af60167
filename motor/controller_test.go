package motor

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/oakmoor/akdrive/canbus"
)

func TestController(t *testing.T) {
	Convey("with a loopback session", t, func() {
		bus := canbus.NewLoopback()
		ctrl := NewController(bus, quietLogger())

		Convey("mode commands put sentinel frames on the wire", func() {
			So(ctrl.EnterMode(), ShouldBeNil)
			So(ctrl.ExitMode(), ShouldBeNil)
			So(ctrl.ZeroPosition(), ShouldBeNil)

			sent := bus.Sent()
			So(len(sent), ShouldEqual, 3)
			So(sent[0].Data[7], ShouldEqual, 0xFC)
			So(sent[1].Data[7], ShouldEqual, 0xFD)
			So(sent[2].Data[7], ShouldEqual, 0xFE)
		})

		Convey("a one-shot send packs the live setpoints", func() {
			ctrl.State().UpdateSetpoints(func(sp *Setpoints) { sp.Position = 5.0 })
			So(ctrl.SendSetpoints(), ShouldBeNil)

			frame, ok := bus.LastSent()
			So(ok, ShouldBeTrue)
			So(frame.Data, ShouldResemble, PackCommand(ctrl.State().Setpoints()))
		})

		Convey("close stops the loops, shuts the bus and resets telemetry", func() {
			ctrl.Start()
			ctrl.StartStream(MIN_SEND_INTERVAL)
			ctrl.State().PublishTelemetry(Telemetry{Position: 2.0})
			ctrl.State().UpdateSetpoints(func(sp *Setpoints) { sp.Position = 4.0 })

			So(ctrl.Close(), ShouldBeNil)

			So(ctrl.Streaming(), ShouldBeFalse)
			So(ctrl.State().Telemetry(), ShouldResemble, Telemetry{})
			// operator intent survives the disconnect
			So(ctrl.State().Setpoints().Position, ShouldEqual, 4.0)
			So(bus.Send(canbus.Frame{}), ShouldEqual, canbus.ERR_BUS_CLOSED)
		})

		Convey("close on an idle session is clean", func() {
			So(ctrl.Close(), ShouldBeNil)
			So(ctrl.Close(), ShouldBeNil)
		})

		Convey("streaming round trips with the poller over one bus", func() {
			ctrl.Start()
			ctrl.StartStream(MIN_SEND_INTERVAL)
			defer ctrl.Close()

			// echo a plausible reply while commands stream out
			bus.Inject(canbus.Frame{
				ID:   CONTROLLER_ID,
				Len:  8,
				Data: [8]byte{CONTROLLER_ID, 0x80, 0x00, 0x80, 0x08, 0x00, 0x00, 0x00},
			})

			So(eventually(time.Second, func() bool {
				return len(bus.Sent()) > 0 && ctrl.State().Telemetry().Echo == CONTROLLER_ID
			}), ShouldBeTrue)
		})
	})
}
