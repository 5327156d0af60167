package motor

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestState(t *testing.T) {
	Convey("a fresh state carries the power-on defaults", t, func() {
		s := NewState()
		So(s.Setpoints(), ShouldResemble, Setpoints{Kd: 0.5})
		So(s.Telemetry(), ShouldResemble, Telemetry{})
	})

	Convey("setpoint updates are visible to readers", t, func() {
		s := NewState()
		s.UpdateSetpoints(func(sp *Setpoints) { sp.Position = 1.25 })
		So(s.Setpoints().Position, ShouldEqual, 1.25)
		So(s.Setpoints().Kd, ShouldEqual, 0.5)
	})

	Convey("resetting telemetry leaves operator intent alone", t, func() {
		s := NewState()
		s.SetSetpoints(Setpoints{Position: 3.0, Kd: 1.0})
		s.PublishTelemetry(Telemetry{Position: 2.9, Echo: CONTROLLER_ID})

		s.ResetTelemetry()

		So(s.Telemetry(), ShouldResemble, Telemetry{})
		So(s.Setpoints(), ShouldResemble, Setpoints{Position: 3.0, Kd: 1.0})
	})

	Convey("concurrent writers on both halves do not race", t, func() {
		s := NewState()
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.UpdateSetpoints(func(sp *Setpoints) { sp.Velocity = float64(i) })
				s.Setpoints()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.PublishTelemetry(Telemetry{Velocity: float64(i)})
				s.Telemetry()
			}
		}()
		wg.Wait()
		So(s.Telemetry().Velocity, ShouldEqual, 999)
	})
}
