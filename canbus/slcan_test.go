package canbus

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMarshalFrame(t *testing.T) {
	Convey("a full 8-byte frame renders as a 't' line", t, func() {
		frame, _ := NewFrame(0x17, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFC})
		So(string(marshalFrame(frame)), ShouldEqual, "t0178FFFFFFFFFFFFFFFC\r")
	})

	Convey("an empty frame is just id and dlc", t, func() {
		frame, _ := NewFrame(0x7FF, nil)
		So(string(marshalFrame(frame)), ShouldEqual, "t7FF0\r")
	})
}

func TestParseLine(t *testing.T) {
	Convey("a data line round-trips through the parser", t, func() {
		frame, _ := NewFrame(0x17, []byte{0x12, 0x34, 0xAB})
		got, ok := parseLine([]byte("t01731234AB"))
		So(ok, ShouldBeTrue)
		So(*got, ShouldResemble, frame)
	})

	Convey("acks and foreign lines are skipped", t, func() {
		for _, line := range []string{"", "z", "T00000017812", "t01", "t017Z", "t0179"} {
			_, ok := parseLine([]byte(line))
			So(ok, ShouldBeFalse)
		}
	})

	Convey("a truncated payload is rejected", t, func() {
		_, ok := parseLine([]byte("t01731234"))
		So(ok, ShouldBeFalse)
	})

	Convey("bad hex in the payload is rejected", t, func() {
		_, ok := parseLine([]byte("t0171GG"))
		So(ok, ShouldBeFalse)
	})
}
