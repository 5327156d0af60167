package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/oakmoor/akdrive/motor"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "akdrive")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "akdrive.yaml")
	if err := ioutil.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("an empty path yields the shipped defaults", t, func() {
		cfg, err := Load("")
		So(err, ShouldBeNil)
		So(cfg.Bus.Driver, ShouldEqual, "slcan")
		So(cfg.Bus.Bitrate, ShouldEqual, 1000000)
		So(cfg.StreamInterval.Std(), ShouldEqual, 100*time.Millisecond)
		So(cfg.RecvTimeout.Std(), ShouldEqual, motor.RECV_TIMEOUT)
	})

	Convey("yaml values override the defaults", t, func() {
		path := writeConfig(t, `
version: "1.0.2"
bus:
  driver: socketcan
  channel: can0
stream_interval: 50ms
`)
		cfg, err := Load(path)
		So(err, ShouldBeNil)
		So(cfg.Bus.Driver, ShouldEqual, "socketcan")
		So(cfg.Bus.Channel, ShouldEqual, "can0")
		So(cfg.StreamInterval.Std(), ShouldEqual, 50*time.Millisecond)
		// untouched fields keep their defaults
		So(cfg.Bus.Bitrate, ShouldEqual, 1000000)
	})

	Convey("the environment wins over the file", t, func() {
		path := writeConfig(t, `
version: "1.0.0"
bus:
  channel: /dev/ttyACM3
`)
		os.Setenv("AKDRIVE_BUS_CHANNEL", "/dev/ttyACM7")
		defer os.Unsetenv("AKDRIVE_BUS_CHANNEL")

		cfg, err := Load(path)
		So(err, ShouldBeNil)
		So(cfg.Bus.Channel, ShouldEqual, "/dev/ttyACM7")
	})

	Convey("a version outside the constraint is rejected", t, func() {
		path := writeConfig(t, `version: "2.0.0"`)
		_, err := Load(path)
		So(err, ShouldNotBeNil)
	})

	Convey("a DEV version passes the gate", t, func() {
		path := writeConfig(t, `version: "DEV"`)
		_, err := Load(path)
		So(err, ShouldBeNil)
	})

	Convey("an unparseable version is rejected", t, func() {
		path := writeConfig(t, `version: "not-a-version"`)
		_, err := Load(path)
		So(err, ShouldNotBeNil)
	})

	Convey("an unknown bus driver is rejected", t, func() {
		path := writeConfig(t, `
version: "1.0.0"
bus:
  driver: pigeon
`)
		_, err := Load(path)
		So(err, ShouldNotBeNil)
	})

	Convey("a sub-floor stream interval clamps instead of failing", t, func() {
		path := writeConfig(t, `
version: "1.0.0"
stream_interval: 1ms
`)
		cfg, err := Load(path)
		So(err, ShouldBeNil)
		So(cfg.StreamInterval.Std(), ShouldEqual, motor.MIN_SEND_INTERVAL)
	})
}
