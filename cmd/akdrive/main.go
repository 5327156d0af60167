package main

import (
	"flag"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/sirupsen/logrus"

	"github.com/oakmoor/akdrive/canbus"
	"github.com/oakmoor/akdrive/config"
	"github.com/oakmoor/akdrive/motor"
	"github.com/oakmoor/akdrive/web"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config")
	sim := flag.Bool("sim", false, "run against an in-memory loopback bus")
	flag.Parse()

	log := logrus.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("unable to load config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	bus, err := openBus(cfg, *sim)
	if err != nil {
		log.Fatalf("unable to open %s bus on %s: %v", cfg.Bus.Driver, cfg.Bus.Channel, err)
	}

	ctrl := motor.NewController(bus, log)
	ctrl.Start()
	defer ctrl.Close()

	srv := web.NewServer(ctrl, log)
	go func() {
		log.Infof("status API listening on %s", cfg.Listen)
		if err := http.ListenAndServe(cfg.Listen, srv.Router()); err != nil {
			log.Error(err)
		}
	}()

	runShell(ctrl, cfg)
}

func openBus(cfg config.Config, sim bool) (canbus.Interface, error) {
	if sim {
		return canbus.NewLoopback(), nil
	}
	switch cfg.Bus.Driver {
	case "socketcan":
		return canbus.NewSocketCAN(cfg.Bus.Channel)
	case "loopback":
		return canbus.NewLoopback(), nil
	default:
		return canbus.NewSLCAN(cfg.Bus.Channel, cfg.Bus.Bitrate)
	}
}

func runShell(ctrl *motor.Controller, cfg config.Config) {
	shell := ishell.New()
	shell.Println("AK80-64 MIT mode console")

	shell.AddCmd(&ishell.Cmd{
		Name: "enter",
		Help: "enter MIT mode",
		Func: func(c *ishell.Context) {
			if err := ctrl.EnterMode(); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "exit-mode",
		Help: "exit MIT mode",
		Func: func(c *ishell.Context) {
			if err := ctrl.ExitMode(); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "zero",
		Help: "set the current position as the zero reference",
		Func: func(c *ishell.Context) {
			if err := ctrl.ZeroPosition(); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "set",
		Help: "set <pos|vel|kp|kd|torque> <value>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: set <pos|vel|kp|kd|torque> <value>"))
				return
			}
			value, err := strconv.ParseFloat(c.Args[1], 64)
			if err != nil {
				c.Err(err)
				return
			}
			var apply func(*motor.Setpoints)
			switch c.Args[0] {
			case "pos":
				apply = func(sp *motor.Setpoints) { sp.Position = value }
			case "vel":
				apply = func(sp *motor.Setpoints) { sp.Velocity = value }
			case "kp":
				apply = func(sp *motor.Setpoints) { sp.Kp = value }
			case "kd":
				apply = func(sp *motor.Setpoints) { sp.Kd = value }
			case "torque":
				apply = func(sp *motor.Setpoints) { sp.Torque = value }
			default:
				c.Err(fmt.Errorf("unknown channel %q", c.Args[0]))
				return
			}
			ctrl.State().UpdateSetpoints(apply)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "send",
		Help: "send the current setpoints once",
		Func: func(c *ishell.Context) {
			if err := ctrl.SendSetpoints(); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stream",
		Help: "stream start [interval] | stream stop",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("usage: stream start [interval] | stream stop"))
				return
			}
			switch c.Args[0] {
			case "start":
				interval := cfg.StreamInterval.Std()
				if len(c.Args) > 1 {
					v, err := time.ParseDuration(c.Args[1])
					if err != nil {
						c.Err(err)
						return
					}
					interval = v
				}
				ctrl.StartStream(interval)
			case "stop":
				ctrl.StopStream()
			default:
				c.Err(fmt.Errorf("unknown stream action %q", c.Args[0]))
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "print setpoints and telemetry",
		Func: func(c *ishell.Context) {
			sp := ctrl.State().Setpoints()
			t := ctrl.State().Telemetry()
			c.Printf("setpoints: pos=%.3f vel=%.3f kp=%.1f kd=%.2f torque=%.2f\n",
				sp.Position, sp.Velocity, sp.Kp, sp.Kd, sp.Torque)
			c.Printf("telemetry: pos=%.3f vel=%.3f torque=%.2f (echo 0x%02X)\n",
				t.Position, t.Velocity, t.Torque, t.Echo)
			c.Printf("streaming: %v\n", ctrl.Streaming())
		},
	})

	shell.Start()
}
