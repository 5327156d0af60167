// Package web exposes the live actuator state to external UIs: a JSON
// snapshot endpoint plus a websocket that pushes telemetry and accepts
// the same commands the operator shell offers.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/oakmoor/akdrive/motor"
)

type Server struct {
	ctrl *motor.Controller
	log  *logrus.Entry
	push time.Duration
}

func NewServer(ctrl *motor.Controller, log *logrus.Logger) *Server {
	return &Server{
		ctrl: ctrl,
		log:  log.WithField("component", "web"),
		push: 100 * time.Millisecond,
	}
}

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/api/status", s.handleStatus)
	r.Get("/ws/telemetry", s.handleSocket)
	return r
}

type statusPayload struct {
	Setpoints motor.Setpoints `json:"setpoints"`
	Telemetry motor.Telemetry `json:"telemetry"`
	Streaming bool            `json:"streaming"`
}

func (s *Server) snapshot() statusPayload {
	state := s.ctrl.State()
	return statusPayload{
		Setpoints: state.Setpoints(),
		Telemetry: state.Telemetry(),
		Streaming: s.ctrl.Streaming(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.snapshot())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type socketCommand struct {
	Command  string  `json:"command"`
	Value    float64 `json:"value"`
	Interval string  `json:"interval,omitempty"`
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()
		for {
			var cmd socketCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			s.apply(cmd)
		}
	}()

	ticker := time.NewTicker(s.push)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(s.snapshot()); err != nil {
				return
			}
		}
	}
}

func (s *Server) apply(cmd socketCommand) {
	state := s.ctrl.State()
	var err error
	switch cmd.Command {
	case "enter_mode":
		err = s.ctrl.EnterMode()
	case "exit_mode":
		err = s.ctrl.ExitMode()
	case "zero":
		err = s.ctrl.ZeroPosition()
	case "send":
		err = s.ctrl.SendSetpoints()
	case "set_position":
		state.UpdateSetpoints(func(sp *motor.Setpoints) { sp.Position = cmd.Value })
	case "set_velocity":
		state.UpdateSetpoints(func(sp *motor.Setpoints) { sp.Velocity = cmd.Value })
	case "set_kp":
		state.UpdateSetpoints(func(sp *motor.Setpoints) { sp.Kp = cmd.Value })
	case "set_kd":
		state.UpdateSetpoints(func(sp *motor.Setpoints) { sp.Kd = cmd.Value })
	case "set_torque":
		state.UpdateSetpoints(func(sp *motor.Setpoints) { sp.Torque = cmd.Value })
	case "stream_start":
		interval, perr := time.ParseDuration(cmd.Interval)
		if perr != nil {
			interval = 0 // scheduler clamps to its floor
		}
		s.ctrl.StartStream(interval)
	case "stream_stop":
		s.ctrl.StopStream()
	default:
		s.log.WithField("command", cmd.Command).Warn("unknown socket command")
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("command", cmd.Command).Warn("command failed")
	}
}
