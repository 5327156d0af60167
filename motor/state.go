package motor

import "sync"

// State is the record shared between the operator surface, the
// setpoint scheduler and the telemetry poller. Setpoints and telemetry
// have independent writers; all access goes through one lock and reads
// hand out snapshots, never references.
type State struct {
	mu        sync.Mutex
	setpoints Setpoints
	telemetry Telemetry
}

// NewState returns power-on defaults. Kd starts at 0.5 so the first
// streamed command has some damping behind it.
func NewState() *State {
	return &State{setpoints: Setpoints{Kd: 0.5}}
}

// Setpoints returns the current commanded values.
func (s *State) Setpoints() Setpoints {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setpoints
}

// SetSetpoints replaces the commanded values wholesale.
func (s *State) SetSetpoints(sp Setpoints) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setpoints = sp
}

// UpdateSetpoints applies fn to the commanded values under the lock.
// fn must not block.
func (s *State) UpdateSetpoints(fn func(*Setpoints)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.setpoints)
}

// Telemetry returns the last observed values.
func (s *State) Telemetry() Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.telemetry
}

// PublishTelemetry records a decoded reply. Called only by the poller.
func (s *State) PublishTelemetry(t Telemetry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = t
}

// ResetTelemetry clears the measured values on disconnect. Setpoints
// survive: operator intent is not discarded by a reconnect.
func (s *State) ResetTelemetry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = Telemetry{}
}
