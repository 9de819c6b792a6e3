package initsys

import (
	"context"
	"sync"
)

// Mock is a scriptable Client for tests. States transition instantly:
// Start moves the unit to active, Stop to inactive, unless an error is
// scripted for the operation.
type Mock struct {
	mu sync.Mutex

	states map[string]ActiveState
	calls  []string

	StartErr  error
	StopErr   error
	StatusErr error
}

// NewMock returns a Mock with all units inactive.
func NewMock() *Mock {
	return &Mock{states: make(map[string]ActiveState)}
}

// SetState seeds a unit's state.
func (m *Mock) SetState(unit string, state ActiveState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[unit] = state
}

// Calls returns the operations invoked so far, as "op unit" strings.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Mock) record(op, unit string) {
	m.calls = append(m.calls, op+" "+unit)
}

func (m *Mock) Start(ctx context.Context, unit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("start", unit)
	if m.StartErr != nil {
		return m.StartErr
	}
	m.states[unit] = Active
	return nil
}

func (m *Mock) Stop(ctx context.Context, unit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("stop", unit)
	if m.StopErr != nil {
		return m.StopErr
	}
	m.states[unit] = Inactive
	return nil
}

func (m *Mock) Status(ctx context.Context, unit string) (ActiveState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("status", unit)
	if m.StatusErr != nil {
		return Unknown, m.StatusErr
	}
	if state, ok := m.states[unit]; ok {
		return state, nil
	}
	return Inactive, nil
}

func (m *Mock) WaitInactive(ctx context.Context, unit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("wait-inactive", unit)
	if state := m.states[unit]; state != Inactive && state != Failed {
		m.states[unit] = Inactive
	}
	return nil
}
