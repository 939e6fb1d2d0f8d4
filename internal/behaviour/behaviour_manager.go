// Package behaviour runs per-frame scripts that animate the scene and its
// lights.
package behaviour

import (
	"Shadow3D/internal/logger"

	"go.uber.org/zap"
)

// Behaviour is started once before its first update, then updated every
// frame with the frame time in seconds.
type Behaviour interface {
	Start()
	Update(dt float32)
}

// Stopper is implemented by behaviours that need to release something when
// they are removed.
type Stopper interface {
	Stop()
}

type behaviourWrapper struct {
	name      string
	behaviour Behaviour
	started   bool
	enabled   bool
}

type Manager struct {
	behaviours []behaviourWrapper
}

func NewManager() *Manager {
	return &Manager{}
}

// Add schedules b, named for logging and lookup.
func (m *Manager) Add(name string, b Behaviour) {
	m.behaviours = append(m.behaviours, behaviourWrapper{name: name, behaviour: b, enabled: true})
	logger.Log.Debug("Behaviour added", zap.String("name", name))
}

func (m *Manager) Remove(b Behaviour) bool {
	for i := range m.behaviours {
		if m.behaviours[i].behaviour == b {
			stop(m.behaviours[i].behaviour)
			m.behaviours = append(m.behaviours[:i], m.behaviours[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled pauses or resumes every behaviour registered under name.
func (m *Manager) SetEnabled(name string, enabled bool) {
	for i := range m.behaviours {
		if m.behaviours[i].name == name {
			m.behaviours[i].enabled = enabled
		}
	}
}

func (m *Manager) Len() int {
	return len(m.behaviours)
}

// Clear stops and removes all behaviours.
func (m *Manager) Clear() {
	for _, w := range m.behaviours {
		stop(w.behaviour)
	}
	m.behaviours = m.behaviours[:0]
}

// UpdateAll starts any behaviour added since the last frame, then updates
// every enabled one in insertion order.
func (m *Manager) UpdateAll(dt float32) {
	for i := range m.behaviours {
		w := &m.behaviours[i]
		if !w.enabled {
			continue
		}
		if !w.started {
			w.behaviour.Start()
			w.started = true
		}
		w.behaviour.Update(dt)
	}
}

func stop(b Behaviour) {
	if s, ok := b.(Stopper); ok {
		s.Stop()
	}
}
