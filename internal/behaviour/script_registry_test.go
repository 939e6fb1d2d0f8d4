package behaviour

import (
	"errors"
	"testing"
)

type MockBehaviour struct {
	starts  int
	updates int
	lastDt  float32
	stopped bool
	target  any
}

func (m *MockBehaviour) Start() {
	m.starts++
}

func (m *MockBehaviour) Update(dt float32) {
	m.updates++
	m.lastDt = dt
}

func (m *MockBehaviour) Stop() {
	m.stopped = true
}

func resetRegistry() {
	scriptRegistry = make(map[string]ScriptConstructor)
}

func mockConstructor(target any) (Behaviour, error) {
	return &MockBehaviour{target: target}, nil
}

func TestRegisterScript(t *testing.T) {
	resetRegistry()

	RegisterScript("TestScript", mockConstructor)

	scripts := GetAvailableScripts()

	if len(scripts) != 1 {
		t.Errorf("Expected 1 script, got %d", len(scripts))
	}

	if scripts[0] != "TestScript" {
		t.Errorf("Expected 'TestScript', got '%s'", scripts[0])
	}
}

func TestCreateScript(t *testing.T) {
	resetRegistry()

	RegisterScript("TestScript", mockConstructor)

	b, err := CreateScript("TestScript", "target")
	if err != nil {
		t.Fatalf("CreateScript failed: %v", err)
	}

	mock, ok := b.(*MockBehaviour)
	if !ok {
		t.Fatalf("CreateScript returned %T", b)
	}
	if mock.target != "target" {
		t.Errorf("Expected target to be passed through, got %v", mock.target)
	}
}

func TestCreateScriptNotFound(t *testing.T) {
	resetRegistry()

	b, err := CreateScript("NonExistent", nil)

	if b != nil {
		t.Error("CreateScript should return nil for non-existent script")
	}
	if !errors.Is(err, ErrUnknownScript) {
		t.Errorf("Expected ErrUnknownScript, got %v", err)
	}
}

func TestCreateScriptBadTarget(t *testing.T) {
	resetRegistry()

	RegisterScript("Picky", func(target any) (Behaviour, error) {
		return nil, ErrBadTarget
	})

	_, err := CreateScript("Picky", 42)

	if !errors.Is(err, ErrBadTarget) {
		t.Errorf("Expected ErrBadTarget, got %v", err)
	}
}

func TestGetAvailableScriptsSorted(t *testing.T) {
	resetRegistry()

	RegisterScript("Zebra", mockConstructor)
	RegisterScript("Alpha", mockConstructor)
	RegisterScript("Middle", mockConstructor)

	scripts := GetAvailableScripts()

	if len(scripts) != 3 {
		t.Fatalf("Expected 3 scripts, got %d", len(scripts))
	}

	if scripts[0] != "Alpha" {
		t.Errorf("Expected first script 'Alpha', got '%s'", scripts[0])
	}
	if scripts[1] != "Middle" {
		t.Errorf("Expected second script 'Middle', got '%s'", scripts[1])
	}
	if scripts[2] != "Zebra" {
		t.Errorf("Expected third script 'Zebra', got '%s'", scripts[2])
	}
}
