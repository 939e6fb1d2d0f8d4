package behaviour

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUnknownScript = errors.New("unknown script")
	ErrBadTarget     = errors.New("script cannot drive this target")
)

// ScriptConstructor builds a behaviour driving target, e.g. a light or a
// scene object. It returns ErrBadTarget for targets it does not support.
type ScriptConstructor func(target any) (Behaviour, error)

var (
	registryMu     sync.RWMutex
	scriptRegistry = make(map[string]ScriptConstructor)
)

// RegisterScript makes a script available by name. Registering a name
// again replaces the constructor.
func RegisterScript(name string, constructor ScriptConstructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	scriptRegistry[name] = constructor
}

func GetAvailableScripts() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(scriptRegistry))
	for name := range scriptRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func CreateScript(name string, target any) (Behaviour, error) {
	registryMu.RLock()
	constructor, exists := scriptRegistry[name]
	registryMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScript, name)
	}
	b, err := constructor(target)
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", name, err)
	}
	return b, nil
}
