package shader

import (
	"errors"
	"fmt"

	"Shadow3D/internal/gpu"
)

// ErrUnusable is returned by operations on a program whose id is 0, either
// because it never linked or because validation discarded it.
var ErrUnusable = errors.New("shader program is not usable")

// CompileError reports a stage that failed to compile.
type CompileError struct {
	Program string
	Stage   gpu.ShaderStage
	Log     string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader %q: %s stage failed to compile: %s", e.Program, e.Stage, e.Log)
}

type LinkError struct {
	Program string
	Log     string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shader %q: link failed: %s", e.Program, e.Log)
}

type ValidateError struct {
	Program string
	Log     string
}

func (e *ValidateError) Error() string {
	return fmt.Sprintf("shader %q: validation failed: %s", e.Program, e.Log)
}
