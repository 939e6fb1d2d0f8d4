// Package gputest provides an in-memory gpu.Device for tests.
//
// Device records every state-changing call in order, keeps uniform values by
// name per program and stores depth texels for every texture so a test can
// write depth in one pass and read it back through the sampler units bound in
// a later one. Failures can be injected for compile, link, validate and
// framebuffer creation.
package gputest

import (
	"errors"
	"fmt"

	"Shadow3D/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

type Program struct {
	ID       uint32
	Shaders  []uint32
	Uniforms map[string]any
	Deleted  bool

	locations map[string]int32
}

// MeshData is what a NewMesh call uploaded.
type MeshData struct {
	Vertices   []float32
	Components []int32
	Indices    []uint32
	Deleted    bool
}

// Triangles assembles the mesh's first attribute into triangles.
func (m *MeshData) Triangles() [][3]mgl32.Vec3 {
	var stride int
	for _, c := range m.Components {
		stride += int(c)
	}
	if stride < 3 {
		return nil
	}
	vertex := func(i uint32) mgl32.Vec3 {
		base := int(i) * stride
		return mgl32.Vec3{m.Vertices[base], m.Vertices[base+1], m.Vertices[base+2]}
	}

	order := m.Indices
	if len(order) == 0 {
		for i := 0; i < len(m.Vertices)/stride; i++ {
			order = append(order, uint32(i))
		}
	}
	tris := make([][3]mgl32.Vec3, 0, len(order)/3)
	for i := 0; i+2 < len(order); i += 3 {
		tris = append(tris, [3]mgl32.Vec3{vertex(order[i]), vertex(order[i+1]), vertex(order[i+2])})
	}
	return tris
}

type shaderObject struct {
	stage   gpu.ShaderStage
	source  string
	deleted bool
}

type Device struct {
	Calls []Call

	// CompileErrors makes CompileShader fail for a stage with the given log.
	CompileErrors map[gpu.ShaderStage]string
	// LinkError and ValidateError, when non-empty, fail every link/validate.
	LinkError     string
	ValidateError string
	// FailFramebuffers makes NewDepthFramebuffer report an incomplete target.
	FailFramebuffers bool
	// UndefinedUniforms resolve to -1 in every program.
	UndefinedUniforms map[string]bool

	nextID       uint32
	nextLocation int32
	textures     map[uint32]*Texture
	framebuffers map[uint32]uint32
	shaders      map[uint32]shaderObject
	programs     map[uint32]*Program
	locationName map[int32]string
	units        map[uint32]uint32
	meshes       map[uint32]*MeshData

	boundFBO   uint32
	current    uint32
	viewport   [4]int32
	clearColor [4]float32
	depthTest  bool
	depthMask  bool
	depthFunc  gpu.DepthFunc
}

var _ gpu.Device = (*Device)(nil)

func New() *Device {
	return &Device{
		CompileErrors:     map[gpu.ShaderStage]string{},
		UndefinedUniforms: map[string]bool{},
		textures:          map[uint32]*Texture{},
		framebuffers:      map[uint32]uint32{},
		shaders:           map[uint32]shaderObject{},
		programs:          map[uint32]*Program{},
		locationName:      map[int32]string{},
		units:             map[uint32]uint32{},
		meshes:            map[uint32]*MeshData{},
		depthMask:         true,
	}
}

func (d *Device) record(op string, args ...any) {
	d.Calls = append(d.Calls, Call{Op: op, Args: args})
}

func (d *Device) id() uint32 {
	d.nextID++
	return d.nextID
}

// Mark appends a caller-defined entry to Calls, e.g. to log draws issued by a
// scene callback between device calls.
func (d *Device) Mark(op string, args ...any) {
	d.record(op, args...)
}

func (d *Device) NewDepthTexture(target gpu.TextureTarget, width, height int32) uint32 {
	id := d.id()
	d.textures[id] = newTexture(id, target, width, height)
	d.record("NewDepthTexture", target, width, height)
	return id
}

func (d *Device) NewConstantDepthTexture(target gpu.TextureTarget, depth float32) uint32 {
	id := d.id()
	t := newTexture(id, target, 1, 1)
	t.Fill(depth)
	d.textures[id] = t
	d.record("NewConstantDepthTexture", target, depth)
	return id
}

func (d *Device) NewDepthFramebuffer(target gpu.TextureTarget, texture uint32) (uint32, error) {
	d.record("NewDepthFramebuffer", target, texture)
	if d.FailFramebuffers {
		return 0, fmt.Errorf("%s depth target status=0x8CD6: %w", target, gpu.ErrFramebufferIncomplete)
	}
	t, ok := d.textures[texture]
	if !ok || t.Target != target {
		return 0, fmt.Errorf("texture %d is not a %s texture: %w", texture, target, gpu.ErrFramebufferIncomplete)
	}
	id := d.id()
	d.framebuffers[id] = texture
	return id, nil
}

func (d *Device) DeleteTexture(id uint32) {
	d.record("DeleteTexture", id)
	if t, ok := d.textures[id]; ok {
		t.Deleted = true
	}
}

func (d *Device) DeleteFramebuffer(id uint32) {
	d.record("DeleteFramebuffer", id)
	delete(d.framebuffers, id)
}

func (d *Device) BindFramebuffer(fbo uint32) {
	d.record("BindFramebuffer", fbo)
	d.boundFBO = fbo
}

func (d *Device) Viewport(x, y, width, height int32) {
	d.record("Viewport", x, y, width, height)
	d.viewport = [4]int32{x, y, width, height}
}

func (d *Device) SetClearColor(r, g, b, a float32) {
	d.clearColor = [4]float32{r, g, b, a}
}

func (d *Device) Clear(mask gpu.ClearMask) {
	d.record("Clear", mask)
	if mask&gpu.ClearDepth != 0 {
		if t := d.BoundDepthTarget(); t != nil {
			t.Fill(1)
		}
	}
}

func (d *Device) SetDepthTest(enabled bool) {
	d.record("SetDepthTest", enabled)
	d.depthTest = enabled
}

func (d *Device) SetDepthMask(enabled bool) {
	d.record("SetDepthMask", enabled)
	d.depthMask = enabled
}

func (d *Device) SetDepthFunc(fn gpu.DepthFunc) {
	d.record("SetDepthFunc", fn)
	d.depthFunc = fn
}

func (d *Device) NewColorTexture(width, height int32, rgba []uint8) uint32 {
	id := d.id()
	t := newTexture(id, gpu.Texture2D, width, height)
	t.Pixels = append([]uint8(nil), rgba...)
	d.textures[id] = t
	d.record("NewColorTexture", width, height)
	return id
}

func (d *Device) NewMesh(vertices []float32, components []int32, indices []uint32) gpu.Mesh {
	m := gpu.Mesh{VAO: d.id(), VBO: d.id()}
	if len(indices) > 0 {
		m.EBO = d.id()
		m.Count = int32(len(indices))
	} else {
		var stride int32
		for _, c := range components {
			stride += c
		}
		if stride > 0 {
			m.Count = int32(len(vertices)) / stride
		}
	}
	d.meshes[m.VAO] = &MeshData{
		Vertices:   append([]float32(nil), vertices...),
		Components: append([]int32(nil), components...),
		Indices:    append([]uint32(nil), indices...),
	}
	d.record("NewMesh", len(vertices), len(indices))
	return m
}

// DrawMesh records the mesh and the program current at draw time.
func (d *Device) DrawMesh(m gpu.Mesh) {
	d.record("DrawMesh", m.VAO, d.current)
}

func (d *Device) DeleteMesh(m gpu.Mesh) {
	d.record("DeleteMesh", m.VAO)
	if data, ok := d.meshes[m.VAO]; ok {
		data.Deleted = true
	}
}

func (d *Device) BindTexture(unit uint32, target gpu.TextureTarget, id uint32) {
	d.record("BindTexture", unit, target, id)
	d.units[unit] = id
}

func (d *Device) CompileShader(stage gpu.ShaderStage, source string) (uint32, error) {
	d.record("CompileShader", stage)
	if log, ok := d.CompileErrors[stage]; ok {
		return 0, errors.New(log)
	}
	id := d.id()
	d.shaders[id] = shaderObject{stage: stage, source: source}
	return id, nil
}

func (d *Device) LinkProgram(shaders ...uint32) (uint32, error) {
	d.record("LinkProgram", len(shaders))
	if d.LinkError != "" {
		return 0, errors.New(d.LinkError)
	}
	id := d.id()
	d.programs[id] = &Program{
		ID:        id,
		Shaders:   append([]uint32(nil), shaders...),
		Uniforms:  map[string]any{},
		locations: map[string]int32{},
	}
	return id, nil
}

func (d *Device) ValidateProgram(program uint32) error {
	d.record("ValidateProgram", program)
	if d.ValidateError != "" {
		return errors.New(d.ValidateError)
	}
	if _, ok := d.programs[program]; !ok {
		return fmt.Errorf("program %d does not exist", program)
	}
	return nil
}

func (d *Device) DeleteShader(id uint32) {
	d.record("DeleteShader", id)
	if s, ok := d.shaders[id]; ok {
		s.deleted = true
		d.shaders[id] = s
	}
}

func (d *Device) DeleteProgram(id uint32) {
	d.record("DeleteProgram", id)
	if p, ok := d.programs[id]; ok {
		p.Deleted = true
	}
}

func (d *Device) UseProgram(program uint32) {
	d.record("UseProgram", program)
	d.current = program
}

func (d *Device) UniformLocation(program uint32, name string) int32 {
	p, ok := d.programs[program]
	if !ok || p.Deleted || d.UndefinedUniforms[name] {
		return -1
	}
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := d.nextLocation
	d.nextLocation++
	p.locations[name] = loc
	d.locationName[loc] = name
	return loc
}

func (d *Device) setUniform(location int32, value any) {
	name, ok := d.locationName[location]
	if !ok {
		d.record("Uniform", location, value)
		return
	}
	d.record("Uniform", name, value)
	if p, ok := d.programs[d.current]; ok && p.locations[name] == location {
		p.Uniforms[name] = value
	}
}

func (d *Device) Uniform1i(location int32, value int32) {
	d.setUniform(location, value)
}

func (d *Device) Uniform1f(location int32, value float32) {
	d.setUniform(location, value)
}

func (d *Device) Uniform3f(location int32, value mgl32.Vec3) {
	d.setUniform(location, value)
}

func (d *Device) UniformMatrix4(location int32, values ...mgl32.Mat4) {
	if len(values) == 1 {
		d.setUniform(location, values[0])
		return
	}
	d.setUniform(location, append([]mgl32.Mat4(nil), values...))
}

// Inspection helpers.

func (d *Device) Program(id uint32) *Program {
	return d.programs[id]
}

func (d *Device) CurrentProgram() uint32 {
	return d.current
}

// Uniform returns the last value written to name while program was current.
func (d *Device) Uniform(program uint32, name string) (any, bool) {
	p, ok := d.programs[program]
	if !ok {
		return nil, false
	}
	v, ok := p.Uniforms[name]
	return v, ok
}

// ShaderSource returns the text a shader was compiled from, deleted or not.
func (d *Device) ShaderSource(id uint32) string {
	return d.shaders[id].source
}

func (d *Device) BoundFramebuffer() uint32 {
	return d.boundFBO
}

func (d *Device) CurrentViewport() [4]int32 {
	return d.viewport
}

func (d *Device) DepthTestEnabled() bool {
	return d.depthTest
}

func (d *Device) DepthMaskEnabled() bool {
	return d.depthMask
}

func (d *Device) CurrentDepthFunc() gpu.DepthFunc {
	return d.depthFunc
}

func (d *Device) Mesh(vao uint32) *MeshData {
	return d.meshes[vao]
}

func (d *Device) LiveMeshes() int {
	n := 0
	for _, m := range d.meshes {
		if !m.Deleted {
			n++
		}
	}
	return n
}

func (d *Device) Texture(id uint32) *Texture {
	return d.textures[id]
}

// TextureOnUnit returns the texture last bound to unit, or nil.
func (d *Device) TextureOnUnit(unit uint32) *Texture {
	id, ok := d.units[unit]
	if !ok {
		return nil
	}
	return d.textures[id]
}

// FramebufferTexture returns the depth attachment of fbo, or nil.
func (d *Device) FramebufferTexture(fbo uint32) *Texture {
	tex, ok := d.framebuffers[fbo]
	if !ok {
		return nil
	}
	return d.textures[tex]
}

// BoundDepthTarget is the depth attachment of the bound framebuffer; nil for
// the default target.
func (d *Device) BoundDepthTarget() *Texture {
	if d.boundFBO == gpu.DefaultFramebuffer {
		return nil
	}
	return d.FramebufferTexture(d.boundFBO)
}

func (d *Device) LiveTextures() int {
	n := 0
	for _, t := range d.textures {
		if !t.Deleted {
			n++
		}
	}
	return n
}

func (d *Device) LiveFramebuffers() int {
	return len(d.framebuffers)
}

// Index returns the position in Calls of the first call at or after from
// matching op and, when given, the leading arguments. It returns -1 when
// nothing matches.
func (d *Device) Index(from int, op string, args ...any) int {
	for i := from; i < len(d.Calls); i++ {
		c := d.Calls[i]
		if c.Op != op || len(c.Args) < len(args) {
			continue
		}
		match := true
		for j, a := range args {
			if c.Args[j] != a {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// Count returns how many recorded calls match op and the leading arguments.
func (d *Device) Count(op string, args ...any) int {
	n := 0
	for i := d.Index(0, op, args...); i >= 0; i = d.Index(i+1, op, args...) {
		n++
	}
	return n
}

// Reset drops the call log, keeping all resources.
func (d *Device) Reset() {
	d.Calls = d.Calls[:0]
}

func (d *Device) LiveShaders() int {
	n := 0
	for _, s := range d.shaders {
		if !s.deleted {
			n++
		}
	}
	return n
}
