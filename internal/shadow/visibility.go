package shadow

// Visibility mirrors on the CPU the single-sample depth comparison in
// renderer/shaders/main.frag, for both the directional and the omni maps:
// 0 when the fragment is behind the stored occluder by more than bias, 1
// otherwise. Fragments beyond the far end of the light volume are lit.
// Nothing on the render path calls it; tests use it to read shadow results
// back out of maps rendered through a test device.
func Visibility(fragmentDepth, storedDepth, bias float32) float32 {
	if fragmentDepth > 1 {
		return 1
	}
	if fragmentDepth-bias > storedDepth {
		return 0
	}
	return 1
}
