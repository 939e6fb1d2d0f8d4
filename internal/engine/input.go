package engine

// keyLatch turns a held key into one event per press.
type keyLatch struct {
	down bool
}

func (k *keyLatch) Pressed(down bool) bool {
	fired := down && !k.down
	k.down = down
	return fired
}
