package engine

// Unwind collects cleanups to run in reverse order, e.g. when setup fails
// halfway.
type Unwind []func()

func (u *Unwind) Add(cleanup func()) {
	*u = append(*u, cleanup)
}

func (u *Unwind) Unwind() {
	for i := len(*u) - 1; i >= 0; i-- {
		(*u)[i]()
	}
	*u = (*u)[:0]
}

// Discard keeps everything registered so far, for when setup succeeded.
func (u *Unwind) Discard() {
	*u = (*u)[:0]
}
