package hotkey

type FakeSource struct {
	flags  chan Flags
	err    error
	starts int
}

func NewFake() *FakeSource {
	return &FakeSource{flags: make(chan Flags, 16)}
}

// NewFailingFake returns a source whose Start fails with err.
func NewFailingFake(err error) *FakeSource {
	return &FakeSource{flags: make(chan Flags, 16), err: err}
}

func (f *FakeSource) Start() error {
	if f.err != nil {
		return f.err
	}
	f.starts++
	return nil
}

func (f *FakeSource) Stop()               {}
func (f *FakeSource) Flags() <-chan Flags { return f.flags }

// Starts reports how many times Start succeeded.
func (f *FakeSource) Starts() int { return f.starts }

// SimFlags injects a modifier-state snapshot.
func (f *FakeSource) SimFlags(flags Flags) { f.flags <- flags }
