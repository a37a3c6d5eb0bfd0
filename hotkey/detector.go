package hotkey

import (
	"fmt"
	"sync"
)

// Detector watches a Source for modifier changes and emits one press
// signal on the combo's false→true edge and one release signal on the
// true→false edge. Held state produces nothing.
type Detector struct {
	combo  Combo
	source Source

	press   chan struct{}
	release chan struct{}
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	pressed bool
	started bool
}

// New builds a detector on the platform's default input source.
func New(combo Combo) *Detector {
	return NewDetector(combo, newSource())
}

// NewDetector builds a detector on an explicit source.
func NewDetector(combo Combo, source Source) *Detector {
	return &Detector{
		combo:   combo,
		source:  source,
		press:   make(chan struct{}, 1),
		release: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start subscribes to modifier-change events. It fails with
// ErrPermissionDenied when input monitoring has not been granted and
// ErrTapCreation when the observation handle cannot be created. A
// second call on a running detector is a no-op.
func (d *Detector) Start() error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	if err := d.source.Start(); err != nil {
		return fmt.Errorf("starting input source: %w", err)
	}
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()
	go d.dispatch()
	return nil
}

func (d *Detector) dispatch() {
	defer close(d.done)
	for {
		select {
		case <-d.stop:
			return
		case flags, ok := <-d.source.Flags():
			if !ok {
				return
			}
			d.observe(flags)
		}
	}
}

func (d *Detector) observe(flags Flags) {
	now := d.combo.Active(flags)

	d.mu.Lock()
	was := d.pressed
	d.pressed = now
	d.mu.Unlock()

	switch {
	case now && !was:
		select {
		case d.press <- struct{}{}:
		default:
		}
	case !now && was:
		select {
		case d.release <- struct{}{}:
		default:
		}
	}
}

// Pressed signals once per false→true combo edge.
func (d *Detector) Pressed() <-chan struct{} { return d.press }

// Released signals once per true→false combo edge.
func (d *Detector) Released() <-chan struct{} { return d.release }

// IsPressed reports the current combo state.
func (d *Detector) IsPressed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pressed
}

// Stop tears down the source and resets state to unpressed.
func (d *Detector) Stop() {
	d.once.Do(func() {
		close(d.stop)
		d.source.Stop()
		d.mu.Lock()
		started := d.started
		d.mu.Unlock()
		if started {
			<-d.done
		}
		d.mu.Lock()
		d.pressed = false
		d.mu.Unlock()
	})
}
