//go:build !linux

package hotkey

import (
	"runtime"
	"sync"

	hook "github.com/robotn/gohook"
)

// hookSource observes modifier keys through a global event hook. The
// hook sees events regardless of which application holds focus, which
// also covers our own process.
type hookSource struct {
	flags chan Flags
	stop  chan struct{}
	once  sync.Once
	held  map[uint16]bool
}

func newSource() Source {
	return &hookSource{
		flags: make(chan Flags, 16),
		stop:  make(chan struct{}),
		held:  make(map[uint16]bool),
	}
}

// PermissionGranted reports whether global input monitoring is usable.
// There is no cheap probe here; hook creation in Start is the
// authoritative check and fails when the grant is missing.
func PermissionGranted() bool {
	return true
}

func (s *hookSource) Start() error {
	events := hook.Start()
	if events == nil {
		return ErrTapCreation
	}
	go s.loop(events)
	return nil
}

func (s *hookSource) loop(events <-chan hook.Event) {
	var cur Flags
	for {
		select {
		case <-s.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			bit := rawcodeBit(ev.Rawcode)
			if bit == 0 {
				continue
			}
			next := cur
			switch ev.Kind {
			case hook.KeyDown, hook.KeyHold:
				s.held[ev.Rawcode] = true
			case hook.KeyUp:
				s.held[ev.Rawcode] = false
			default:
				continue
			}
			next = 0
			for code, h := range s.held {
				if h {
					next |= rawcodeBit(code)
				}
			}
			if next == cur {
				continue
			}
			cur = next
			select {
			case s.flags <- cur:
			default:
			}
		}
	}
}

// rawcodeBit maps platform raw keycodes of modifier keys to Flags.
func rawcodeBit(code uint16) Flags {
	if runtime.GOOS == "darwin" {
		switch code {
		case 59, 62: // control
			return FlagCtrl
		case 56, 60: // shift
			return FlagShift
		case 58, 61: // option
			return FlagAlt
		case 54, 55: // command
			return FlagMeta
		}
		return 0
	}
	switch code {
	case 162, 163, 17: // VK_LCONTROL, VK_RCONTROL, VK_CONTROL
		return FlagCtrl
	case 160, 161, 16:
		return FlagShift
	case 164, 165, 18:
		return FlagAlt
	case 91, 92:
		return FlagMeta
	}
	return 0
}

func (s *hookSource) Stop() {
	s.once.Do(func() {
		close(s.stop)
		hook.End()
	})
}

func (s *hookSource) Flags() <-chan Flags {
	return s.flags
}
