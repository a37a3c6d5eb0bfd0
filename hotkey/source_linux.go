//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0

	keyLCtrl  = 29
	keyRCtrl  = 97
	keyLShift = 42
	keyRShift = 54
	keyLAlt   = 56
	keyRAlt   = 100
	keyLMeta  = 125
	keyRMeta  = 126
)

const inputEventSize = 24

// evdevSource reads raw key events from every keyboard under
// /dev/input and folds left/right modifier pairs into Flags snapshots.
type evdevSource struct {
	flags chan Flags
	files []*os.File
	stop  chan struct{}
	once  sync.Once

	mu   sync.Mutex
	held map[uint16]bool
}

func newSource() Source {
	return &evdevSource{
		flags: make(chan Flags, 16),
		held:  make(map[uint16]bool),
	}
}

// PermissionGranted reports whether this process can read keyboard
// devices (requires membership in the 'input' group on most distros).
func PermissionGranted() bool {
	keyboards, err := findKeyboards()
	if err != nil {
		return false
	}
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			return true
		}
	}
	return false
}

func (s *evdevSource) Start() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("%w: scanning input devices: %v", ErrTapCreation, err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("%w: no keyboard devices found", ErrTapCreation)
	}

	s.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		s.files = append(s.files, f)
		go s.readEvents(f)
	}

	if len(s.files) == 0 {
		return fmt.Errorf("%w: run: sudo usermod -aG input $USER, then re-login", ErrPermissionDenied)
	}

	return nil
}

func modifierBit(code uint16) Flags {
	switch code {
	case keyLCtrl, keyRCtrl:
		return FlagCtrl
	case keyLShift, keyRShift:
		return FlagShift
	case keyLAlt, keyRAlt:
		return FlagAlt
	case keyLMeta, keyRMeta:
		return FlagMeta
	}
	return 0
}

func (s *evdevSource) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey || modifierBit(evCode) == 0 {
				continue
			}

			switch evValue {
			case keyPress:
				s.setHeld(evCode, true)
			case keyRelease:
				s.setHeld(evCode, false)
			}
		}
	}
}

func (s *evdevSource) setHeld(code uint16, held bool) {
	s.mu.Lock()
	if s.held[code] == held {
		s.mu.Unlock()
		return
	}
	s.held[code] = held
	var f Flags
	for c, h := range s.held {
		if h {
			f |= modifierBit(c)
		}
	}
	s.mu.Unlock()

	select {
	case s.flags <- f:
	default:
	}
}

func (s *evdevSource) Stop() {
	s.once.Do(func() {
		if s.stop != nil {
			close(s.stop)
		}
		for _, f := range s.files {
			f.Close()
		}
	})
}

func (s *evdevSource) Flags() <-chan Flags {
	return s.flags
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}
