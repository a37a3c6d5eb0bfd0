// Package insert places transcribed text at the system cursor, either
// by typing synthetic key events or by pasting through the clipboard.
package insert

import (
	"fmt"
	"sync"
	"time"
)

// Strategy selects how text reaches the focused application.
type Strategy int

const (
	// Auto picks Paste for text longer than the threshold, Direct
	// otherwise. Typing is more compatible but scales linearly with
	// text length; pasting is a single keystroke.
	Auto Strategy = iota
	Direct
	Paste
)

func (s Strategy) String() string {
	switch s {
	case Direct:
		return "direct"
	case Paste:
		return "paste"
	}
	return "auto"
}

// DefaultThreshold is the Auto cutover in bytes.
const DefaultThreshold = 10

const (
	// settleDelay gives the clipboard time to hold the new content
	// before the paste keystroke fires.
	settleDelay = 50 * time.Millisecond
	// pasteDelay lets the target application read the clipboard
	// before the previous content is restored.
	pasteDelay = 100 * time.Millisecond
)

// Clipboard abstracts the system clipboard for snapshot and restore.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Keys sends synthetic keyboard input to the focused application.
type Keys interface {
	Type(text string) error
	Paste() error
}

type InjectError struct {
	Strategy Strategy
	Err      error
}

func (e *InjectError) Error() string {
	return fmt.Sprintf("%s injection failed: %v", e.Strategy, e.Err)
}

func (e *InjectError) Unwrap() error { return e.Err }

// Injector serializes all insertions behind one mutex so concurrent
// callers never interleave keystrokes or fight over the clipboard.
type Injector struct {
	mu        sync.Mutex
	clip      Clipboard
	keys      Keys
	threshold int
}

func New(threshold int) (*Injector, error) {
	keys, err := newKeys()
	if err != nil {
		return nil, err
	}
	return newInjector(systemClipboard{}, keys, threshold), nil
}

func newInjector(clip Clipboard, keys Keys, threshold int) *Injector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Injector{clip: clip, keys: keys, threshold: threshold}
}

// Insert places text at the cursor. Empty text is a no-op that touches
// neither the keyboard nor the clipboard.
func (i *Injector) Insert(text string, strategy Strategy) error {
	if text == "" {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if strategy == Auto {
		if len(text) > i.threshold {
			strategy = Paste
		} else {
			strategy = Direct
		}
	}

	switch strategy {
	case Paste:
		return i.paste(text)
	default:
		if err := i.keys.Type(text); err != nil {
			return &InjectError{Strategy: Direct, Err: err}
		}
		return nil
	}
}

// paste snapshots the clipboard, writes the text, sends the paste
// keystroke, and restores the snapshot. Restore runs even when the
// keystroke fails; a snapshot that could not be read is not restored.
func (i *Injector) paste(text string) error {
	prev, prevErr := i.clip.Read()
	if prevErr == nil {
		defer i.clip.Write(prev)
	}

	if err := i.clip.Write(text); err != nil {
		return &InjectError{Strategy: Paste, Err: err}
	}
	time.Sleep(settleDelay)

	if err := i.keys.Paste(); err != nil {
		return &InjectError{Strategy: Paste, Err: err}
	}
	time.Sleep(pasteDelay)
	return nil
}
