package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// Flags is a bitmask of currently held modifier keys.
type Flags uint8

const (
	FlagCtrl Flags = 1 << iota
	FlagShift
	FlagAlt
	FlagMeta
)

var flagNames = map[string]Flags{
	"ctrl":    FlagCtrl,
	"control": FlagCtrl,
	"shift":   FlagShift,
	"alt":     FlagAlt,
	"option":  FlagAlt,
	"meta":    FlagMeta,
	"cmd":     FlagMeta,
	"super":   FlagMeta,
	"win":     FlagMeta,
}

func (f Flags) String() string {
	var parts []string
	for _, m := range []struct {
		bit  Flags
		name string
	}{
		{FlagCtrl, "ctrl"}, {FlagShift, "shift"}, {FlagAlt, "alt"}, {FlagMeta, "meta"},
	} {
		if f&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Combo is the trigger condition: every Required modifier held and no
// Forbidden modifier held.
type Combo struct {
	Required  Flags
	Forbidden Flags
}

// Active reports whether the given modifier state satisfies the combo.
func (c Combo) Active(f Flags) bool {
	return f&c.Required == c.Required && f&c.Forbidden == 0
}

func (c Combo) String() string {
	s := c.Required.String()
	if c.Forbidden != 0 {
		s += " !" + c.Forbidden.String()
	}
	return s
}

// ParseCombo builds a Combo from "+"-separated modifier names, e.g.
// ParseCombo("ctrl+alt", "meta"). The forbidden list may be empty.
func ParseCombo(required, forbidden string) (Combo, error) {
	req, err := parseFlags(required)
	if err != nil {
		return Combo{}, err
	}
	if req == 0 {
		return Combo{}, errors.New("combo needs at least one required modifier")
	}
	forb, err := parseFlags(forbidden)
	if err != nil {
		return Combo{}, err
	}
	if req&forb != 0 {
		return Combo{}, fmt.Errorf("modifier %s is both required and forbidden", (req & forb).String())
	}
	return Combo{Required: req, Forbidden: forb}, nil
}

func parseFlags(s string) (Flags, error) {
	var f Flags
	for _, name := range strings.Split(s, "+") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		bit, ok := flagNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown modifier %q", name)
		}
		f |= bit
	}
	return f, nil
}

var (
	// ErrPermissionDenied means the OS input-monitoring capability has
	// not been granted to this process.
	ErrPermissionDenied = errors.New("input monitoring permission not granted")
	// ErrTapCreation means the underlying event observation handle
	// could not be created.
	ErrTapCreation = errors.New("could not create input event tap")
)

// Source delivers modifier-state snapshots from the OS. Implementations
// push onto a buffered channel from the delivery thread so OS event
// dispatch is never gated on consumers.
type Source interface {
	Start() error
	Stop()
	Flags() <-chan Flags
}
