//go:build !linux

package insert

import (
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"
)

// bondingKeys drives the OS keyboard event API. keybd_event needs a
// short pause after binding on macOS before events are accepted.
type bondingKeys struct {
	kb keybd_event.KeyBonding
}

func newKeys() (Keys, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, err
	}
	if runtime.GOOS == "darwin" {
		time.Sleep(2 * time.Second)
	}
	return &bondingKeys{kb: kb}, nil
}

func (k *bondingKeys) Paste() error {
	k.kb.Clear()
	k.kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		k.kb.HasSuper(true) // Cmd+V
	} else {
		k.kb.HasCTRL(true)
	}
	err := k.kb.Launching()
	k.kb.Clear()
	return err
}

// Type sends one keystroke per character. Characters outside the basic
// map are skipped.
func (k *bondingKeys) Type(text string) error {
	for i := 0; i < len(text); i++ {
		code, shift, ok := charVK(text[i])
		if !ok {
			continue
		}
		k.kb.Clear()
		k.kb.SetKeys(code)
		if shift {
			k.kb.HasSHIFT(true)
		}
		if err := k.kb.Launching(); err != nil {
			k.kb.Clear()
			return err
		}
		k.kb.Clear()
		time.Sleep(time.Millisecond)
	}
	return nil
}

var letterVK = [26]int{
	keybd_event.VK_A, keybd_event.VK_B, keybd_event.VK_C, keybd_event.VK_D,
	keybd_event.VK_E, keybd_event.VK_F, keybd_event.VK_G, keybd_event.VK_H,
	keybd_event.VK_I, keybd_event.VK_J, keybd_event.VK_K, keybd_event.VK_L,
	keybd_event.VK_M, keybd_event.VK_N, keybd_event.VK_O, keybd_event.VK_P,
	keybd_event.VK_Q, keybd_event.VK_R, keybd_event.VK_S, keybd_event.VK_T,
	keybd_event.VK_U, keybd_event.VK_V, keybd_event.VK_W, keybd_event.VK_X,
	keybd_event.VK_Y, keybd_event.VK_Z,
}

var digitVK = [10]int{
	keybd_event.VK_0, keybd_event.VK_1, keybd_event.VK_2, keybd_event.VK_3,
	keybd_event.VK_4, keybd_event.VK_5, keybd_event.VK_6, keybd_event.VK_7,
	keybd_event.VK_8, keybd_event.VK_9,
}

func charVK(c byte) (code int, shift bool, ok bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return letterVK[c-'a'], false, true
	case c >= 'A' && c <= 'Z':
		return letterVK[c-'A'], true, true
	case c >= '0' && c <= '9':
		return digitVK[c-'0'], false, true
	case c == ' ':
		return keybd_event.VK_SPACE, false, true
	case c == '\n':
		return keybd_event.VK_ENTER, false, true
	case c == '\t':
		return keybd_event.VK_TAB, false, true
	}
	return punctVK(c)
}

// punctVK uses the VK_SP aliases, which keybd_event keeps identical
// across platforms.
func punctVK(c byte) (int, bool, bool) {
	type km struct {
		code  int
		shift bool
	}
	m := map[byte]km{
		'`': {keybd_event.VK_SP1, false}, '~': {keybd_event.VK_SP1, true},
		'-': {keybd_event.VK_SP2, false}, '_': {keybd_event.VK_SP2, true},
		'=': {keybd_event.VK_SP3, false}, '+': {keybd_event.VK_SP3, true},
		'[': {keybd_event.VK_SP4, false}, '{': {keybd_event.VK_SP4, true},
		']': {keybd_event.VK_SP5, false}, '}': {keybd_event.VK_SP5, true},
		';': {keybd_event.VK_SP6, false}, ':': {keybd_event.VK_SP6, true},
		'\'': {keybd_event.VK_SP7, false}, '"': {keybd_event.VK_SP7, true},
		',': {keybd_event.VK_SP8, false}, '<': {keybd_event.VK_SP8, true},
		'.': {keybd_event.VK_SP9, false}, '>': {keybd_event.VK_SP9, true},
		'/': {keybd_event.VK_SP10, false}, '?': {keybd_event.VK_SP10, true},
		'\\': {keybd_event.VK_SP11, false}, '|': {keybd_event.VK_SP11, true},
		'!': {keybd_event.VK_1, true}, '@': {keybd_event.VK_2, true},
		'#': {keybd_event.VK_3, true}, '$': {keybd_event.VK_4, true},
		'%': {keybd_event.VK_5, true}, '^': {keybd_event.VK_6, true},
		'&': {keybd_event.VK_7, true}, '*': {keybd_event.VK_8, true},
		'(': {keybd_event.VK_9, true}, ')': {keybd_event.VK_0, true},
	}
	if k, ok := m[c]; ok {
		return k.code, k.shift, true
	}
	return 0, false, false
}
