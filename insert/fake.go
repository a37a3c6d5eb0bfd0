package insert

import "sync"

// FakeClipboard is an in-memory clipboard recording every write.
type FakeClipboard struct {
	mu      sync.Mutex
	content string
	writes  []string
	readErr error
}

func NewFakeClipboard(content string) *FakeClipboard {
	return &FakeClipboard{content: content}
}

func (c *FakeClipboard) FailReads(err error) { c.readErr = err }

func (c *FakeClipboard) Read() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return "", c.readErr
	}
	return c.content, nil
}

func (c *FakeClipboard) Write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = text
	c.writes = append(c.writes, text)
	return nil
}

func (c *FakeClipboard) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

func (c *FakeClipboard) Writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}

// FakeKeys records typed text and paste keystrokes. At paste time it
// reads the attached clipboard, like a real target application would.
type FakeKeys struct {
	mu       sync.Mutex
	clip     Clipboard
	typed    []string
	pasted   []string
	typeErr  error
	pasteErr error
}

func NewFakeKeys(clip Clipboard) *FakeKeys {
	return &FakeKeys{clip: clip}
}

func (k *FakeKeys) FailType(err error)  { k.typeErr = err }
func (k *FakeKeys) FailPaste(err error) { k.pasteErr = err }

func (k *FakeKeys) Type(text string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.typeErr != nil {
		return k.typeErr
	}
	k.typed = append(k.typed, text)
	return nil
}

func (k *FakeKeys) Paste() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.pasteErr != nil {
		return k.pasteErr
	}
	content := ""
	if k.clip != nil {
		content, _ = k.clip.Read()
	}
	k.pasted = append(k.pasted, content)
	return nil
}

func (k *FakeKeys) Typed() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.typed...)
}

func (k *FakeKeys) Pasted() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.pasted...)
}
