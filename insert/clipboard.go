package insert

import cb "github.com/atotto/clipboard"

type systemClipboard struct{}

func (systemClipboard) Read() (string, error) {
	return cb.ReadAll()
}

func (systemClipboard) Write(text string) error {
	return cb.WriteAll(text)
}
