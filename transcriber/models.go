package transcriber

import (
	"fmt"
	"sort"
)

// DefaultModel is the catalog entry used when none is configured.
const DefaultModel = "turbo"

// catalog maps the short model names users pass on the command line to
// the identifiers each backend understands.
var catalog = map[string]struct {
	server string // model field for OpenAI-compatible servers
	ggml   string // ggml weight file for the local CLI
}{
	"turbo":  {"whisper-large-v3-turbo", "ggml-large-v3-turbo.bin"},
	"base":   {"whisper-base", "ggml-base.bin"},
	"small":  {"whisper-small", "ggml-small.bin"},
	"medium": {"whisper-medium", "ggml-medium.bin"},
	"large":  {"whisper-large-v3", "ggml-large-v3.bin"},
}

// Models lists the catalog's short names, sorted.
func Models() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KnownModel reports whether name is in the catalog.
func KnownModel(name string) bool {
	_, ok := catalog[name]
	return ok
}

func serverModel(name string) (string, error) {
	m, ok := catalog[name]
	if !ok {
		return "", fmt.Errorf("unknown model %q (use one of %v)", name, Models())
	}
	return m.server, nil
}

func ggmlFile(name string) (string, error) {
	m, ok := catalog[name]
	if !ok {
		return "", fmt.Errorf("unknown model %q (use one of %v)", name, Models())
	}
	return m.ggml, nil
}
