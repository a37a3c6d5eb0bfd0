package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"murmur/encoder"
)

// cliBinaries are the names whisper.cpp installs under, in preference
// order. whisper-cli is the current upstream name.
var cliBinaries = []string{"whisper-cli", "whisper-cpp", "main"}

// CLI transcribes by shelling out to a whisper.cpp binary with a ggml
// weight file. Loading verifies both exist; inference writes a temp
// WAV and parses the JSON the binary emits.
type CLI struct {
	binPath   string
	modelPath string
}

func NewCLI(modelDir, model string) (*CLI, error) {
	file, err := ggmlFile(model)
	if err != nil {
		return nil, err
	}
	binPath, err := findCLIBinary()
	if err != nil {
		return nil, err
	}
	modelPath := filepath.Join(modelDir, file)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file %s: %w", modelPath, err)
	}
	return &CLI{binPath: binPath, modelPath: modelPath}, nil
}

func findCLIBinary() (string, error) {
	for _, name := range cliBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no whisper binary in PATH (tried %v)", cliBinaries)
}

// cliOutput is the shape whisper.cpp emits with -oj. Offsets are in
// milliseconds.
type cliOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Text    string `json:"text"`
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
	} `json:"transcription"`
}

func (c *CLI) Transcribe(ctx context.Context, r Request) (*Result, error) {
	wav, err := encoder.Encode("wav", encoder.Int16FromFloat32(r.Samples))
	if err != nil {
		return nil, fmt.Errorf("encoding audio: %w", err)
	}

	audioPath := filepath.Join(os.TempDir(), fmt.Sprintf("murmur_%d.wav", time.Now().UnixNano()))
	if err := os.WriteFile(audioPath, wav, 0o644); err != nil {
		return nil, fmt.Errorf("writing audio file: %w", err)
	}
	defer os.Remove(audioPath)

	// -oj writes <audio>.json next to the input file.
	jsonPath := audioPath + ".json"
	defer os.Remove(jsonPath)

	args := []string{
		"-m", c.modelPath,
		"-f", audioPath,
		"-oj",
		"--no-prints",
	}
	if r.Language != "" {
		args = append(args, "-l", r.Language)
	}
	if r.Task == "translate" {
		args = append(args, "--translate")
	}

	cmd := exec.CommandContext(ctx, c.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", filepath.Base(c.binPath), err, stderr.String())
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("reading transcription output: %w", err)
	}

	var out cliOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("output parse error: %w", err)
	}

	res := &Result{
		Language: out.Result.Language,
		Segments: make([]Segment, 0, len(out.Transcription)),
	}
	for _, seg := range out.Transcription {
		res.Text += seg.Text
		res.Segments = append(res.Segments, Segment{
			Start: float64(seg.Offsets.From) / 1000,
			End:   float64(seg.Offsets.To) / 1000,
			Text:  seg.Text,
		})
	}
	return res, nil
}

func (c *CLI) Close() error { return nil }
