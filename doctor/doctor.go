// Package doctor runs interactive checks for the three capabilities
// dictation needs: key monitoring, audio capture, and text insertion.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cb "github.com/atotto/clipboard"

	"murmur/audio"
	"murmur/encoder"
	"murmur/hotkey"
	"murmur/insert"
	"murmur/transcriber"
)

// Config carries the same settings the main loop runs with, so the
// checks exercise the real configuration.
type Config struct {
	Combo      hotkey.Combo
	ComboLabel string
	Factory    transcriber.EngineFactory
	Model      string
	Language   string
	Threshold  int
	Device     *audio.DeviceInfo
}

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(cfg Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("murmur doctor - interactive system diagnostics")
	fmt.Println("==============================================")

	allPass := true

	det, ok := checkCombo(cfg)
	if !ok {
		allPass = false
	}
	if det != nil {
		defer det.Stop()
	}
	if allPass && !checkMicAndTranscription(cfg, det) {
		allPass = false
	}
	if allPass && !checkInsertion(cfg) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkCombo(cfg Config) (*hotkey.Detector, bool) {
	fmt.Println()
	fmt.Println("[1/3] Key combo detection")
	if !hotkey.PermissionGranted() {
		fmt.Println("  Warning: keyboard devices not readable, monitoring will likely fail")
	}
	fmt.Printf("Hold %s...\n", cfg.ComboLabel)

	det := hotkey.New(cfg.Combo)
	if err := det.Start(); err != nil {
		fmt.Printf("  FAIL: could not start key monitoring: %v\n", err)
		return nil, false
	}

	select {
	case <-det.Pressed():
		fmt.Println("  PASS: combo press detected, now release it...")
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for combo press")
		return det, false
	}

	select {
	case <-det.Released():
		fmt.Println("  PASS: combo release detected")
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for combo release")
		return det, false
	}

	resetTerminal()
	return det, true
}

func checkMicAndTranscription(cfg Config, det *hotkey.Detector) bool {
	fmt.Println()
	fmt.Println("[2/3] Microphone and transcription")

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	device := cfg.Device
	if device == nil {
		devices, err := actx.Devices()
		if err != nil {
			fmt.Printf("  FAIL: cannot list devices: %v\n", err)
			return false
		}
		if len(devices) == 0 {
			fmt.Println("  FAIL: no capture devices found")
			return false
		}
		device = &devices[0]
	}
	fmt.Printf("Using device: %s\n", device.Name)

	fmt.Print("Loading model... ")
	adapter := transcriber.NewAdapter(cfg.Model, cfg.Factory, cfg.Language)
	defer adapter.Close()

	loadCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := adapter.EnsureReady(loadCtx); err != nil {
		fmt.Printf("\n  FAIL: model load: %v\n", err)
		return false
	}
	fmt.Println("ready")

	rec := audio.NewRecorder(actx, device, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})

	fmt.Printf("Hold %s and speak, release when done...\n", cfg.ComboLabel)
	select {
	case <-det.Pressed():
	case <-time.After(15 * time.Second):
		fmt.Println("  FAIL: timeout waiting for combo")
		return false
	}
	if err := rec.StartRecording(); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}

	fmt.Print("  Recording")
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	select {
	case <-det.Released():
	case <-time.After(30 * time.Second):
	}
	close(done)
	samples := rec.StopRecording()
	fmt.Println(" done")

	if len(samples) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}
	fmt.Printf("  Captured %.1fs of audio, transcribing...\n",
		float64(len(samples))/encoder.SampleRate)

	res, err := adapter.Transcribe(context.Background(), samples)
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Printf("\n  Transcribed text: %s\n", text)
	fmt.Printf("  Engine %.0fms for %.1fs audio (RTF %.2f)\n\n",
		res.EngineTime.Seconds()*1000, res.AudioDuration.Seconds(), res.RTF)

	resetTerminal()
	return confirm("Is this correct?")
}

func checkInsertion(cfg Config) bool {
	fmt.Println()
	fmt.Println("[3/3] Text insertion")

	inj, err := insert.New(cfg.Threshold)
	if err != nil {
		fmt.Printf("  FAIL: insertion init: %v\n", err)
		return false
	}

	sentinel := "murmur-preserve-check"
	if err := cb.WriteAll(sentinel); err != nil {
		fmt.Printf("  FAIL: clipboard write: %v\n", err)
		return false
	}

	fmt.Println("Focus on a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(1 * time.Second)
	}

	if err := inj.Insert("murmur-doctor-test", insert.Paste); err != nil {
		fmt.Printf("  FAIL: paste insert: %v\n", err)
		return false
	}

	resetTerminal()
	if !confirm("Did the text \"murmur-doctor-test\" appear?") {
		fmt.Println("  FAIL: paste insertion not confirmed")
		return false
	}
	fmt.Println("  PASS: paste insertion verified by user")

	restored, err := cb.ReadAll()
	if err != nil {
		fmt.Printf("  FAIL: clipboard read after insert: %v\n", err)
		return false
	}
	if restored != sentinel {
		fmt.Printf("  FAIL: clipboard not preserved (got %q, want %q)\n", restored, sentinel)
		return false
	}
	fmt.Println("  PASS: clipboard preservation verified")
	return true
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [y/n]: ", prompt)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}
