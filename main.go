package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"murmur/audio"
	"murmur/doctor"
	"murmur/encoder"
	"murmur/hotkey"
	"murmur/insert"
	"murmur/log"
	"murmur/pipeline"
	"murmur/shutdown"
	"murmur/transcriber"
)

var version = "dev"

var shutdownOnce sync.Once

// consoleSink prints dictation progress to the terminal and mirrors it
// into the diagnostic and transcription logs.
type consoleSink struct{}

func (consoleSink) RecordingStart() {
	fmt.Println("Recording... (release to transcribe)")
	log.Info("recording_start")
}

func (consoleSink) RecordingStop(d time.Duration) {
	fmt.Printf("Captured %.1fs, transcribing...\n", d.Seconds())
}

func (consoleSink) Transcription(text string, res *transcriber.Result) {
	fmt.Printf("> %s\n", text)
	log.Transcription(res.EngineTime.Seconds()*1000, res.AudioDuration.Seconds(), res.RTF, res.Language)
	log.TranscriptionText(text)
}

func (consoleSink) NoSpeech() {
	fmt.Println("(no speech detected)")
	log.Info("no_speech")
}

func (consoleSink) Error(stage string, err error) {
	fmt.Printf("Error (%s): %v\n", stage, err)
	log.Errorf("%s error: %v", stage, err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".murmur", "models")
}

// makeFactory binds the engine choice and its settings into the
// loader the adapter calls, at startup and on every swap.
func makeFactory(engine, serverURL, apiKey, format, modelDir string) (transcriber.EngineFactory, error) {
	switch engine {
	case "server":
		cfg := transcriber.ServerConfig{URL: serverURL, APIKey: apiKey, Format: format}
		return func(model string) (transcriber.Engine, error) {
			return transcriber.NewServer(cfg, model)
		}, nil
	case "cli":
		return func(model string) (transcriber.Engine, error) {
			return transcriber.NewCLI(modelDir, model)
		}, nil
	}
	return nil, fmt.Errorf("unknown engine %q (use server or cli)", engine)
}

func main() {
	modelFlag := flag.String("model", transcriber.DefaultModel, "Speech model: turbo, base, small, medium, large")
	langFlag := flag.String("lang", "en", "Language code for transcription (e.g., en, es, fr). Empty = auto-detect")
	engineFlag := flag.String("engine", "server", "Speech engine: server (HTTP endpoint) or cli (local whisper binary)")
	serverURLFlag := flag.String("server-url", envOr("MURMUR_SERVER_URL", "http://127.0.0.1:8080/v1/audio/transcriptions"), "Transcription server URL (server engine)")
	apiKeyFlag := flag.String("api-key", os.Getenv("MURMUR_API_KEY"), "Bearer token for the transcription server")
	formatFlag := flag.String("format", "flac", "Upload audio format: flac or wav (server engine)")
	modelDirFlag := flag.String("model-dir", defaultModelDir(), "Directory holding ggml model files (cli engine)")
	comboFlag := flag.String("combo", "ctrl+alt", "Modifier combo that starts recording while held")
	forbidFlag := flag.String("forbid", "meta", "Modifiers that must NOT be held for the combo to fire")
	thresholdFlag := flag.Int("paste-threshold", insert.DefaultThreshold, "Text longer than this is pasted instead of typed")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	if !transcriber.KnownModel(*modelFlag) {
		fmt.Printf("Error: unknown model %q (use one of %v)\n", *modelFlag, transcriber.Models())
		os.Exit(1)
	}

	combo, err := hotkey.ParseCombo(*comboFlag, *forbidFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	factory, err := makeFactory(*engineFlag, *serverURLFlag, *apiKeyFlag, *formatFlag, *modelDirFlag)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(doctor.Config{
			Combo:      combo,
			ComboLabel: *comboFlag,
			Factory:    factory,
			Model:      *modelFlag,
			Language:   *langFlag,
			Threshold:  *thresholdFlag,
		}))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	log.SessionStart(*engineFlag, *modelFlag, *comboFlag)

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		selectedDevice, err = audio.FindDevice(ctx, *deviceFlag)
		if err != nil {
			log.Warnf("device lookup failed: %v", err)
			fmt.Printf("Warning: %v, falling back to default device\n", err)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	recorder := audio.NewRecorder(ctx, selectedDevice, audio.CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})

	adapter := transcriber.NewAdapter(*modelFlag, factory, *langFlag)
	defer adapter.Close()
	go func() {
		if err := adapter.EnsureReady(context.Background()); err != nil {
			log.Errorf("model load error: %v", err)
			fmt.Printf("Error loading model: %v\n", err)
			fmt.Println("Recordings will fail until a working model is swapped in.")
			return
		}
		fmt.Printf("Model %s ready.\n", *modelFlag)
	}()

	injector, err := insert.New(*thresholdFlag)
	if err != nil {
		log.Errorf("insert init error: %v", err)
		fmt.Printf("Error initializing text insertion: %v\n", err)
		fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		os.Exit(1)
	}

	pipe := pipeline.New(recorder, adapter, injector, consoleSink{})

	det := hotkey.New(combo)
	if err := det.Start(); err != nil {
		log.Errorf("key monitor error: %v", err)
		fmt.Printf("Error starting key monitor: %v\n", err)
		if errors.Is(err, hotkey.ErrPermissionDenied) {
			fmt.Println("Fix with: sudo usermod -aG input $USER (then log out and back in)")
		}
		os.Exit(1)
	}
	defer det.Stop()

	quit := make(chan struct{})
	go runControl(pipe, quit)

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)

	fmt.Printf("murmur %s — hold %s to dictate, ctrl-c to quit\n", version, *comboFlag)

	for {
		select {
		case <-det.Pressed():
			pipe.HandlePress()
		case <-det.Released():
			pipe.HandleRelease()
		case <-sigChan:
			gracefulShutdown(pipe)
			return
		case <-quit:
			gracefulShutdown(pipe)
			return
		}
	}
}

func gracefulShutdown(pipe *pipeline.Pipeline) {
	shutdownOnce.Do(func() {
		pipe.SetEnabled(false)
		pipe.Wait()
		stats := pipe.Stats()
		if stats.Transcriptions > 0 {
			fmt.Printf("Session: %d transcriptions, %.1fs recorded (avg %.1fs)\n",
				stats.Transcriptions, stats.Recorded.Seconds(),
				stats.Recorded.Seconds()/float64(stats.Transcriptions))
		}
		log.SessionEnd(stats.Transcriptions, stats.Recorded.Seconds())
		log.Close()
	})
}
