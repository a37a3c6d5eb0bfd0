package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"murmur/log"
	"murmur/pipeline"
	"murmur/transcriber"
)

// runControl reads commands from stdin so a running session can be
// adjusted without restarting: swap the model, pause dictation, or
// inspect stats.
func runControl(pipe *pipeline.Pipeline, quit chan<- struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "swap":
			arg = strings.TrimSpace(arg)
			if !transcriber.KnownModel(arg) {
				fmt.Printf("unknown model %q (use one of %v)\n", arg, transcriber.Models())
				continue
			}
			fmt.Printf("Loading %s...\n", arg)
			if err := pipe.SwapModel(arg); err != nil {
				fmt.Printf("swap failed: %v\n", err)
				log.Errorf("model swap error: %v", err)
				continue
			}
			fmt.Printf("Model %s ready.\n", arg)
			log.Info("model_swapped: " + arg)
		case "off":
			pipe.SetEnabled(false)
			fmt.Println("Dictation paused.")
		case "on":
			pipe.SetEnabled(true)
			fmt.Println("Dictation resumed.")
		case "stats":
			s := pipe.Stats()
			fmt.Printf("%d transcriptions, %.1fs recorded\n", s.Transcriptions, s.Recorded.Seconds())
		case "quit":
			close(quit)
			return
		default:
			fmt.Println("commands: swap <model>, on, off, stats, quit")
		}
	}
}
