package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grupodiana/brt/geom"
	"github.com/grupodiana/brt/ports"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML session config file (default: built-in demo session)")
	sampleRate := pflag.IntP("sample-rate", "r", 0, "override sample rate (Hz)")
	blockSize := pflag.IntP("block-size", "b", 0, "override block size (samples)")
	ambisonic := pflag.Bool("ambisonic", false, "use the Ambisonic listener model instead of per-source HRTF")
	room := pflag.Bool("room", false, "enable the SDN room model")
	durationSec := pflag.Float64P("duration", "d", 10, "session duration in seconds")
	noITD := pflag.Bool("no-itd", false, "dispatch /listener/enableITD=false at startup")
	noNearField := pflag.Bool("no-near-field", false, "dispatch /listener/enableNearFieldEffect=false at startup")
	pflag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "brtdemo: config:", err)
		os.Exit(1)
	}
	if *sampleRate > 0 {
		cfg.SampleRate = *sampleRate
	}
	if *blockSize > 0 {
		cfg.BlockSize = *blockSize
	}
	if *ambisonic {
		cfg.UseAmbisonic = true
	}
	if *room {
		cfg.Room.Enabled = true
	}

	sink := NewLogSink(os.Stderr)

	engine, err := NewEngine(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "brtdemo: engine setup:", err)
		os.Exit(1)
	}

	if *noITD {
		if err := engine.Dispatcher().Dispatch(ports.EnableCommand(ports.AddressEnableITD, "main", false)); err != nil {
			fmt.Fprintln(os.Stderr, "brtdemo: dispatch --no-itd:", err)
			os.Exit(1)
		}
	}
	if *noNearField {
		if err := engine.Dispatcher().Dispatch(ports.EnableCommand(ports.AddressEnableNearFieldEffect, "main", false)); err != nil {
			fmt.Fprintln(os.Stderr, "brtdemo: dispatch --no-near-field:", err)
			os.Exit(1)
		}
	}

	player, err := newStereoPlayer(cfg.SampleRate)
	if err != nil {
		fmt.Fprintln(os.Stderr, "brtdemo: audio device:", err)
		os.Exit(1)
	}
	defer player.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	listenerTransform := geom.Transform{}
	blockDuration := time.Duration(float64(cfg.BlockSize) / float64(cfg.SampleRate) * float64(time.Second))
	deadline := time.Now().Add(time.Duration(*durationSec * float64(time.Second)))

	ticker := time.NewTicker(blockDuration)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if time.Now().After(deadline) {
				return
			}
			left, right := engine.RenderBlock(listenerTransform)
			player.pushFrames(left, right)
			engine.Diagnostics().Drain(sink)
		}
	}
}
