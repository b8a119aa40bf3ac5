/*
   psx - command-line entry point for the PSX core.

   Parses flags with getopt, installs a slog handler over an optional
   log file, loads the BIOS and (optionally) a PSX-EXE side-load image,
   and reports failures with a logged message plus a non-zero exit code
   rather than a panic. The core is synchronous (spec.md §5): main
   drives System.StepFrame in a plain loop and has no interactive
   command surface.

   Copyright (c) 2026
*/

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rcornwell/psx/internal/device"
	"github.com/rcornwell/psx/internal/system"
	"github.com/rcornwell/psx/util/hexfmt"
	"github.com/rcornwell/psx/util/logger"
)

// Exit codes (SPEC_FULL.md §6).
const (
	exitOK            = 0
	exitBadBIOS       = 1
	exitBadEXE        = 2
	exitInternalFatal = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	optFrames := getopt.IntLong("frames", 'f', 0, "Run N frames then exit (0 = run forever)")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Enable per-instruction CPU trace")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		return exitOK
	}

	args := getopt.Args()
	if len(args) < 1 {
		getopt.Usage()
		return exitBadBIOS
	}
	biosPath := args[0]
	var exePath string
	if len(args) >= 2 {
		exePath = args[1]
	}

	var logFile *os.File
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			slog.Error("cannot create log file", "path", *optLogFile, "error", err)
			return exitInternalFatal
		}
		logFile = f
		defer logFile.Close()
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	if *optDebug {
		programLevel.Set(slog.LevelDebug)
	}
	var w io.Writer
	if logFile != nil {
		w = logFile
	}
	slog.SetDefault(slog.New(logger.NewHandler(w, &slog.HandlerOptions{Level: programLevel}, optDebug)))

	return boot(biosPath, exePath, *optFrames, *optDebug)
}

// boot recovers exactly one device.Fatal panic (a programming-error
// class abort raised deep inside the bus/DMA/GPU/CPU call chain) and
// turns it into a logged error plus exit code 3 (spec.md §7,
// SPEC_FULL.md §7).
func boot(biosPath, exePath string, frames int, debug bool) (code int) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(device.Fatal); ok {
				slog.Error(f.Error())
			} else {
				slog.Error(fmt.Sprint(r))
			}
			code = exitInternalFatal
		}
	}()

	bios, err := os.ReadFile(biosPath)
	if err != nil {
		slog.Error("cannot read BIOS image", "path", biosPath, "error", err)
		return exitBadBIOS
	}

	s := system.New()
	if err := s.LoadBIOS(bios); err != nil {
		slog.Error(err.Error(), "path", biosPath)
		return exitBadBIOS
	}

	if debug {
		s.CPU.Trace = func(pc, word uint32) {
			slog.Debug("step", "pc", hexfmt.Addr(pc), "word", hexfmt.Addr(word))
		}
	}

	if exePath != "" {
		exe, err := os.ReadFile(exePath)
		if err != nil {
			slog.Error("cannot read PSX-EXE image", "path", exePath, "error", err)
			return exitBadEXE
		}
		if err := s.LoadEXE(exe); err != nil {
			slog.Error(err.Error(), "path", exePath)
			return exitBadEXE
		}
	}

	slog.Info("psx started", "bios", biosPath, "exe", exePath)

	if frames > 0 {
		for i := 0; i < frames; i++ {
			s.StepFrame()
		}
	} else {
		for {
			s.StepFrame()
		}
	}

	slog.Info("psx shutting down")
	return exitOK
}
