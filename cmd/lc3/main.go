// Copyright 2026, CrazyMerlyn <crazymerlyn@users.noreply.github.com>

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/crazymerlyn/lc3/cpu"
	"github.com/crazymerlyn/lc3/emulator"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

func main() {
	var compile string
	var save bool
	var output string
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to compile")
	flag.BoolVar(&save, "s", false, "Save object file, do not execute")
	flag.StringVar(&output, "o", "a.obj", "Object file output path")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Console.Input = os.Stdin
	emu.Console.Output = os.Stdout

	// Compile a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if save {
			err = os.WriteFile(output, prog.Binary(), 0o644)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			return
		}

		emu.LoadProgram(prog)
	} else {
		if flag.NArg() == 0 {
			log.Fatalf("%v: no image files", os.Args[0])
		}
		for _, name := range flag.Args() {
			inf, err := os.Open(name)
			if err != nil {
				log.Fatalf("%v: %v", name, err)
			}
			_, err = emu.LoadImage(inf)
			inf.Close()
			if err != nil {
				log.Fatalf("%v: %v", name, err)
			}
		}
	}

	// GETC wants unbuffered, unechoed bytes from a terminal.
	restore := func() {}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		restore = enableRawMode()

		intr := make(chan os.Signal, 1)
		signal.Notify(intr, os.Interrupt)
		go func() {
			<-intr
			restore()
			os.Exit(130)
		}()
	}

	err := emu.Run()
	restore()
	if err != nil {
		log.Fatal(err)
	}
}

// enableRawMode configures the terminal for one-byte reads without
// echo and returns a function restoring the original configuration.
func enableRawMode() (restore func()) {
	var orig unix.Termios
	termios.Tcgetattr(os.Stdin.Fd(), &orig)

	raw := orig
	raw.Lflag &^= unix.ICANON | unix.ECHO
	termios.Tcsetattr(os.Stdin.Fd(), termios.TCSANOW, &raw)

	return func() {
		termios.Tcsetattr(os.Stdin.Fd(), termios.TCSANOW, &orig)
	}
}
