package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"drum-trigger/debug"
	"drum-trigger/generate"
	"drum-trigger/widgets"
)

func usage() {
	fmt.Fprintln(os.Stderr, "drum-trigger - MIDI files that trigger drum samples one at a time")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  drum-trigger [generate] [flags] [output.mid]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, widgets.RenderHelp([]widgets.HelpSection{{
		Title: "Commands:",
		Entries: []widgets.HelpEntry{
			{Name: "generate", Desc: "write the MIDI file and its .timing.txt (default)"},
			{Name: "list", Desc: "show the mapping with slots and durations"},
			{Name: "play", Desc: "send the sequence to a MIDI output in real time"},
			{Name: "render", Desc: "bounce the sequence through a SoundFont to WAV"},
			{Name: "batch", Desc: "generate one file per mapping, in parallel"},
			{Name: "config", Desc: "show or save the configuration"},
		},
	}}))
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Run 'drum-trigger <command> -h' for flags.")
}

var commands = map[string]func(ctx context.Context, args []string) error{
	"generate": runGenerate,
	"list":     runList,
	"play":     runPlay,
	"render":   runRender,
	"batch":    runBatch,
	"config":   runConfig,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	name := "generate"
	if len(args) > 0 {
		if _, ok := commands[args[0]]; ok {
			name, args = args[0], args[1:]
		} else if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
			usage()
			return
		}
	}

	err := commands[name](ctx, args)
	debug.Disable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if generate.IsUserError(err) || errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
