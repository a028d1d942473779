package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"drum-trigger/generate"
	"drum-trigger/midi"
	"drum-trigger/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "dump":
		if len(os.Args) < 3 {
			usage()
			return
		}
		err = dump(os.Args[2])
	case "send":
		err = send(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                  - List all MIDI ports")
	fmt.Println("  dump <file.mid>       - Print the events of a generated file and check its .timing.txt")
	fmt.Println("  send [port] [note]    - Send one trigger (default note 36)")
}

func listPorts() error {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Printf("(waiting up to %s...)\n", midi.ScanTimeout)

	ports, err := midi.Scan(context.Background())
	if errors.Is(err, midi.ErrScanTimeout) {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return nil
	}
	if err != nil {
		return err
	}

	for i, name := range ports.InNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range ports.OutNames() {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func dump(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	d, err := midi.Decode(f)
	if err != nil {
		return err
	}

	fmt.Printf("Track:  %q\n", d.TrackName)
	fmt.Printf("Tempo:  %.2f bpm\n", d.BPM)
	fmt.Printf("Ticks:  %d per beat\n", d.TicksPerBeat)
	fmt.Printf("Events: %d\n\n", len(d.Events))
	for _, e := range d.Events {
		fmt.Printf("  %6d  +%-5d %s\n", e.Tick, e.Delta, e)
	}
	fmt.Printf("\nEnd of track: tick %d (closed: %v)\n", d.EndTick, d.Closed)

	timingPath := generate.TimingPath(path)
	tf, err := os.Open(timingPath)
	if err != nil {
		fmt.Printf("No timing file at %s\n", timingPath)
		return nil
	}
	defer tf.Close()

	records, err := sequencer.ParseTiming(tf)
	if err != nil {
		return fmt.Errorf("%s: %w", timingPath, err)
	}
	return checkTiming(d, records)
}

// checkTiming compares each note-on against the start its timing line claims
func checkTiming(d *midi.Dump, records []sequencer.TimingRecord) error {
	fmt.Printf("\n=== Timing check (%d records) ===\n", len(records))
	if d.BPM <= 0 || d.TicksPerBeat <= 0 {
		return fmt.Errorf("file has no usable tempo")
	}
	ticksPerSecond := d.BPM / 60 * float64(d.TicksPerBeat)

	n := 0
	bad := 0
	for _, e := range d.Events {
		if e.IsNoteOff() {
			continue
		}
		if n >= len(records) {
			fmt.Printf("  extra note-on at tick %d\n", e.Tick)
			bad++
			continue
		}
		r := records[n]
		want := r.Start * ticksPerSecond
		off := float64(e.Tick) - want
		status := "ok"
		if math.Abs(off) > 1 || uint8(r.Note) != e.Note {
			status = "MISMATCH"
			bad++
		}
		fmt.Printf("  %3d  %-24s note %3d  tick %6d  expected %9.1f  %s\n", r.Index, r.Name, e.Note, e.Tick, want, status)
		n++
	}
	if n < len(records) {
		fmt.Printf("  %d records without a note-on\n", len(records)-n)
		bad += len(records) - n
	}
	if bad > 0 {
		return fmt.Errorf("%d timing mismatches", bad)
	}
	fmt.Println("All notes within one tick of the timing file.")
	return nil
}

func send(args []string) error {
	port := ""
	note := 36
	if len(args) > 0 {
		port = args[0]
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 || n > 127 {
			return fmt.Errorf("bad note %q", args[1])
		}
		note = n
	}

	out, closePort, err := midi.OpenOut(context.Background(), port)
	if err != nil {
		return err
	}
	defer closePort()

	fmt.Printf("Sending note %d on channel 10...\n", note)
	if err := out(gomidi.NoteOn(9, uint8(note), 127)); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	if err := out(gomidi.NoteOff(9, uint8(note))); err != nil {
		return err
	}
	fmt.Println("Sent.")
	return nil
}
