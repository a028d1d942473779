// Package generate runs a whole generation: resolve the mapping, sequence
// it, and write the MIDI file with its timing side-channel.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"drum-trigger/debug"
	"drum-trigger/mapping"
	"drum-trigger/midi"
	"drum-trigger/sequencer"
)

// DefaultMappingFile is used when neither a mapping file nor a kit is given
const DefaultMappingFile = "drum_mapping.json"

// DefaultTrackName is the track name meta event
const DefaultTrackName = "Logic Drum Export"

// Options describe one generation
type Options struct {
	Output    string
	Mapping   string // mapping file; takes precedence over Kit
	Kit       string
	TrackName string
	Params    sequencer.Params
}

// Result is what a generation produced
type Result struct {
	Output     string
	TimingPath string
	Source     string // mapping file or "kit:<name>"

	Sequence   sequencer.DrumSequence
	Stream     *sequencer.Stream
	Records    []sequencer.TimingRecord
	SequenceID uuid.UUID

	MIDI   []byte
	Timing []byte
}

// Empty reports a run with no entries. The files are still valid.
func (r *Result) Empty() bool {
	return sequencer.IsEmpty(r.Sequence)
}

// TimingPath swaps the output's extension for .timing.txt
func TimingPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".timing.txt"
}

// Resolve picks the mapping source: an explicit file, a built-in kit, the
// default mapping file if present, and finally the default kit.
func Resolve(opts Options) (mapping.Raw, string, error) {
	if opts.Mapping != "" {
		raw, err := mapping.Load(opts.Mapping)
		return raw, opts.Mapping, err
	}
	if opts.Kit != "" {
		kit, ok := mapping.GetKit(opts.Kit)
		if !ok {
			return mapping.Raw{}, "", fmt.Errorf("unknown kit %q (have %s)", opts.Kit, strings.Join(mapping.KitNames(), ", "))
		}
		return mapping.FromKit(kit), "kit:" + opts.Kit, nil
	}
	if _, err := os.Stat(DefaultMappingFile); err == nil {
		raw, err := mapping.Load(DefaultMappingFile)
		return raw, DefaultMappingFile, err
	}
	kit, _ := mapping.GetKit(mapping.DefaultKit)
	return mapping.FromKit(kit), "kit:" + mapping.DefaultKit, nil
}

// Build sequences seq and renders both files in memory. Nothing touches
// disk, so a failure here never leaves partial output.
func Build(seq sequencer.DrumSequence, opts Options) (*Result, error) {
	stream, err := sequencer.Sequence(seq, opts.Params)
	if err != nil {
		return nil, err
	}
	records, err := sequencer.Report(seq, opts.Params.SpacingMultiplier, opts.Params.BPM)
	if err != nil {
		return nil, err
	}

	trackName := opts.TrackName
	if trackName == "" {
		trackName = DefaultTrackName
	}
	var mid bytes.Buffer
	if _, err := midi.Write(&mid, stream.Events, stream.EndDelta, midi.Header{
		TrackName:    trackName,
		BPM:          opts.Params.BPM,
		TicksPerBeat: opts.Params.TicksPerBeat,
	}); err != nil {
		return nil, err
	}

	id := sequencer.SequenceID(seq, opts.Params)
	var timing bytes.Buffer
	if err := sequencer.WriteTiming(&timing, sequencer.TimingHeader{
		BPM:               opts.Params.BPM,
		SpacingMultiplier: opts.Params.SpacingMultiplier,
		SequenceID:        id,
	}, records); err != nil {
		return nil, err
	}

	return &Result{
		Output:     opts.Output,
		TimingPath: TimingPath(opts.Output),
		Sequence:   seq,
		Stream:     stream,
		Records:    records,
		SequenceID: id,
		MIDI:       mid.Bytes(),
		Timing:     timing.Bytes(),
	}, nil
}

// Prepare resolves, normalizes and builds without writing anything
func Prepare(opts Options) (*Result, error) {
	if opts.Output == "" {
		return nil, sequencer.Invalid("output", opts.Output, "required")
	}
	raw, source, err := Resolve(opts)
	if err != nil {
		return nil, err
	}
	seq, err := mapping.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	res, err := Build(seq, opts)
	if err != nil {
		return nil, err
	}
	res.Source = source
	return res, nil
}

// Run prepares the output and writes the MIDI and timing files
func Run(ctx context.Context, opts Options) (*Result, error) {
	log := debug.FromContext(ctx)

	res, err := Prepare(opts)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		log.Warn("mapping has no entries, writing an empty sequence", "source", res.Source, "reason", sequencer.ErrEmptySequence)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := WriteFiles(map[string][]byte{
		res.Output:     res.MIDI,
		res.TimingPath: res.Timing,
	}); err != nil {
		return nil, err
	}
	debug.Log("generate", "wrote", "output", res.Output, "timing", res.TimingPath, "entries", len(res.Sequence))
	return res, nil
}

// rename is os.Rename; tests swap it to fail a chosen move
var rename = os.Rename

// WriteFiles stages every file next to its destination, then moves them
// into place. If a move fails the files already moved are put back, so the
// destinations end up either all new or all as they were.
func WriteFiles(files map[string][]byte) (err error) {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	staged := map[string]string{}
	defer func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}()

	for _, path := range paths {
		tmp, err := stage(path, files[path])
		if err != nil {
			return err
		}
		staged[path] = tmp
	}

	var moved []swap
	for _, path := range paths {
		sw, err := commit(path, staged[path])
		if err != nil {
			rollback(moved)
			return err
		}
		delete(staged, path)
		moved = append(moved, sw)
	}
	for _, sw := range moved {
		if sw.backup != "" {
			os.Remove(sw.backup)
		}
	}
	return nil
}

// swap records one committed file and where its previous version went
type swap struct {
	path   string
	backup string // empty when path did not exist
}

// commit moves tmp over path, keeping an existing file aside as a backup
func commit(path, tmp string) (swap, error) {
	sw := swap{path: path}
	if _, err := os.Lstat(path); err == nil {
		sw.backup = tmp + ".old"
		if err := rename(path, sw.backup); err != nil {
			return sw, err
		}
	}
	if err := rename(tmp, path); err != nil {
		if sw.backup != "" {
			os.Rename(sw.backup, path)
		}
		return sw, err
	}
	return sw, nil
}

// rollback restores the previous versions, newest first
func rollback(moved []swap) {
	for i := len(moved) - 1; i >= 0; i-- {
		sw := moved[i]
		if sw.backup == "" {
			os.Remove(sw.path)
			continue
		}
		if err := os.Rename(sw.backup, sw.path); err != nil {
			debug.Log("generate", "rollback failed", "path", sw.path, "backup", sw.backup, "err", err)
		}
	}
}

func stage(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// IsUserError reports errors caused by the input rather than the system
func IsUserError(err error) bool {
	return errors.Is(err, sequencer.ErrMalformedMapping) || errors.Is(err, sequencer.ErrInvalidConfiguration)
}
