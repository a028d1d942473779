// Package render bounces a trigger stream through a SoundFont so the
// audio the slicer needs can be produced without a DAW.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	meltysynth "github.com/sinshu/go-meltysynth/meltysynth"

	"drum-trigger/debug"
	"drum-trigger/midi"
)

const block = 512

// PercussionChannel is the wire channel the synthesizer plays from the
// drum bank (GM channel 10). Every note of a bounce is routed there, so the
// program picks a drum kit whatever channel the stream was written for.
const PercussionChannel = 9

// synthesizer is the subset of meltysynth.Synthesizer a bounce drives
type synthesizer interface {
	ProcessMidiMessage(channel int32, command int32, data1, data2 int32)
	NoteOn(channel, key, vel int32)
	NoteOff(channel, key int32)
	Render(left, right []float32)
}

// Options controls a bounce
type Options struct {
	SampleRate int
	Program    int  // drum kit program sent before the first note
	Normalize  bool // scale so the loudest sample peaks at 0.99
}

// Audio is rendered stereo PCM
type Audio struct {
	SampleRate  int
	Left, Right []float32
}

// Frames is the number of stereo sample frames
func (a *Audio) Frames() int {
	return len(a.Left)
}

// Duration is the playing time
func (a *Audio) Duration() time.Duration {
	if a.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(a.Frames()) / float64(a.SampleRate) * float64(time.Second))
}

// Peak is the largest absolute sample value on either channel
func (a *Audio) Peak() float32 {
	var peak float32
	for i := range a.Left {
		if v := float32(math.Abs(float64(a.Left[i]))); v > peak {
			peak = v
		}
		if v := float32(math.Abs(float64(a.Right[i]))); v > peak {
			peak = v
		}
	}
	return peak
}

// normalize scales both channels so the peak sits just below full scale
func (a *Audio) normalize() {
	peak := a.Peak()
	if peak == 0 {
		return
	}
	g := float32(0.99) / peak
	for i := range a.Left {
		a.Left[i] *= g
		a.Right[i] *= g
	}
}

// Timeline is the part of a stream a bounce needs
type Timeline struct {
	Events       []midi.Event // absolute Tick must be set
	EndTick      int64
	BPM          int
	TicksPerBeat int
}

// sampleAt converts a tick to a frame offset
func (t Timeline) sampleAt(tick int64, rate int) int {
	seconds := float64(tick) * 60 / (float64(t.BPM) * float64(t.TicksPerBeat))
	return int(math.Round(seconds * float64(rate)))
}

// LoadSynth opens a SoundFont and prepares a synthesizer for it
func LoadSynth(sf2 io.ReadSeeker, sampleRate int) (*meltysynth.Synthesizer, error) {
	sfnt, err := meltysynth.NewSoundFont(sf2)
	if err != nil {
		return nil, fmt.Errorf("render: soundfont: %w", err)
	}
	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	synth, err := meltysynth.NewSynthesizer(sfnt, settings)
	if err != nil {
		return nil, fmt.Errorf("render: synthesizer: %w", err)
	}
	return synth, nil
}

// BounceFile renders the timeline with the SoundFont at path
func BounceFile(path string, tl Timeline, opts Options) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	synth, err := LoadSynth(f, opts.SampleRate)
	if err != nil {
		return nil, err
	}
	return Bounce(synth, tl, opts)
}

// Bounce renders the timeline from tick 0 to its end tick. Events are applied
// at the frame their tick falls on.
func Bounce(synth synthesizer, tl Timeline, opts Options) (*Audio, error) {
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("render: sample rate %d out of range", opts.SampleRate)
	}
	if tl.BPM <= 0 || tl.TicksPerBeat <= 0 {
		return nil, errors.New("render: timeline has no tempo")
	}

	events := make([]midi.Event, len(tl.Events))
	copy(events, tl.Events)
	sort.SliceStable(events, func(i, j int) bool { return midi.Less(events[i], events[j]) })

	total := tl.sampleAt(tl.EndTick, opts.SampleRate)
	audio := &Audio{
		SampleRate: opts.SampleRate,
		Left:       make([]float32, total),
		Right:      make([]float32, total),
	}

	if len(events) > 0 {
		synth.ProcessMidiMessage(PercussionChannel, 0xC0, int32(opts.Program), 0)
	}

	const ch = PercussionChannel
	pos, next := 0, 0
	for pos < total {
		for next < len(events) && tl.sampleAt(events[next].Tick, opts.SampleRate) <= pos {
			e := events[next]
			if e.IsNoteOff() {
				synth.NoteOff(ch, int32(e.Note))
			} else {
				synth.NoteOn(ch, int32(e.Note), int32(e.Velocity))
			}
			next++
		}

		// render up to the next event or a full block, whichever is first
		n := block
		if next < len(events) {
			if until := tl.sampleAt(events[next].Tick, opts.SampleRate) - pos; until < n {
				n = until
			}
		}
		if pos+n > total {
			n = total - pos
		}
		synth.Render(audio.Left[pos:pos+n], audio.Right[pos:pos+n])
		pos += n
	}

	if opts.Normalize {
		audio.normalize()
	}
	debug.Log("render", "bounced", "frames", total, "events", len(events), "peak", audio.Peak())
	return audio, nil
}
