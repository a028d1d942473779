package sequencer

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"drum-trigger/debug"
	"drum-trigger/midi"
)

// NoteLengthSeconds is how long every trigger is held. Samplers keep
// playing the sample's own decay after the short note-off.
const NoteLengthSeconds = 0.1

// Params are the caller-supplied sequencing settings
type Params struct {
	SpacingMultiplier float64 `json:"spacing_multiplier" validate:"gt=0"`
	Velocity          int     `json:"velocity" validate:"min=0,max=127"`
	BPM               int     `json:"bpm" validate:"gt=0"`
	TicksPerBeat      int     `json:"ticks_per_beat" validate:"gt=0,max=32767"`
	Channel           int     `json:"channel" validate:"min=1,max=16"` // 1-16
}

// DefaultParams mirrors the CLI defaults
func DefaultParams() Params {
	return Params{
		SpacingMultiplier: 1.0,
		Velocity:          127,
		BPM:               120,
		TicksPerBeat:      480,
		Channel:           1,
	}
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("json")
	})
	return v
}()

// Validate fails with ErrInvalidConfiguration naming the first bad field
func (p Params) Validate() error {
	return ConfigurationError(validate.Struct(p))
}

// ticksPerSecond converts seconds to ticks: bpm/60 * ticks_per_beat
func (p Params) ticksPerSecond() float64 {
	return float64(p.BPM) / 60 * float64(p.TicksPerBeat)
}

// LeadInTicks is one beat of silence before the first trigger
func (p Params) LeadInTicks() int64 {
	return int64(p.TicksPerBeat)
}

// NoteLengthTicks is the fixed 100 ms hold, rounded to the grid
func (p Params) NoteLengthTicks() int64 {
	return int64(math.Round(NoteLengthSeconds * p.ticksPerSecond()))
}

// SecondsPerTick is 60 / (bpm * ticks_per_beat)
func (p Params) SecondsPerTick() float64 {
	return 60 / (float64(p.BPM) * float64(p.TicksPerBeat))
}

// Slot is the span reserved for one entry
type Slot struct {
	Start    int64 // tick of the NoteOn
	Duration int64 // ticks until the next slot starts
}

// Stream is the sequencer output: note events in final order with their
// deltas filled in, followed by an end-of-stream marker.
type Stream struct {
	Params     Params
	Events     []midi.Event
	Slots      []Slot
	NoteLength int64

	// SlotsEnd is the tick where the last slot runs out
	SlotsEnd int64

	// EndTick is where the end marker sits: one beat past the last slot,
	// and never before one beat past the last event.
	EndTick  int64
	EndDelta uint32
}

// spacingOffsets returns the scaled start offset of every entry relative to
// the end of the lead-in, plus the end of the last entry at index len(seq).
// Sequence and Report both derive their timing from this one fold so they
// cannot disagree.
func spacingOffsets(seq DrumSequence, multiplier float64) []float64 {
	out := make([]float64, len(seq)+1)
	t := 0.0
	for i, e := range seq {
		out[i] = t
		t += e.BaseDuration * multiplier
	}
	out[len(seq)] = t
	return out
}

// Sequence lays the entries out on the tick grid.
//
// Slot boundaries are rounded from the cumulative spacing rather than by
// summing individually rounded durations, so the tick of every NoteOn stays
// within half a tick of the timing report however long the kit is. Each
// slot's duration still equals round(d * multiplier * bpm/60 * tpb)
// whenever that product lands on the grid.
//
// For example at 97 bpm and 100 ticks per beat a 0.1s slot is 16.17 ticks.
// Six of them end at tick 100+97, matching the report's 0.6s. Rounding each
// slot to 16 on its own would end at 100+96, a tick behind, and the gap
// keeps growing with every entry.
func Sequence(seq DrumSequence, p Params) (*Stream, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	noteLen := p.NoteLengthTicks()
	if noteLen < 1 {
		return nil, Invalid("ticks_per_beat", p.TicksPerBeat, "too coarse to hold a 100ms note at this tempo")
	}

	leadIn := p.LeadInTicks()
	tps := p.ticksPerSecond()
	offsets := spacingOffsets(seq, p.SpacingMultiplier)

	boundaries := make([]int64, len(offsets))
	for i, off := range offsets {
		boundaries[i] = leadIn + int64(math.Round(off*tps))
	}

	slots := make([]Slot, len(seq))
	for i := range seq {
		slots[i] = Slot{Start: boundaries[i], Duration: boundaries[i+1] - boundaries[i]}
		if slots[i].Duration < noteLen {
			return nil, Invalid("spacing_multiplier", p.SpacingMultiplier,
				fmt.Sprintf("entry %d (%s) gets %d ticks, shorter than the %d-tick note", i, seq[i].Name, slots[i].Duration, noteLen))
		}
	}

	ch := uint8(p.Channel - 1)
	vel := uint8(p.Velocity)
	events := make([]midi.Event, 0, 2*len(seq))
	for i, e := range seq {
		on := slots[i].Start
		events = append(events,
			midi.Event{Type: midi.NoteOn, Channel: ch, Note: e.Note, Velocity: vel, Tick: on, Index: i},
			midi.Event{Type: midi.NoteOff, Channel: ch, Note: e.Note, Velocity: 0, Tick: on + noteLen, Index: i},
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return midi.Less(events[i], events[j])
	})

	var last int64
	for i := range events {
		delta := events[i].Tick - last
		if delta > math.MaxUint32 {
			return nil, Invalid("spacing_multiplier", p.SpacingMultiplier, "gap exceeds the 32-bit delta range")
		}
		events[i].Delta = uint32(delta)
		last = events[i].Tick
		debug.Log("sequence", "event", "index", events[i].Index, "event", events[i].String())
	}

	end := boundaries[len(seq)]
	if last > end {
		end = last
	}
	end += int64(p.TicksPerBeat)

	s := &Stream{
		Params:     p,
		Events:     events,
		Slots:      slots,
		NoteLength: noteLen,
		SlotsEnd:   boundaries[len(seq)],
		EndTick:    end,
		EndDelta:   uint32(end - last),
	}
	debug.Log("sequence", "done", "entries", len(seq), "events", len(events), "end_tick", end)
	return s, nil
}

// AbsoluteTicks rebuilds absolute ticks from the deltas
func (s *Stream) AbsoluteTicks() []int64 {
	out := make([]int64, len(s.Events))
	var t int64
	for i, e := range s.Events {
		t += int64(e.Delta)
		out[i] = t
	}
	return out
}

// Seconds converts a tick to seconds at the stream tempo
func (s *Stream) Seconds(tick int64) float64 {
	return float64(tick) * s.Params.SecondsPerTick()
}

// Duration is the total length including the lead-in and the tail
func (s *Stream) Duration() time.Duration {
	return time.Duration(s.Seconds(s.EndTick) * float64(time.Second))
}

// NoteCount is the number of NoteOn events
func (s *Stream) NoteCount() int {
	return len(s.Slots)
}
