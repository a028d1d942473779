package sequencer

import (
	"errors"
	"math"
	"strings"
	"testing"

	"drum-trigger/midi"
)

func mustSeq(t *testing.T, pairs ...any) DrumSequence {
	t.Helper()
	var seq DrumSequence
	for i := 0; i < len(pairs); i += 2 {
		e, err := NewDrumEntry(pairs[i].(int), pairs[i+1].(string))
		if err != nil {
			t.Fatalf("NewDrumEntry: %v", err)
		}
		seq = append(seq, e)
	}
	return seq
}

func params(m float64, bpm, tpb int) Params {
	p := DefaultParams()
	p.SpacingMultiplier = m
	p.BPM = bpm
	p.TicksPerBeat = tpb
	return p
}

var kit = []any{
	36, "Kick", 38, "Snare", 42, "Closed Hi-Hat", 46, "Open Hi-Hat",
	49, "Crash Cymbal 1", 51, "Ride Cymbal 1", 45, "Low Tom", 54, "Tambourine",
	36, "Kick 2", 99, "Mystery",
}

func TestSequenceSingleEntry(t *testing.T) {
	tests := []struct {
		bpm          int
		on, off, end int64
	}{
		// lead-in 480, 100ms note, 2s slot, then one beat
		{bpm: 60, on: 480, off: 480 + 48, end: 480 + 960 + 480},
		{bpm: 120, on: 480, off: 480 + 96, end: 480 + 1920 + 480},
	}
	for _, tt := range tests {
		s, err := Sequence(mustSeq(t, 36, "Kick"), params(1.0, tt.bpm, 480))
		if err != nil {
			t.Fatalf("bpm %d: %v", tt.bpm, err)
		}
		if len(s.Events) != 2 {
			t.Fatalf("bpm %d: got %d events, want 2", tt.bpm, len(s.Events))
		}
		on, off := s.Events[0], s.Events[1]
		if on.Type != midi.NoteOn || on.Tick != tt.on || on.Delta != uint32(tt.on) {
			t.Errorf("bpm %d: NoteOn = %v", tt.bpm, on)
		}
		if on.Velocity != 127 || on.Note != 36 || on.Channel != 0 {
			t.Errorf("bpm %d: NoteOn = %v", tt.bpm, on)
		}
		if off.Type != midi.NoteOff || off.Tick != tt.off || off.Velocity != 0 {
			t.Errorf("bpm %d: NoteOff = %v", tt.bpm, off)
		}
		if s.EndTick != tt.end {
			t.Errorf("bpm %d: EndTick = %d, want %d", tt.bpm, s.EndTick, tt.end)
		}
		if got := tt.off + int64(s.EndDelta); got != tt.end {
			t.Errorf("bpm %d: last event + EndDelta = %d, want %d", tt.bpm, got, tt.end)
		}
	}
}

func TestSequenceEmpty(t *testing.T) {
	s, err := Sequence(nil, DefaultParams())
	if err != nil {
		t.Fatalf("Sequence(empty): %v", err)
	}
	if len(s.Events) != 0 || s.NoteCount() != 0 {
		t.Errorf("expected no note events, got %d", len(s.Events))
	}
	if s.EndTick != 960 || s.EndDelta != 960 {
		t.Errorf("EndTick = %d EndDelta = %d, want 960 960", s.EndTick, s.EndDelta)
	}
}

func TestSequenceMonotonicAndNoOverlap(t *testing.T) {
	seq := mustSeq(t, kit...)
	for _, m := range []float64{0.5, 1.0, 1.37, 3.0} {
		for _, bpm := range []int{60, 97, 120, 133} {
			for _, tpb := range []int{96, 480, 960} {
				s, err := Sequence(seq, params(m, bpm, tpb))
				if err != nil {
					t.Fatalf("m=%v bpm=%d tpb=%d: %v", m, bpm, tpb, err)
				}

				abs := s.AbsoluteTicks()
				for i := range abs {
					if abs[i] != s.Events[i].Tick {
						t.Fatalf("m=%v bpm=%d tpb=%d: delta sum %d != tick %d at %d", m, bpm, tpb, abs[i], s.Events[i].Tick, i)
					}
					if i > 0 && abs[i] < abs[i-1] {
						t.Fatalf("m=%v bpm=%d tpb=%d: tick went backwards at %d", m, bpm, tpb, i)
					}
				}

				// every entry's NoteOff lands no later than the next NoteOn
				offs := map[int]int64{}
				ons := map[int]int64{}
				for _, e := range s.Events {
					if e.IsNoteOff() {
						offs[e.Index] = e.Tick
					} else {
						ons[e.Index] = e.Tick
					}
				}
				for i := 0; i+1 < len(seq); i++ {
					if offs[i] > ons[i+1] {
						t.Errorf("m=%v bpm=%d tpb=%d: entry %d off %d after entry %d on %d", m, bpm, tpb, i, offs[i], i+1, ons[i+1])
					}
				}
				if last := abs[len(abs)-1]; s.EndTick-last != int64(s.EndDelta) || s.EndTick < last {
					t.Errorf("m=%v bpm=%d tpb=%d: bad end marker", m, bpm, tpb)
				}
			}
		}
	}
}

func TestSequenceBoundariesDoNotDrift(t *testing.T) {
	seq := make(DrumSequence, 6)
	for i := range seq {
		seq[i] = DrumEntry{Note: 42, Name: "Closed Hi-Hat", BaseDuration: 0.1}
	}
	s, err := Sequence(seq, params(1, 97, 100))
	if err != nil {
		t.Fatal(err)
	}

	// 0.6s at 97bpm is exactly 97 ticks; per-slot rounding would give 6*16
	if s.SlotsEnd != 100+97 {
		t.Errorf("SlotsEnd = %d, want %d", s.SlotsEnd, 100+97)
	}
	var sum int64
	for i, sl := range s.Slots {
		if sl.Duration != 16 && sl.Duration != 17 {
			t.Errorf("slot %d duration = %d, want 16 or 17", i, sl.Duration)
		}
		sum += sl.Duration
	}
	if sum != 97 {
		t.Errorf("slot durations sum to %d, want 97", sum)
	}
}

func TestSequencePreservesOrder(t *testing.T) {
	seq := mustSeq(t, 49, "Crash", 36, "Kick", 36, "Kick 2")
	s, err := Sequence(seq, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	var notes []uint8
	for _, e := range s.Events {
		if !e.IsNoteOff() {
			notes = append(notes, e.Note)
		}
	}
	want := []uint8{49, 36, 36}
	for i := range want {
		if notes[i] != want[i] {
			t.Fatalf("NoteOn order = %v, want %v", notes, want)
		}
	}
}

func TestSequenceTieBreak(t *testing.T) {
	// at m=0.05 a 2s entry is exactly one note long, so the first NoteOff
	// and the second NoteOn share a tick
	s, err := Sequence(mustSeq(t, 36, "Kick", 38, "Snare"), params(0.05, 120, 480))
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		typ  uint8
		note uint8
		tick int64
	}{
		{midi.NoteOn, 36, 480},
		{midi.NoteOff, 36, 576},
		{midi.NoteOn, 38, 576},
		{midi.NoteOff, 38, 672},
	}
	for i, w := range want {
		e := s.Events[i]
		if e.Type != w.typ || e.Note != w.note || e.Tick != w.tick {
			t.Errorf("event %d = %v, want type %#x note %d tick %d", i, e, w.typ, w.note, w.tick)
		}
	}
	if s.Events[2].Delta != 0 {
		t.Errorf("simultaneous NoteOn delta = %d, want 0", s.Events[2].Delta)
	}
}

func TestSequenceRejectsSlotShorterThanNote(t *testing.T) {
	_, err := Sequence(mustSeq(t, 36, "Kick", 38, "Snare"), params(0.01, 120, 480))
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
	if !strings.Contains(err.Error(), "Kick") {
		t.Errorf("error should name the entry: %v", err)
	}
}

func TestSequenceInvalidConfiguration(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Params)
	}{
		{"bpm", func(p *Params) { p.BPM = 0 }},
		{"bpm", func(p *Params) { p.BPM = -5 }},
		{"ticks_per_beat", func(p *Params) { p.TicksPerBeat = 0 }},
		{"spacing_multiplier", func(p *Params) { p.SpacingMultiplier = 0 }},
		{"spacing_multiplier", func(p *Params) { p.SpacingMultiplier = -1 }},
		{"velocity", func(p *Params) { p.Velocity = 128 }},
		{"velocity", func(p *Params) { p.Velocity = -1 }},
		{"channel", func(p *Params) { p.Channel = 0 }},
		{"channel", func(p *Params) { p.Channel = 17 }},
		// one tick per beat cannot hold a 100ms note at 120bpm
		{"ticks_per_beat", func(p *Params) { p.TicksPerBeat = 1 }},
	}
	for _, tt := range tests {
		p := DefaultParams()
		tt.mutate(&p)
		_, err := Sequence(mustSeq(t, 36, "Kick"), p)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%+v: err = %v, want ErrInvalidConfiguration", p, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.field) {
			t.Errorf("%+v: error %q should name %s", p, err, tt.field)
		}
	}
}

func TestSequenceChannel(t *testing.T) {
	p := DefaultParams()
	p.Channel = 10
	p.Velocity = 100
	s, err := Sequence(mustSeq(t, 36, "Kick"), p)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range s.Events {
		if e.Channel != 9 {
			t.Errorf("wire channel = %d, want 9", e.Channel)
		}
	}
	if s.Events[0].Velocity != 100 {
		t.Errorf("velocity = %d, want 100", s.Events[0].Velocity)
	}
}

func TestReportMatchesSequence(t *testing.T) {
	seq := mustSeq(t, kit...)
	for _, m := range []float64{0.5, 1.0, 1.37, 3.0} {
		for _, bpm := range []int{60, 97, 120, 133} {
			for _, tpb := range []int{96, 480, 960} {
				p := params(m, bpm, tpb)
				s, err := Sequence(seq, p)
				if err != nil {
					t.Fatal(err)
				}
				records, err := Report(seq, m, bpm)
				if err != nil {
					t.Fatal(err)
				}
				tick := p.SecondsPerTick()

				for i, r := range records {
					if r.Index != i || r.Note != seq[i].Note || r.Name != seq[i].Name {
						t.Fatalf("record %d = %+v", i, r)
					}
					if diff := math.Abs(s.Seconds(s.Slots[i].Start) - r.Start); diff > tick {
						t.Errorf("m=%v bpm=%d tpb=%d: entry %d start drift %vs", m, bpm, tpb, i, diff)
					}
					if diff := math.Abs(s.Seconds(s.Slots[i].Duration) - r.Duration); diff > tick {
						t.Errorf("m=%v bpm=%d tpb=%d: entry %d duration drift %vs", m, bpm, tpb, i, diff)
					}
				}

				total := TotalSeconds(records, bpm)
				if diff := math.Abs(s.Seconds(s.SlotsEnd) - total); diff > tick {
					t.Errorf("m=%v bpm=%d tpb=%d: total drift %vs", m, bpm, tpb, diff)
				}
			}
		}
	}
}

func TestReportInvalid(t *testing.T) {
	seq := mustSeq(t, 36, "Kick")
	if _, err := Report(seq, 0, 120); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("multiplier 0: err = %v", err)
	}
	if _, err := Report(seq, 1, 0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("bpm 0: err = %v", err)
	}
}

func TestReportStarts(t *testing.T) {
	seq := mustSeq(t, 49, "Crash Cymbal 1", 36, "Kick", 46, "Open Hi-Hat")
	records, err := Report(seq, 2.0, 120)
	if err != nil {
		t.Fatal(err)
	}
	wantStart := []float64{0.5, 10.5, 14.5}
	wantDur := []float64{10, 4, 6}
	for i, r := range records {
		if r.Start != wantStart[i] || r.Duration != wantDur[i] {
			t.Errorf("record %d = %+v, want start %v duration %v", i, r, wantStart[i], wantDur[i])
		}
	}
}
