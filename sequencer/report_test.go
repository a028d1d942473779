package sequencer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestWriteTiming(t *testing.T) {
	seq := mustSeq(t, 49, "Crash Cymbal 1", 36, "Kick")
	records, err := Report(seq, 1.0, 120)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteTiming(&buf, TimingHeader{BPM: 120, SpacingMultiplier: 1.0}, records); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"# Drum trigger timing info",
		"# BPM: 120",
		"# Spacing multiplier: 1.0",
		"# Format: index, midi_note, name, start_time_sec, duration_sec",
		"0,49,Crash Cymbal 1,0.5000,5.0000",
		"1,36,Kick,5.5000,2.0000",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("WriteTiming:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteTimingSequenceID(t *testing.T) {
	seq := mustSeq(t, 36, "Kick")
	p := DefaultParams()
	id := SequenceID(seq, p)
	if id != SequenceID(seq, p) {
		t.Fatal("SequenceID should be deterministic")
	}
	p.BPM = 90
	if id == SequenceID(seq, p) {
		t.Error("SequenceID should change with the tempo")
	}
	if id == SequenceID(mustSeq(t, 38, "Kick"), DefaultParams()) {
		t.Error("SequenceID should change with the notes")
	}

	var buf bytes.Buffer
	if err := WriteTiming(&buf, TimingHeader{BPM: 120, SpacingMultiplier: 2.5, SequenceID: id}, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "# Spacing multiplier: 2.5\n") {
		t.Errorf("missing multiplier line:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "# Sequence-ID: "+id.String()+"\n") {
		t.Errorf("missing Sequence-ID line:\n%s", buf.String())
	}
	if id.Version() != 5 {
		t.Errorf("SequenceID version = %d, want 5", id.Version())
	}
	if id == uuid.Nil {
		t.Error("SequenceID is nil")
	}
}

func TestParseTiming(t *testing.T) {
	seq := mustSeq(t, 49, "Crash, Dark", 36, "Kick", 42, "Closed Hi-Hat")
	records, err := Report(seq, 1.5, 100)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteTiming(&buf, TimingHeader{BPM: 100, SpacingMultiplier: 1.5}, records); err != nil {
		t.Fatal(err)
	}

	got, err := ParseTiming(&buf)
	if err != nil {
		t.Fatalf("ParseTiming: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i := range got {
		if got[i].Index != i || got[i].Note != records[i].Note || got[i].Name != records[i].Name {
			t.Errorf("record %d = %+v, want %+v", i, got[i], records[i])
		}
		if d := got[i].Start - records[i].Start; d > 0.00005 || d < -0.00005 {
			t.Errorf("record %d start = %v, want %v", i, got[i].Start, records[i].Start)
		}
	}
}

func TestParseTimingErrors(t *testing.T) {
	for _, in := range []string{
		"0,36,Kick,0.5",
		"x,36,Kick,0.5,2.0",
		"0,300,Kick,0.5,2.0",
		"0,36,Kick,half,2.0",
	} {
		if _, err := ParseTiming(strings.NewReader(in)); err == nil {
			t.Errorf("ParseTiming(%q): expected error", in)
		}
	}
}
