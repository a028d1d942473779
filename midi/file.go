package midi

import (
	"fmt"
	"io"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Header carries the file-level settings of an encoded stream
type Header struct {
	TrackName    string
	BPM          int
	TicksPerBeat int
}

// Encode builds a single-track file: tempo, track name, the events in the
// order given using their deltas, then end-of-track endDelta ticks after
// the last event.
func Encode(events []Event, endDelta uint32, h Header) (*smf.SMF, error) {
	if h.TicksPerBeat <= 0 || h.TicksPerBeat > 0x7FFF {
		return nil, fmt.Errorf("midi: ticks per beat %d out of range", h.TicksPerBeat)
	}
	if h.BPM <= 0 {
		return nil, fmt.Errorf("midi: bpm %d out of range", h.BPM)
	}

	var track smf.Track
	track.Add(0, smf.MetaTempo(float64(h.BPM)))
	if h.TrackName != "" {
		track.Add(0, smf.MetaTrackSequenceName(h.TrackName))
	}

	for i, e := range events {
		if e.Channel > 15 || e.Note > 127 || e.Velocity > 127 {
			return nil, fmt.Errorf("midi: event %d out of range: %v", i, e)
		}
		switch e.Type {
		case NoteOn:
			track.Add(e.Delta, gomidi.NoteOn(e.Channel, e.Note, e.Velocity))
		case NoteOff:
			track.Add(e.Delta, gomidi.NoteOffVelocity(e.Channel, e.Note, e.Velocity))
		default:
			return nil, fmt.Errorf("midi: event %d has unknown type %#x", i, e.Type)
		}
	}
	track.Close(endDelta)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(h.TicksPerBeat)
	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("midi: %w", err)
	}
	return s, nil
}

// Write encodes the stream and writes the file bytes to w
func Write(w io.Writer, events []Event, endDelta uint32, h Header) (int64, error) {
	s, err := Encode(events, endDelta, h)
	if err != nil {
		return 0, err
	}
	return s.WriteTo(w)
}

// Dump is a decoded single-track file
type Dump struct {
	TicksPerBeat int
	BPM          float64
	TrackName    string
	Events       []Event // Tick and Delta both filled in
	EndTick      int64
	Closed       bool
}

// Decode reads a file produced by Write. Only the first track is looked at.
func Decode(r io.Reader) (*Dump, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("midi: %w", err)
	}
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("midi: unsupported time format %v", s.TimeFormat)
	}
	if len(s.Tracks) == 0 {
		return nil, fmt.Errorf("midi: no tracks")
	}

	d := &Dump{TicksPerBeat: int(mt)}
	var tick, prev int64
	for _, ev := range s.Tracks[0] {
		tick += int64(ev.Delta)
		msg := ev.Message

		var ch, key, vel uint8
		var bpm float64
		var name string
		switch {
		case msg.GetMetaTempo(&bpm):
			d.BPM = bpm
		case msg.GetMetaTrackName(&name):
			d.TrackName = name
		case msg.GetNoteOn(&ch, &key, &vel) && vel > 0:
			d.Events = append(d.Events, Event{Type: NoteOn, Channel: ch, Note: key, Velocity: vel, Tick: tick, Delta: uint32(tick - prev)})
			prev = tick
		case msg.GetNoteOff(&ch, &key, &vel), msg.GetNoteOn(&ch, &key, &vel):
			d.Events = append(d.Events, Event{Type: NoteOff, Channel: ch, Note: key, Velocity: vel, Tick: tick, Delta: uint32(tick - prev)})
			prev = tick
		case isEndOfTrack(msg):
			d.EndTick = tick
			d.Closed = true
		}
	}
	return d, nil
}

// isEndOfTrack matches the FF 2F 00 meta event
func isEndOfTrack(msg smf.Message) bool {
	return len(msg) >= 2 && msg[0] == 0xFF && msg[1] == 0x2F
}
