package midi

import "fmt"

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event is a note message placed on the tick grid.
//
// Tick is absolute. Delta is filled in once the event list is in its final
// order and holds the ticks since the previous event; after that the
// absolute tick of a single event can only be recovered by summing deltas.
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8 // wire channel 0-15
	Note     uint8
	Velocity uint8
	Tick     int64
	Delta    uint32
	Index    int // entry that produced the event
}

// IsNoteOff reports whether e ends a note
func (e Event) IsNoteOff() bool {
	return e.Type == NoteOff
}

func (e Event) String() string {
	kind := "on "
	if e.IsNoteOff() {
		kind = "off"
	}
	return fmt.Sprintf("%s ch=%d note=%d vel=%d tick=%d delta=%d", kind, e.Channel+1, e.Note, e.Velocity, e.Tick, e.Delta)
}

// Less orders events by tick; at equal ticks a NoteOff sorts before a
// NoteOn so a sample is never still sounding when the next one starts.
func Less(a, b Event) bool {
	if a.Tick != b.Tick {
		return a.Tick < b.Tick
	}
	return a.IsNoteOff() && !b.IsNoteOff()
}
