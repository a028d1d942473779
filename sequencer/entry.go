package sequencer

import "fmt"

// DrumEntry is one sample to trigger. Entries are identified by their
// position in a DrumSequence; two entries may share a note.
type DrumEntry struct {
	Note         uint8
	Name         string
	BaseDuration float64 // seconds of natural decay before the next trigger
}

// DrumSequence is the ordered list of entries. The order decides which slot
// of the receiving sampler each sample lands in and is never re-sorted here.
type DrumSequence []DrumEntry

// NewDrumEntry builds an entry, classifying the name for its base duration.
func NewDrumEntry(note int, name string) (DrumEntry, error) {
	if note < 0 || note > 127 {
		return DrumEntry{}, fmt.Errorf("%w: note %d out of range 0-127", ErrMalformedMapping, note)
	}
	if name == "" {
		return DrumEntry{}, fmt.Errorf("%w: note %d has an empty name", ErrMalformedMapping, note)
	}
	return DrumEntry{
		Note:         uint8(note),
		Name:         name,
		BaseDuration: Classify(name),
	}, nil
}

// IsEmpty reports whether seq has no entries (see ErrEmptySequence)
func IsEmpty(seq DrumSequence) bool {
	return len(seq) == 0
}

// TotalBaseSeconds sums the unscaled durations
func (s DrumSequence) TotalBaseSeconds() float64 {
	total := 0.0
	for _, e := range s {
		total += e.BaseDuration
	}
	return total
}
