// Package mapping loads drum mapping files and turns them into an ordered
// DrumSequence.
//
// Two JSON shapes are accepted:
//
//	[{"note": 36, "name": "Kick"}, {"note": 38, "name": "Snare"}]
//	{"36": "Kick", "38": "Snare"}
//
// The array form is played in file order and keeps duplicate notes as
// separate entries. The object form is legacy: it is played in ascending
// note order. When a note appears more than once, whether as a repeated key
// or as spellings like "36" and "036", the name written last in the
// document wins.
package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"drum-trigger/debug"
	"drum-trigger/sequencer"
)

// Record is one element of the array form. Pointers tell a missing field
// apart from a zero value.
type Record struct {
	Note *int    `json:"note"`
	Name *string `json:"name"`
}

// KeyedRecord is one member of the object form
type KeyedRecord struct {
	Key  string
	Name string
}

// Raw is a parsed mapping in one of its two shapes. Exactly one of
// Ordered or Keyed is meaningful, selected by IsKeyed. Keyed keeps document
// order, repeated keys included.
type Raw struct {
	Ordered []Record
	Keyed   []KeyedRecord
	IsKeyed bool
}

// Len is the number of entries before normalization
func (r Raw) Len() int {
	if r.IsKeyed {
		return len(r.Keyed)
	}
	return len(r.Ordered)
}

// Shape names the form for display
func (r Raw) Shape() string {
	if r.IsKeyed {
		return "object"
	}
	return "array"
}

// Parse detects the JSON shape and decodes it
func Parse(data []byte) (Raw, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Raw{}, fmt.Errorf("%w: empty document", sequencer.ErrMalformedMapping)
	}

	switch trimmed[0] {
	case '[':
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return Raw{}, fmt.Errorf("%w: %v", sequencer.ErrMalformedMapping, err)
		}
		return Raw{Ordered: records}, nil
	case '{':
		keyed, err := parseKeyed(trimmed)
		if err != nil {
			return Raw{}, fmt.Errorf("%w: %v", sequencer.ErrMalformedMapping, err)
		}
		return Raw{Keyed: keyed, IsKeyed: true}, nil
	default:
		return Raw{}, fmt.Errorf("%w: expected a JSON array or object", sequencer.ErrMalformedMapping)
	}
}

// parseKeyed walks the object token by token so member order and repeated
// keys survive, which a map would lose
func parseKeyed(data []byte) ([]KeyedRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	keyed := []KeyedRecord{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected %v", tok)
		}
		var name string
		if err := dec.Decode(&name); err != nil {
			return nil, fmt.Errorf("key %q: %v", key, err)
		}
		keyed = append(keyed, KeyedRecord{Key: key, Name: name})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after object")
	}
	return keyed, nil
}

// Load reads and parses a mapping file
func Load(path string) (Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Raw{}, err
	}
	raw, err := Parse(data)
	if err != nil {
		return Raw{}, fmt.Errorf("%s: %w", path, err)
	}
	debug.Log("mapping", "loaded", "path", path, "shape", raw.Shape(), "entries", raw.Len())
	return raw, nil
}

// Normalize produces the DrumSequence, classifying every name
func Normalize(raw Raw) (sequencer.DrumSequence, error) {
	if raw.IsKeyed {
		return normalizeKeyed(raw.Keyed)
	}
	return normalizeOrdered(raw.Ordered)
}

func normalizeOrdered(records []Record) (sequencer.DrumSequence, error) {
	seq := make(sequencer.DrumSequence, 0, len(records))
	for i, r := range records {
		if r.Note == nil {
			return nil, fmt.Errorf("%w: entry %d is missing \"note\"", sequencer.ErrMalformedMapping, i)
		}
		if r.Name == nil {
			return nil, fmt.Errorf("%w: entry %d is missing \"name\"", sequencer.ErrMalformedMapping, i)
		}
		e, err := sequencer.NewDrumEntry(*r.Note, *r.Name)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		seq = append(seq, e)
	}
	return seq, nil
}

func normalizeKeyed(keyed []KeyedRecord) (sequencer.DrumSequence, error) {
	byNote := map[int]string{}
	for _, r := range keyed {
		note, err := strconv.Atoi(r.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q is not a note number", sequencer.ErrMalformedMapping, r.Key)
		}
		if prev, ok := byNote[note]; ok {
			debug.Log("mapping", "duplicate note", "note", note, "kept", r.Name, "dropped", prev)
		}
		byNote[note] = r.Name
	}

	notes := make([]int, 0, len(byNote))
	for n := range byNote {
		notes = append(notes, n)
	}
	sort.Ints(notes)

	seq := make(sequencer.DrumSequence, 0, len(notes))
	for _, n := range notes {
		e, err := sequencer.NewDrumEntry(n, byNote[n])
		if err != nil {
			return nil, err
		}
		seq = append(seq, e)
	}
	return seq, nil
}
