package sequencer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TimingRecord locates one entry in the bounced audio
type TimingRecord struct {
	Index    int
	Note     uint8
	Name     string
	Start    float64 // seconds from the start of the file
	Duration float64 // seconds
}

// Report computes the timing side-channel for the slicer. Starts and
// durations come from the same spacing fold as Sequence, in seconds
// instead of ticks.
func Report(seq DrumSequence, multiplier float64, bpm int) ([]TimingRecord, error) {
	if multiplier <= 0 {
		return nil, Invalid("spacing_multiplier", multiplier, "must be > 0")
	}
	if bpm <= 0 {
		return nil, Invalid("bpm", bpm, "must be > 0")
	}

	leadIn := 60 / float64(bpm)
	offsets := spacingOffsets(seq, multiplier)
	records := make([]TimingRecord, len(seq))
	for i, e := range seq {
		records[i] = TimingRecord{
			Index:    i,
			Note:     e.Note,
			Name:     e.Name,
			Start:    leadIn + offsets[i],
			Duration: e.BaseDuration * multiplier,
		}
	}
	return records, nil
}

// TotalSeconds is the lead-in plus every slot
func TotalSeconds(records []TimingRecord, bpm int) float64 {
	total := 60 / float64(bpm)
	for _, r := range records {
		total += r.Duration
	}
	return total
}

// TimingHeader is what WriteTiming puts above the records
type TimingHeader struct {
	BPM               int
	SpacingMultiplier float64
	SequenceID        uuid.UUID
}

// sequenceNamespace scopes Sequence IDs to this tool
var sequenceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("drum-trigger/sequence"))

// SequenceID is stable for identical inputs, so a slicer can tell whether a
// timing file still matches the audio it was bounced alongside.
func SequenceID(seq DrumSequence, p Params) uuid.UUID {
	var b strings.Builder
	fmt.Fprintf(&b, "%g|%d|%d|%d|%d", p.SpacingMultiplier, p.Velocity, p.BPM, p.TicksPerBeat, p.Channel)
	for _, e := range seq {
		fmt.Fprintf(&b, "|%d:%s", e.Note, e.Name)
	}
	return uuid.NewSHA1(sequenceNamespace, []byte(b.String()))
}

// WriteTiming writes the header comments followed by one
// index,note,name,start,duration line per record.
func WriteTiming(w io.Writer, h TimingHeader, records []TimingRecord) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# Drum trigger timing info")
	fmt.Fprintf(bw, "# BPM: %d\n", h.BPM)
	fmt.Fprintf(bw, "# Spacing multiplier: %s\n", formatMultiplier(h.SpacingMultiplier))
	fmt.Fprintln(bw, "# Format: index, midi_note, name, start_time_sec, duration_sec")
	if h.SequenceID != uuid.Nil {
		fmt.Fprintf(bw, "# Sequence-ID: %s\n", h.SequenceID)
	}
	for _, r := range records {
		fmt.Fprintf(bw, "%d,%d,%s,%.4f,%.4f\n", r.Index, r.Note, r.Name, r.Start, r.Duration)
	}
	return bw.Flush()
}

// formatMultiplier always keeps a decimal point: 1 prints as "1.0"
func formatMultiplier(m float64) string {
	s := strconv.FormatFloat(m, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseTiming reads a file written by WriteTiming, skipping comments and
// blank lines. Names may contain commas; the numeric fields are taken
// from the ends of the line.
func ParseTiming(r io.Reader) ([]TimingRecord, error) {
	var out []TimingRecord
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) < 5 {
			return nil, fmt.Errorf("timing line %d: want 5 fields, got %d", line, len(fields))
		}
		n := len(fields)
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("timing line %d: index: %w", line, err)
		}
		note, err := strconv.ParseUint(fields[1], 10, 8)
		if err != nil {
			return nil, fmt.Errorf("timing line %d: note: %w", line, err)
		}
		start, err := strconv.ParseFloat(fields[n-2], 64)
		if err != nil {
			return nil, fmt.Errorf("timing line %d: start: %w", line, err)
		}
		dur, err := strconv.ParseFloat(fields[n-1], 64)
		if err != nil {
			return nil, fmt.Errorf("timing line %d: duration: %w", line, err)
		}
		out = append(out, TimingRecord{
			Index:    idx,
			Note:     uint8(note),
			Name:     strings.Join(fields[2:n-2], ","),
			Start:    start,
			Duration: dur,
		})
	}
	return out, sc.Err()
}
