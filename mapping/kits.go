package mapping

import "sort"

// KitEntry is one pad of a built-in kit
type KitEntry struct {
	Note uint8
	Name string
}

// Kit is an ordered pad layout. Order is the slot order on the receiving
// sampler.
type Kit struct {
	Name    string
	Entries []KitEntry
}

// General MIDI percussion key map, notes 35-81
var gmPercussion = []KitEntry{
	{35, "Acoustic Bass Drum"},
	{36, "Bass Drum 1"},
	{37, "Side Stick"},
	{38, "Acoustic Snare"},
	{39, "Hand Clap"},
	{40, "Electric Snare"},
	{41, "Low Floor Tom"},
	{42, "Closed Hi-Hat"},
	{43, "High Floor Tom"},
	{44, "Pedal Hi-Hat"},
	{45, "Low Tom"},
	{46, "Open Hi-Hat"},
	{47, "Low-Mid Tom"},
	{48, "Hi-Mid Tom"},
	{49, "Crash Cymbal 1"},
	{50, "High Tom"},
	{51, "Ride Cymbal 1"},
	{52, "Chinese Cymbal"},
	{53, "Ride Bell"},
	{54, "Tambourine"},
	{55, "Splash Cymbal"},
	{56, "Cowbell"},
	{57, "Crash Cymbal 2"},
	{58, "Vibraslap"},
	{59, "Ride Cymbal 2"},
	{60, "Hi Bongo"},
	{61, "Low Bongo"},
	{62, "Mute Hi Conga"},
	{63, "Open Hi Conga"},
	{64, "Low Conga"},
	{65, "High Timbale"},
	{66, "Low Timbale"},
	{67, "High Agogo"},
	{68, "Low Agogo"},
	{69, "Cabasa"},
	{70, "Maracas"},
	{71, "Short Whistle"},
	{72, "Long Whistle"},
	{73, "Short Guiro"},
	{74, "Long Guiro"},
	{75, "Claves"},
	{76, "Hi Wood Block"},
	{77, "Low Wood Block"},
	{78, "Mute Cuica"},
	{79, "Open Cuica"},
	{80, "Mute Triangle"},
	{81, "Open Triangle"},
}

// Kits are the built-in layouts. The drum machine kits use the usual
// 16-pad order: kick, snare, hats, three toms, crash, ride, then hand
// percussion.
var Kits = map[string]Kit{
	"gm": {
		Name:    "General MIDI",
		Entries: gmPercussion,
	},
	"gm16": {
		Name: "General MIDI (16 pads)",
		Entries: []KitEntry{
			{36, "Kick"},
			{38, "Snare"},
			{42, "Closed Hi-Hat"},
			{46, "Open Hi-Hat"},
			{41, "Low Tom"},
			{43, "Mid Tom"},
			{45, "High Tom"},
			{49, "Crash Cymbal"},
			{51, "Ride Cymbal"},
			{39, "Clap"},
			{37, "Rimshot Stick"},
			{56, "Cowbell"},
			{75, "Claves"},
			{70, "Maracas"},
			{64, "Low Conga"},
			{63, "High Conga"},
		},
	},
	"rd8": {
		Name: "Behringer RD-8",
		Entries: []KitEntry{
			{36, "Kick (BD)"},
			{40, "Snare (SD)"}, // RD-8 uses 40, not 38
			{42, "Closed Hi-Hat (CH)"},
			{46, "Open Hi-Hat (OH)"},
			{45, "Low Tom (LT)"},
			{48, "Mid Tom (MT)"},
			{50, "High Tom (HT)"},
			{49, "Crash Cymbal (CY)"},
			{51, "Ride Cymbal (RC)"},
			{39, "Clap (CP)"},
			{37, "Rimshot Stick (RS)"},
			{56, "Cowbell (CB)"},
			{75, "Claves (CL)"},
			{70, "Maracas (MA)"},
			{64, "Low Conga (LC)"},
			{63, "High Conga (HC)"},
		},
	},
	"tr8s": {
		Name: "Roland TR-8S",
		Entries: []KitEntry{
			{36, "Kick"},
			{38, "Snare"},
			{42, "Closed Hi-Hat"},
			{46, "Open Hi-Hat"},
			{41, "Low Tom"},
			{43, "Mid Tom"},
			{45, "High Tom"},
			{49, "Crash Cymbal"},
			{51, "Ride Cymbal"},
			{39, "Clap"},
			{37, "Rimshot Stick"},
			{56, "Cowbell"},
			{75, "Claves"},
			{70, "Maracas"},
			{62, "Low Conga"},
			{63, "High Conga"},
		},
	},
	"er1": {
		Name: "Korg ER-1",
		Entries: []KitEntry{
			{36, "Perc Synth 1 Kick"},
			{38, "Perc Synth 2 Snare"},
			{42, "Closed Hi-Hat (PCM)"},
			{46, "Open Hi-Hat (PCM)"},
			{40, "Perc Synth 3 Tom"},
			{41, "Perc Synth 4 Cowbell"},
			{43, "Audio In 1"},
			{49, "Crash Cymbal (PCM)"},
			{45, "Audio In 2"},
			{39, "Hand Clap (PCM)"},
		},
	},
}

// DefaultKit is the default kit name
const DefaultKit = "gm"

// KitNames returns the available kit names, sorted
func KitNames() []string {
	names := make([]string, 0, len(Kits))
	for name := range Kits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetKit returns a kit by name
func GetKit(name string) (Kit, bool) {
	kit, ok := Kits[name]
	return kit, ok
}

// FromKit turns a kit into an ordered mapping
func FromKit(k Kit) Raw {
	records := make([]Record, len(k.Entries))
	for i, e := range k.Entries {
		note, name := int(e.Note), e.Name
		records[i] = Record{Note: &note, Name: &name}
	}
	return Raw{Ordered: records}
}
