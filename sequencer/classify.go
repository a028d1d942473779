package sequencer

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultDuration is used when no rule matches
const DefaultDuration = 2.0

// rule assigns a decay time to names it matches
type rule struct {
	Class   string
	Match   func(folded string) bool
	Seconds float64
}

// Rules are evaluated in order and the first match wins. Order matters:
// "Ride Cymbal" must hit the ride rule before anything generic.
var rules = []rule{
	{Class: "crash", Match: containsAny("crash", "china", "splash"), Seconds: 5.0},
	{Class: "ride", Match: containsAny("ride", "cymbal"), Seconds: 4.0},
	{Class: "open-hat", Match: containsAll("open", "hat"), Seconds: 3.0},
	{Class: "hat", Match: containsAny("hat"), Seconds: 2.0},
	{Class: "tom", Match: containsAny("tom", "floor"), Seconds: 2.5},
	{Class: "short", Match: containsAny("kick", "snare", "clap", "stick", "cowbell", "claves"), Seconds: 2.0},
	{Class: "sustained", Match: containsAny("tambourine", "shaker", "vibraslap"), Seconds: 2.5},
}

func containsAny(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

func containsAll(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if !strings.Contains(s, w) {
				return false
			}
		}
		return true
	}
}

// Classify returns the base decay duration in seconds for a sample name.
func Classify(name string) float64 {
	_, seconds := ClassifyRule(name)
	return seconds
}

// ClassifyRule is Classify plus the class of the rule that matched
// ("default" when none did).
func ClassifyRule(name string) (class string, seconds float64) {
	// a Caser carries state, so each call gets its own
	folded := cases.Fold().String(name)
	for _, r := range rules {
		if r.Match(folded) {
			return r.Class, r.Seconds
		}
	}
	return "default", DefaultDuration
}
