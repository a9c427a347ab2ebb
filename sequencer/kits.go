package sequencer

import (
	"path/filepath"
	"strings"
)

// Drum slots shared by every kit
const (
	SlotKick = iota
	SlotSnare
	SlotClosedHH
	SlotOpenHH
	SlotLowTom
	SlotMidTom
	SlotHighTom
	SlotCrash
	SlotRide
	SlotClap
	SlotRimshot
	SlotCowbell
	SlotClave
	SlotMaracas
	SlotLowConga
	SlotHighConga
	NumSlots
)

// DrumKit maps drum slots to the MIDI notes of one instrument
type DrumKit struct {
	Name  string
	Notes [NumSlots]uint8
}

// Kits contains all available drum kit mappings
var Kits = map[string]DrumKit{
	"gm": {
		Name:  "General MIDI",
		Notes: [NumSlots]uint8{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"rd8": {
		Name: "Behringer RD-8",
		// RD-8 snare sits on 40, toms are spread wider than GM
		Notes: [NumSlots]uint8{36, 40, 42, 46, 45, 48, 50, 49, 51, 39, 37, 56, 75, 70, 64, 63},
	},
	"tr8s": {
		Name:  "Roland TR-8S",
		Notes: [NumSlots]uint8{36, 38, 42, 46, 41, 43, 45, 49, 51, 39, 37, 56, 75, 70, 62, 63},
	},
	"er1": {
		Name:  "Korg ER-1",
		Notes: [NumSlots]uint8{36, 38, 42, 46, 40, 41, 43, 49, 45, 39, 37, 56, 75, 70, 64, 63},
	},
}

// DefaultKit is the default kit name
const DefaultKit = "gm"

// KitNames returns the list of available kit names
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// GetKit returns a kit by name, defaulting to GM if not found
func GetKit(name string) DrumKit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// slotKeywords is checked in order against the sample's base name, so the
// more specific names come first.
var slotKeywords = []struct {
	keyword string
	slot    int
}{
	{"hihat-open", SlotOpenHH},
	{"open", SlotOpenHH},
	{"hihat-closed", SlotClosedHH},
	{"hihat", SlotClosedHH},
	{"hh", SlotClosedHH},
	{"kick", SlotKick},
	{"bd", SlotKick},
	{"snare", SlotSnare},
	{"sd", SlotSnare},
	{"clap", SlotClap},
	{"rim", SlotRimshot},
	{"cowbell", SlotCowbell},
	{"low-tom", SlotLowTom},
	{"high-tom", SlotHighTom},
	{"tom", SlotMidTom},
	{"crash", SlotCrash},
	{"ride", SlotRide},
	{"clave", SlotClave},
	{"maraca", SlotMaracas},
	{"conga", SlotLowConga},
}

// SampleSlot guesses the drum slot for a sample file name.
func SampleSlot(sample string) (int, bool) {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(sample), filepath.Ext(sample)))
	for _, k := range slotKeywords {
		if strings.Contains(name, k.keyword) {
			return k.slot, true
		}
	}
	return 0, false
}

// Note returns the MIDI note this kit plays for a sample.
func (k DrumKit) Note(sample string) (uint8, bool) {
	slot, ok := SampleSlot(sample)
	if !ok {
		return 0, false
	}
	return k.Notes[slot], true
}
