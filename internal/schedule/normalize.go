package schedule

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical muscle groups.
const (
	GroupChest     = "Chest"
	GroupBack      = "Back"
	GroupLegs      = "Legs"
	GroupShoulders = "Shoulders"
	GroupArms      = "Arms"
	GroupCore      = "Core"
	GroupGlutes    = "Glutes"
)

// defaultGroupSequence is the order used to pad sessions that reference too few groups.
//
//nolint:gochecknoglobals // read-only lookup table.
var defaultGroupSequence = []string{
	GroupChest, GroupBack, GroupLegs, GroupShoulders, GroupArms, GroupCore, GroupGlutes,
}

// groupSynonyms maps folded English and Spanish muscle-group names to canonical groups.
//
//nolint:gochecknoglobals // read-only lookup table.
var groupSynonyms = map[string]string{
	"chest": GroupChest, "pecs": GroupChest, "pectoral": GroupChest, "pectorals": GroupChest, "pecho": GroupChest,

	"back": GroupBack, "lats": GroupBack, "traps": GroupBack, "espalda": GroupBack, "dorsal": GroupBack,
	"trapecio": GroupBack,

	"legs": GroupLegs, "leg": GroupLegs, "quads": GroupLegs, "hamstrings": GroupLegs, "calves": GroupLegs,
	"pierna": GroupLegs, "piernas": GroupLegs, "cuadriceps": GroupLegs, "femoral": GroupLegs, "gemelo": GroupLegs,
	"gemelos": GroupLegs,

	"shoulders": GroupShoulders, "shoulder": GroupShoulders, "delts": GroupShoulders, "hombro": GroupShoulders,
	"hombros": GroupShoulders, "hombro (medios)": GroupShoulders, "hombro (delanteros)": GroupShoulders,
	"hombro (traseros)": GroupShoulders,

	"arms": GroupArms, "arm": GroupArms, "biceps": GroupArms, "triceps": GroupArms, "forearms": GroupArms,
	"brazo": GroupArms, "brazos": GroupArms, "antebrazo": GroupArms,

	"core": GroupCore, "abs": GroupCore, "abdominals": GroupCore, "obliques": GroupCore, "abdomen": GroupCore,
	"abdominal": GroupCore, "abdominales": GroupCore,

	"glutes": GroupGlutes, "glute": GroupGlutes, "gluteo": GroupGlutes, "gluteos": GroupGlutes,
}

// dayNames maps folded English and Spanish weekday names and abbreviations to weekdays.
//
//nolint:gochecknoglobals // read-only lookup table.
var dayNames = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday, "lun": time.Monday, "lunes": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday, "mar": time.Tuesday, "martes": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday, "mie": time.Wednesday, "miercoles": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"jue": time.Thursday, "jueves": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "vie": time.Friday, "viernes": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "sab": time.Saturday, "sabado": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday, "dom": time.Sunday, "domingo": time.Sunday,
}

// foldKey lowercases s, trims it, and strips diacritics so that "Miércoles" and "miercoles" compare equal.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// NormalizeGroup maps a muscle-group name to its canonical form. Unknown groups are returned with the first
// letter capitalized. Empty names return "".
func NormalizeGroup(name string) string {
	key := foldKey(name)
	if key == "" {
		return ""
	}
	if canonical, ok := groupSynonyms[key]; ok {
		return canonical
	}
	r := []rune(key)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// dayLabelKind classifies a session day label.
type dayLabelKind int

const (
	labelUnknown dayLabelKind = iota
	labelWeekday
	labelPlaceholder
)

// parseDayLabel recognizes weekday names and placeholder ordinals "D1".."D9".
func parseDayLabel(label string) (dayLabelKind, time.Weekday, int) {
	key := foldKey(label)
	if day, ok := dayNames[key]; ok {
		return labelWeekday, day, 0
	}
	if len(key) == 2 && key[0] == 'd' { //nolint:mnd // "d" plus one digit.
		if n, err := strconv.Atoi(key[1:]); err == nil && n >= 1 {
			return labelPlaceholder, 0, n
		}
	}
	return labelUnknown, 0, 0
}

// FilterByGroups returns the exercises whose muscle group normalizes to one of groups. No groups keeps every
// exercise.
func FilterByGroups(exercises []ExerciseRef, groups []string) []ExerciseRef {
	if len(groups) == 0 {
		return exercises
	}
	wanted := make(map[string]bool, len(groups))
	for _, g := range groups {
		wanted[NormalizeGroup(g)] = true
	}
	var out []ExerciseRef
	for _, e := range exercises {
		if wanted[NormalizeGroup(e.MuscleGroup)] {
			out = append(out, e)
		}
	}
	return out
}

// ParseWeekday parses an English or Spanish weekday name or abbreviation.
func ParseWeekday(s string) (time.Weekday, bool) {
	kind, day, _ := parseDayLabel(s)
	return day, kind == labelWeekday
}
