package schedule

import (
	"strconv"
	"strings"
)

const (
	defaultSets        = 3
	defaultMinReps     = 10
	defaultMaxReps     = 12
	defaultRestSeconds = 60
)

// setsReps is a parsed sets-and-repetitions prescription. Fixed repetitions have minReps == maxReps.
type setsReps struct {
	sets    int
	minReps int
	maxReps int
}

func (s setsReps) isRange() bool {
	return s.maxReps != s.minReps
}

func (s setsReps) repsString() string {
	if s.isRange() {
		return strconv.Itoa(s.minReps) + "-" + strconv.Itoa(s.maxReps)
	}
	return strconv.Itoa(s.minReps)
}

func (s setsReps) String() string {
	return strconv.Itoa(s.sets) + "x" + s.repsString()
}

// parseSetsReps parses prescriptions such as "3x8-12", "4 x 10", "3×10" and "2-3x10-12".
// A range of sets uses its lower bound. Unparseable schemes yield the default 3x10-12 and false.
func parseSetsReps(scheme string) (setsReps, bool) {
	def := setsReps{sets: defaultSets, minReps: defaultMinReps, maxReps: defaultMaxReps}

	s := strings.ToLower(strings.Join(strings.Fields(scheme), ""))
	s = strings.NewReplacer("×", "x", "_", "-", ":", "-", "–", "-").Replace(s)
	setsPart, repsPart, ok := strings.Cut(s, "x")
	if !ok {
		return def, false
	}

	sets, ok := leadingInt(setsPart)
	if !ok || sets <= 0 {
		return def, false
	}

	lo, hi, isRange := strings.Cut(repsPart, "-")
	minReps, ok := leadingInt(lo)
	if !ok || minReps <= 0 {
		return def, false
	}
	maxReps := minReps
	if isRange {
		if maxReps, ok = leadingInt(hi); !ok || maxReps < minReps {
			return def, false
		}
	}
	return setsReps{sets: sets, minReps: minReps, maxReps: maxReps}, true
}

// leadingInt parses the digits at the start of s.
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
