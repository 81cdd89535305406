package schedule

import (
	"fmt"
)

const (
	minTaperedSets = 2
	minTaperedReps = 4
	// Repetitions keep three quarters of their prescription.
	repsKeepNumerator   = 3
	repsKeepDenominator = 4
	// Tapered rep ranges stay at least this wide.
	minTaperedRepSpan = 2
)

// Per day of a consecutive run: the percentage of sets removed and the seconds of rest added.
//
//nolint:gochecknoglobals // read-only lookup tables.
var (
	taperSetReductionPercent = [maxConsecutiveRun]int{15, 25, 30}
	taperRestIncreaseSeconds = [maxConsecutiveRun]int{15, 20, 30}
)

// TaperExercises returns a copy of exercises adjusted for the dayInRun-th (1-indexed) day of a run of
// back-to-back training days. Days outside 1-3 return an unchanged copy.
//
// Sets above two are reduced by 15, 25 or 30 percent (floor, at least two), repetitions drop to three quarters
// (at least four) and rest grows by 15, 20 or 30 seconds. Schemes that cannot be parsed only get the longer rest.
// Every adjusted exercise records the original prescription and a note.
func TaperExercises(exercises []ExerciseRef, dayInRun int) []ExerciseRef {
	out := cloneExercises(exercises)
	if dayInRun < 1 || dayInRun > maxConsecutiveRun {
		return out
	}
	for i, e := range out {
		out[i] = taperExercise(e, dayInRun)
	}
	return out
}

func taperExercise(e ExerciseRef, dayInRun int) ExerciseRef {
	originalRest := e.RestSeconds
	if originalRest <= 0 {
		originalRest = defaultRestSeconds
	}
	rest := originalRest + taperRestIncreaseSeconds[dayInRun-1]

	original, ok := parseSetsReps(e.SetsRepsScheme)
	if !ok && e.SetsRepsScheme != "" {
		// Free-form prescriptions such as "AMRAP" keep their wording and only rest longer.
		e.RestSeconds = rest
		e.Adjustment = &IntensityAdjustment{
			OriginalSetsRepsScheme: e.SetsRepsScheme,
			OriginalRestSeconds:    originalRest,
			DayInRun:               dayInRun,
			Note:                   fmt.Sprintf("consecutive day %d: rest %ds→%ds", dayInRun, originalRest, rest),
		}
		return e
	}
	tapered := original

	if original.sets > minTaperedSets {
		reduced := original.sets * (100 - taperSetReductionPercent[dayInRun-1]) / 100 //nolint:mnd // percent.
		tapered.sets = max(minTaperedSets, reduced)
	}

	tapered.minReps = max(minTaperedReps, original.minReps*repsKeepNumerator/repsKeepDenominator)
	if original.isRange() {
		tapered.maxReps = max(tapered.minReps+minTaperedRepSpan,
			original.maxReps*repsKeepNumerator/repsKeepDenominator)
	} else {
		tapered.maxReps = tapered.minReps
	}

	originalScheme := e.SetsRepsScheme
	if originalScheme == "" {
		originalScheme = original.String()
	}

	e.SetsRepsScheme = tapered.String()
	e.RestSeconds = rest
	e.Adjustment = &IntensityAdjustment{
		OriginalSetsRepsScheme: originalScheme,
		OriginalRestSeconds:    originalRest,
		DayInRun:               dayInRun,
		Note: fmt.Sprintf("consecutive day %d: sets %d→%d, reps %s→%s, rest %ds→%ds",
			dayInRun, original.sets, tapered.sets, original.repsString(), tapered.repsString(), originalRest, rest),
	}
	return e
}
