package schedule

// LevelRule describes the shape of plans for a training level.
type LevelRule struct {
	Weeks           int
	SessionsPerWeek int
	MinExercises    int
	MaxExercises    int
}

// LevelRuleFor returns the rule for level. Unknown and empty levels fall back to beginner.
func LevelRuleFor(level Level) LevelRule {
	switch level {
	case LevelIntermediate:
		return LevelRule{
			Weeks:           4, //nolint:mnd // mesocycle length.
			SessionsPerWeek: 4, //nolint:mnd // upper/lower split.
			MinExercises:    5, //nolint:mnd // intermediate volume.
			MaxExercises:    6, //nolint:mnd // intermediate volume.
		}
	case LevelAdvanced:
		return LevelRule{
			Weeks:           4, //nolint:mnd // mesocycle length.
			SessionsPerWeek: 5, //nolint:mnd // every weekday.
			MinExercises:    6, //nolint:mnd // advanced volume.
			MaxExercises:    7, //nolint:mnd // advanced volume.
		}
	case LevelBeginner:
		fallthrough
	default:
		return LevelRule{
			Weeks:           4, //nolint:mnd // mesocycle length.
			SessionsPerWeek: 3, //nolint:mnd // full body three times a week.
			MinExercises:    4, //nolint:mnd // beginner volume.
			MaxExercises:    5, //nolint:mnd // beginner volume.
		}
	}
}

// ParseLevel accepts English and Spanish level names.
func ParseLevel(s string) (Level, bool) {
	switch foldKey(s) {
	case "beginner", "principiante", "":
		return LevelBeginner, true
	case "intermediate", "intermedio":
		return LevelIntermediate, true
	case "advanced", "avanzado":
		return LevelAdvanced, true
	default:
		return "", false
	}
}
