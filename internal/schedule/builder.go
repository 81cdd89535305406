package schedule

import (
	"fmt"
	"slices"
	"strconv"
)

// minSessionGroups is the least number of muscle groups a built session trains.
const minSessionGroups = 3

// sessionBlueprints lists the muscle groups of every session by sessions per week.
//
//nolint:gochecknoglobals // read-only lookup table.
var sessionBlueprints = map[int][][]string{
	3: {
		{GroupChest, GroupBack, GroupLegs, GroupShoulders},
		{GroupLegs, GroupBack, GroupArms, GroupCore},
		{GroupChest, GroupLegs, GroupArms, GroupCore},
	},
	4: {
		{GroupChest, GroupBack, GroupShoulders, GroupArms},
		{GroupLegs, GroupGlutes, GroupCore},
		{GroupChest, GroupBack, GroupShoulders, GroupCore},
		{GroupLegs, GroupGlutes, GroupArms, GroupCore},
	},
	5: {
		{GroupChest, GroupBack, GroupShoulders},
		{GroupLegs, GroupGlutes, GroupCore},
		{GroupChest, GroupArms, GroupShoulders, GroupCore},
		{GroupBack, GroupLegs, GroupCore, GroupArms},
		{GroupLegs, GroupGlutes, GroupCore, GroupShoulders},
	},
}

// BuildPlan builds a plan for level from the muscle groups that have exercises available.
//
// Sessions follow the level's blueprint restricted to available groups. Focus groups are mixed in on alternating
// sessions and every session is padded from the default group order. Sessions carry placeholder day labels and
// no exercises so that the generator places and allocates them.
func BuildPlan(level Level, availableGroups []string, focus []string) (Plan, error) {
	parsed, ok := ParseLevel(string(level))
	if !ok {
		return Plan{}, fmt.Errorf("%w: unknown level %q", ErrInvalidPlan, level)
	}
	rule := LevelRuleFor(parsed)

	available := make(map[string]bool)
	var availableOrder []string
	for _, g := range availableGroups {
		if n := NormalizeGroup(g); n != "" && !available[n] {
			available[n] = true
			availableOrder = append(availableOrder, n)
		}
	}
	if len(available) == 0 {
		return Plan{}, fmt.Errorf("%w: no muscle groups with exercises", ErrMissingPool)
	}
	focusGroups := sanitizeFocus(focus, available, availableOrder)

	plan := Plan{
		Level:            parsed,
		FrequencyPerWeek: rule.SessionsPerWeek,
		TotalWeeks:       rule.Weeks,
		Weeks:            make([]Week, rule.Weeks),
	}
	for w := range rule.Weeks {
		sessions := make([]Session, rule.SessionsPerWeek)
		for s := range rule.SessionsPerWeek {
			sessions[s] = Session{
				DayLabel:     "D" + strconv.Itoa(s+1),
				Title:        fmt.Sprintf("Week %d day %d", w+1, s+1),
				MuscleGroups: chooseSessionGroups(w, s, rule, focusGroups, available, availableOrder),
				Exercises:    nil,
				Cloned:       false,
				Compensatory: false,
			}
		}
		plan.Weeks[w] = Week{Sessions: sessions}
	}
	return plan, nil
}

// sanitizeFocus keeps the available focus groups. Without any, it falls back to the default group order.
func sanitizeFocus(focus []string, available map[string]bool, availableOrder []string) []string {
	var out []string
	for _, g := range focus {
		if n := NormalizeGroup(g); available[n] && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, g := range defaultGroupSequence {
		if available[g] {
			out = append(out, g)
		}
	}
	if len(out) > 0 {
		return out
	}
	return availableOrder
}

func chooseSessionGroups(
	week, session int, rule LevelRule, focus []string, available map[string]bool, availableOrder []string,
) []string {
	var groups []string
	add := func(g string) {
		if available[g] && !slices.Contains(groups, g) {
			groups = append(groups, g)
		}
	}

	if blueprint := sessionBlueprints[rule.SessionsPerWeek]; session < len(blueprint) {
		for _, g := range blueprint[session] {
			add(g)
		}
	}
	for i, g := range focus {
		if (i+week+session)%2 == 0 {
			add(g)
		}
	}

	needed := max(rule.MinExercises, minSessionGroups)
	for i := 0; len(groups) < needed && i < 2*len(defaultGroupSequence); i++ {
		add(defaultGroupSequence[i%len(defaultGroupSequence)])
	}
	if len(groups) < min(minSessionGroups, len(availableOrder)) {
		for _, g := range availableOrder {
			add(g)
		}
	}
	return groups
}
