package schedule

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// GroupAvailability reports how many catalog candidates a muscle group had.
type GroupAvailability struct {
	Group      string
	Candidates int
}

// AllocationError is returned when a session cannot reach the minimum exercise count of its level.
type AllocationError struct {
	WeekNumber   int
	Date         time.Time
	SessionTitle string
	Groups       []GroupAvailability
	Required     int
	Obtained     int
}

func (e *AllocationError) Error() string {
	groups := make([]string, len(e.Groups))
	for i, g := range e.Groups {
		groups[i] = fmt.Sprintf("%s=%d", g.Group, g.Candidates)
	}
	where := "session"
	if e.WeekNumber > 0 {
		where = fmt.Sprintf("week %d session %q on %s", e.WeekNumber, e.SessionTitle, e.Date.Format(time.DateOnly))
	}
	return fmt.Sprintf("%s: %s needs %d exercises but got %d (candidates per group: %s)",
		ErrAllocationShortfall.Error(), where, e.Required, e.Obtained, strings.Join(groups, ", "))
}

func (e *AllocationError) Unwrap() error {
	return ErrAllocationShortfall
}

// exercisePools holds the candidate exercises per canonical muscle group and a rotating cursor per group.
//
// The cursors persist across sessions of a generation run so that consecutive sessions rotate through the pool.
type exercisePools struct {
	groups  map[string][]ExerciseRef
	cursors map[string]int
}

// buildPools groups catalog exercises by canonical muscle group. Duplicate names within a group are dropped and
// missing prescriptions get the defaults.
func buildPools(catalog []ExerciseRef) *exercisePools {
	p := &exercisePools{
		groups:  make(map[string][]ExerciseRef),
		cursors: make(map[string]int),
	}
	seen := make(map[string]bool)
	for _, e := range catalog {
		group := NormalizeGroup(e.MuscleGroup)
		if group == "" || e.Name == "" {
			continue
		}
		key := group + "\x00" + e.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		e.MuscleGroup = group
		if e.SetsRepsScheme == "" {
			e.SetsRepsScheme = setsReps{sets: defaultSets, minReps: defaultMinReps, maxReps: defaultMaxReps}.String()
		}
		if e.RestSeconds <= 0 {
			e.RestSeconds = defaultRestSeconds
		}
		e.Repeat = false
		e.Adjustment = nil
		p.groups[group] = append(p.groups[group], e)
	}
	return p
}

// candidates returns the number of candidates for a canonical group.
func (p *exercisePools) candidates(group string) int {
	return len(p.groups[group])
}

// next returns the first candidate of group at or after the group's cursor that accept allows and advances the
// cursor past it.
func (p *exercisePools) next(group string, accept func(name string) bool) (ExerciseRef, bool) {
	pool := p.groups[group]
	start := p.cursors[group]
	for k := range pool {
		j := (start + k) % len(pool)
		if accept(pool[j].Name) {
			p.cursors[group] = (j + 1) % len(pool)
			return pool[j], true
		}
	}
	return ExerciseRef{}, false //nolint:exhaustruct // not found.
}

// exerciseTarget returns how many exercises a session referencing groupCount groups aims for and the minimum it
// must reach. A positive limit caps both.
func exerciseTarget(groupCount int, rule LevelRule, limit int) (int, int) {
	target := rule.MinExercises
	if span := rule.MaxExercises - rule.MinExercises + 1; span > 1 {
		target += groupCount % span
	}
	target = min(target, rule.MaxExercises)
	minimum := rule.MinExercises
	if limit > 0 {
		target = min(target, limit)
		minimum = min(minimum, limit)
	}
	return target, minimum
}

// allocate picks exercises for a session that trains groups.
//
// Groups are visited round-robin. The first pass only takes exercises that are not in used, which holds the
// exercise names already scheduled this week, and drops a group once it has no such candidate left. When every
// group is dropped a second pass restores them and allows exercises from earlier sessions of the week. Those picks
// are flagged as repeats. Neither pass repeats an exercise within the session. As a last resort, when the session
// is still below its minimum because its pools are smaller than the level requires, exercises are repeated within
// the session until the minimum is reached.
//
// used is updated with the picked names.
func (p *exercisePools) allocate(
	groups []string, rule LevelRule, limit int, used map[string]bool,
) ([]ExerciseRef, error) {
	target, minimum := exerciseTarget(len(groups), rule, limit)

	var eligible []string
	for _, g := range groups {
		if p.candidates(g) > 0 {
			eligible = append(eligible, g)
		}
	}

	var (
		picked    = make([]ExerciseRef, 0, target)
		inSession = make(map[string]bool)
		active    = slices.Clone(eligible)
		reuse     = false
		idx       = 0
	)
	for len(picked) < target && len(active) > 0 {
		i := idx % len(active)
		group := active[i]
		exercise, ok := p.next(group, func(name string) bool {
			if inSession[name] {
				return false
			}
			return reuse || !used[name]
		})
		if !ok {
			active = slices.Delete(active, i, i+1)
			idx = i
			if len(active) == 0 && !reuse {
				reuse = true
				active = slices.Clone(eligible)
				idx = 0
			}
			continue
		}
		exercise.Repeat = used[exercise.Name]
		used[exercise.Name] = true
		inSession[exercise.Name] = true
		picked = append(picked, exercise)
		idx++
	}

	for i := 0; len(picked) < minimum && len(eligible) > 0; i++ {
		exercise, _ := p.next(eligible[i%len(eligible)], func(string) bool { return true })
		exercise.Repeat = true
		used[exercise.Name] = true
		picked = append(picked, exercise)
	}

	if len(picked) < minimum {
		availability := make([]GroupAvailability, len(groups))
		for i, g := range groups {
			availability[i] = GroupAvailability{Group: g, Candidates: p.candidates(g)}
		}
		return picked, &AllocationError{
			WeekNumber:   0,
			Date:         time.Time{},
			SessionTitle: "",
			Groups:       availability,
			Required:     minimum,
			Obtained:     len(picked),
		}
	}
	return picked, nil
}

// sessionGroups returns the canonical, de-duplicated muscle groups of a session in authored order.
func sessionGroups(s Session) []string {
	var groups []string
	for _, g := range s.MuscleGroups {
		if n := NormalizeGroup(g); n != "" && !slices.Contains(groups, n) {
			groups = append(groups, n)
		}
	}
	return groups
}
