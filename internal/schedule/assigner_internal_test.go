package schedule

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func placeholderWeek(n int) Week {
	sessions := make([]Session, n)
	for i := range sessions {
		sessions[i] = Session{
			DayLabel:     "D" + string(rune('1'+i)),
			Title:        "Session " + string(rune('A'+i)),
			MuscleGroups: []string{GroupChest},
		}
	}
	return Week{Sessions: sessions}
}

func slotSummary(slots []slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = dayAbbrev(s.day) + " " + s.session.Title
	}
	return out
}

func TestLabelSlots_placeholders(t *testing.T) {
	t.Parallel()
	slots, warnings := labelSlots(placeholderWeek(5), 1, false)
	if len(warnings) != 0 {
		t.Errorf("labelSlots() warnings = %v, want none", warnings)
	}
	want := []string{"Mon Session A", "Tue Session B", "Wed Session C", "Thu Session D", "Fri Session E"}
	if diff := cmp.Diff(want, slotSummary(slots)); diff != "" {
		t.Errorf("labelSlots() mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelSlots_weekdayLabels(t *testing.T) {
	t.Parallel()
	week := Week{Sessions: []Session{
		{DayLabel: "Lunes", Title: "Push"},
		{DayLabel: "miércoles", Title: "Pull"},
		{DayLabel: "Funday", Title: "Lost"},
		{DayLabel: "Fri", Title: "Legs"},
	}}
	slots, warnings := labelSlots(week, 2, false)
	want := []string{"Mon Push", "Wed Pull", "Fri Legs"}
	if diff := cmp.Diff(want, slotSummary(slots)); diff != "" {
		t.Errorf("labelSlots() mismatch (-want +got):\n%s", diff)
	}
	if len(warnings) != 1 || warnings[0].Code != WarnUnexpectedDayLabel {
		t.Fatalf("labelSlots() warnings = %v, want one %s", warnings, WarnUnexpectedDayLabel)
	}
}

func TestPreferredSlots(t *testing.T) {
	t.Parallel()
	preferred := []time.Weekday{time.Monday, time.Tuesday, time.Thursday, time.Saturday}
	slots := preferredSlots(placeholderWeek(3).Sessions, preferred)
	want := []string{"Mon Session A", "Tue Session B", "Thu Session C", "Sat Session A"}
	if diff := cmp.Diff(want, slotSummary(slots)); diff != "" {
		t.Errorf("preferredSlots() mismatch (-want +got):\n%s", diff)
	}
	for i, s := range slots {
		if wantCloned := i >= 3; s.session.Cloned != wantCloned {
			t.Errorf("slot %d Cloned = %t, want %t", i, s.session.Cloned, wantCloned)
		}
	}

	fewer := preferredSlots(placeholderWeek(3).Sessions, []time.Weekday{time.Wednesday})
	if diff := cmp.Diff([]string{"Wed Session A"}, slotSummary(fewer)); diff != "" {
		t.Errorf("preferredSlots() with one day mismatch (-want +got):\n%s", diff)
	}
}

func TestFirstWeekSlots(t *testing.T) {
	t.Parallel()
	sessions := placeholderWeek(3).Sessions

	res := FirstWeekResolution{Days: []time.Weekday{time.Thursday, time.Friday}}
	slots, trimmed := firstWeekSlots(sessions, res)
	if diff := cmp.Diff([]string{"Thu Session A", "Fri Session B"}, slotSummary(slots)); diff != "" {
		t.Errorf("firstWeekSlots() mismatch (-want +got):\n%s", diff)
	}
	if trimmed != 1 {
		t.Errorf("firstWeekSlots() trimmed = %d, want 1", trimmed)
	}

	res = FirstWeekResolution{
		Days:           []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		FillCyclically: true,
	}
	slots, trimmed = firstWeekSlots(sessions, res)
	want := []string{"Tue Session A", "Wed Session B", "Thu Session C", "Fri Session A"}
	if diff := cmp.Diff(want, slotSummary(slots)); diff != "" {
		t.Errorf("firstWeekSlots() cyclic mismatch (-want +got):\n%s", diff)
	}
	if trimmed != 0 || !slots[3].session.Cloned {
		t.Errorf("firstWeekSlots() trimmed = %d, cloned = %t, want 0 and true", trimmed, slots[3].session.Cloned)
	}
}

func TestCompensate(t *testing.T) {
	t.Parallel()
	base := placeholderWeek(3).Sessions
	regular, _ := labelSlots(placeholderWeek(3), 4, false)
	fixed := []time.Weekday{time.Monday, time.Wednesday, time.Friday}

	tests := []struct {
		name        string
		deficit     int
		want        []string
		wantTrimmed int
	}{
		{
			name:    "exact",
			deficit: 3,
			want:    []string{"Mon Session A", "Wed Session B", "Fri Session C"},
		},
		{
			name:        "surplus is trimmed from the end of the week",
			deficit:     1,
			want:        []string{"Mon Session A"},
			wantTrimmed: 2,
		},
		{
			name:    "missing sessions go round-robin onto the fixed days",
			deficit: 5,
			want: []string{
				"Mon Session A", "Wed Session B", "Fri Session C", "Mon Session A", "Wed Session B",
			},
		},
		{
			name:        "no deficit leaves the week empty",
			deficit:     -2,
			want:        []string{},
			wantTrimmed: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, trimmed := compensate(regular, tt.deficit, base, fixed)
			if diff := cmp.Diff(tt.want, slotSummary(got)); diff != "" {
				t.Errorf("compensate() mismatch (-want +got):\n%s", diff)
			}
			if trimmed != tt.wantTrimmed {
				t.Errorf("compensate() trimmed = %d, want %d", trimmed, tt.wantTrimmed)
			}
			for i, s := range got {
				if wantCompensatory := i >= len(regular); s.session.Compensatory != wantCompensatory {
					t.Errorf("slot %d Compensatory = %t, want %t", i, s.session.Compensatory, wantCompensatory)
				}
			}
		})
	}
}

func TestWeekAssignment_isImmutable(t *testing.T) {
	t.Parallel()
	slots, _ := labelSlots(placeholderWeek(3), 1, false)
	slots[0].session.Exercises = []ExerciseRef{{Name: "Bench Press"}}
	a := newWeekAssignment(1, 0, slots)

	// Changes to the source slots and to returned queues do not leak into the assignment.
	slots[0].session.Exercises[0].Name = "changed"
	got := a.Sessions(time.Monday)
	got[0].Exercises[0].Name = "changed again"

	if name := a.Sessions(time.Monday)[0].Exercises[0].Name; name != "Bench Press" {
		t.Errorf("queued exercise = %q, want %q", name, "Bench Press")
	}
	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}
	if diff := cmp.Diff([]string{"Mon", "Wed", "Fri"}, dayAbbrevs(a.Days())); diff != "" {
		t.Errorf("Days() mismatch (-want +got):\n%s", diff)
	}
}
