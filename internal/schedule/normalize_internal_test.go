package schedule

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeGroup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "Pecho", want: GroupChest},
		{in: "  ABDOMINALES ", want: GroupCore},
		{in: "Glúteos", want: GroupGlutes},
		{in: "hombro (medios)", want: GroupShoulders},
		{in: "Cuádriceps", want: GroupLegs},
		{in: "lats", want: GroupBack},
		{in: "forearm", want: "Forearm"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := NormalizeGroup(tt.in); got != tt.want {
			t.Errorf("NormalizeGroup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDayLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		label       string
		wantKind    dayLabelKind
		wantDay     time.Weekday
		wantOrdinal int
	}{
		{label: "Mon", wantKind: labelWeekday, wantDay: time.Monday},
		{label: "Miércoles", wantKind: labelWeekday, wantDay: time.Wednesday},
		{label: "SÁBADO", wantKind: labelWeekday, wantDay: time.Saturday},
		{label: "jue", wantKind: labelWeekday, wantDay: time.Thursday},
		{label: "D3", wantKind: labelPlaceholder, wantOrdinal: 3},
		{label: "d0", wantKind: labelUnknown},
		{label: "Funday", wantKind: labelUnknown},
		{label: "", wantKind: labelUnknown},
	}
	for _, tt := range tests {
		kind, day, ordinal := parseDayLabel(tt.label)
		if kind != tt.wantKind || day != tt.wantDay || ordinal != tt.wantOrdinal {
			t.Errorf("parseDayLabel(%q) = %d, %s, %d, want %d, %s, %d",
				tt.label, kind, day, ordinal, tt.wantKind, tt.wantDay, tt.wantOrdinal)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	t.Parallel()
	if day, ok := ParseWeekday("jueves"); !ok || day != time.Thursday {
		t.Errorf("ParseWeekday(jueves) = %s, %t, want Thursday, true", day, ok)
	}
	if _, ok := ParseWeekday("D1"); ok {
		t.Error("ParseWeekday(D1) ok = true, want false")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in     string
		want   Level
		wantOK bool
	}{
		{in: "Principiante", want: LevelBeginner, wantOK: true},
		{in: "", want: LevelBeginner, wantOK: true},
		{in: "intermedio", want: LevelIntermediate, wantOK: true},
		{in: "AVANZADO", want: LevelAdvanced, wantOK: true},
		{in: "expert", want: "", wantOK: false},
	}
	for _, tt := range tests {
		if got, ok := ParseLevel(tt.in); got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseLevel(%q) = %q, %t, want %q, %t", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFilterByGroups(t *testing.T) {
	t.Parallel()
	exercises := []ExerciseRef{
		{Name: "Bench Press", MuscleGroup: "pecho"},
		{Name: "Pull-Up", MuscleGroup: "Back"},
		{Name: "Plank", MuscleGroup: "Core"},
	}

	got := names(FilterByGroups(exercises, []string{"chest", "abs"}))
	if diff := cmp.Diff([]string{"Bench Press", "Plank"}, got); diff != "" {
		t.Errorf("FilterByGroups() mismatch (-want +got):\n%s", diff)
	}
	if got := FilterByGroups(exercises, nil); len(got) != len(exercises) {
		t.Errorf("FilterByGroups(nil) kept %d exercises, want %d", len(got), len(exercises))
	}
}
