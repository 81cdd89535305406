package schedule

import "testing"

func TestParseSetsReps(t *testing.T) {
	t.Parallel()
	tests := []struct {
		scheme string
		want   setsReps
		wantOK bool
	}{
		{scheme: "3x8-12", want: setsReps{sets: 3, minReps: 8, maxReps: 12}, wantOK: true},
		{scheme: "4 x 10", want: setsReps{sets: 4, minReps: 10, maxReps: 10}, wantOK: true},
		{scheme: "3×10", want: setsReps{sets: 3, minReps: 10, maxReps: 10}, wantOK: true},
		{scheme: "2-3x10-12", want: setsReps{sets: 2, minReps: 10, maxReps: 12}, wantOK: true},
		{scheme: "3X8–10", want: setsReps{sets: 3, minReps: 8, maxReps: 10}, wantOK: true},
		{scheme: "3x12-8", want: setsReps{sets: 3, minReps: 10, maxReps: 12}, wantOK: false},
		{scheme: "garbage", want: setsReps{sets: 3, minReps: 10, maxReps: 12}, wantOK: false},
		{scheme: "", want: setsReps{sets: 3, minReps: 10, maxReps: 12}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.scheme, func(t *testing.T) {
			t.Parallel()
			got, ok := parseSetsReps(tt.scheme)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("parseSetsReps(%q) = %+v, %t, want %+v, %t", tt.scheme, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSetsReps_String(t *testing.T) {
	t.Parallel()
	if got := (setsReps{sets: 3, minReps: 10, maxReps: 12}).String(); got != "3x10-12" {
		t.Errorf("String() = %q, want 3x10-12", got)
	}
	if got := (setsReps{sets: 4, minReps: 10, maxReps: 10}).String(); got != "4x10" {
		t.Errorf("String() = %q, want 4x10", got)
	}
}
