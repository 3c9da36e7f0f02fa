package notes

import (
	"testing"

	"fitvoice/internal/domain"
)

func TestParseSpokenWorkout(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		transcript string
		entries    []domain.ExerciseEntry
		leftover   string
	}{
		{
			name:       "shorthand",
			transcript: "bench press 3x10 at 135",
			entries:    []domain.ExerciseEntry{{Name: "bench press", Sets: 3, Reps: 10, Weight: 135}},
		},
		{
			name:       "spoken numbers and plate speech",
			transcript: "bench press three sets of ten at one thirty five pounds",
			entries:    []domain.ExerciseEntry{{Name: "bench press", Sets: 3, Reps: 10, Weight: 135, Unit: "lb"}},
		},
		{
			name:       "multiple segments",
			transcript: "Squats 5x5 at 100 kilos. Then pull ups 3x8",
			entries: []domain.ExerciseEntry{
				{Name: "squats", Sets: 5, Reps: 5, Weight: 100, Unit: "kg"},
				{Name: "pull ups", Sets: 3, Reps: 8},
			},
		},
		{
			name:       "for reps phrasing",
			transcript: "deadlift 2 sets of five at two twenty",
			entries:    []domain.ExerciseEntry{{Name: "deadlift", Sets: 2, Reps: 5, Weight: 220}},
		},
		{
			name:       "by phrasing",
			transcript: "overhead press 4 by 6 at 85 lbs",
			entries:    []domain.ExerciseEntry{{Name: "overhead press", Sets: 4, Reps: 6, Weight: 85, Unit: "lb"}},
		},
		{
			name:       "unparseable text becomes leftover",
			transcript: "felt strong today, knee a bit sore",
			leftover:   "felt strong today, knee a bit sore",
		},
		{
			name:       "mixed entries and notes",
			transcript: "bench press 3x10 at 135. felt easy",
			entries:    []domain.ExerciseEntry{{Name: "bench press", Sets: 3, Reps: 10, Weight: 135}},
			leftover:   "felt easy",
		},
		{
			name:       "empty transcript",
			transcript: "   ",
		},
	}

	parser := NewParser()
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			entries, leftover := parser.Parse(tc.transcript)
			if len(entries) != len(tc.entries) {
				t.Fatalf("expected %d entries, got %d: %+v (leftover %q)", len(tc.entries), len(entries), entries, leftover)
			}
			for i, want := range tc.entries {
				if entries[i] != want {
					t.Fatalf("entry %d mismatch: got %+v want %+v", i, entries[i], want)
				}
			}
			if leftover != tc.leftover {
				t.Fatalf("unexpected leftover: got %q want %q", leftover, tc.leftover)
			}
		})
	}
}

func TestReplaceNumberWords(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"three sets of ten":    "3 sets of 10",
		"one thirty five":      "135",
		"thirty five":          "35",
		"two twenty":           "220",
		"twenty":               "20",
		"no numbers here":      "no numbers here",
		"ninety five and five": "95 and 5",
	}
	for in, want := range cases {
		if got := replaceNumberWords(in, 30); got != want {
			t.Fatalf("replaceNumberWords(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeUnit(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"kg": "kg", "kgs": "kg", "kilos": "kg",
		"lb": "lb", "lbs": "lb", "pounds": "lb",
		"": "",
	}
	for in, want := range cases {
		if got := normalizeUnit(in); got != want {
			t.Fatalf("normalizeUnit(%q) = %q, want %q", in, got, want)
		}
	}
}
