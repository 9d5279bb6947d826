package model

import "testing"

func TestWithOverrides(t *testing.T) {
	base := ExamRecord{
		ExamTitle:     "Midterm",
		Username:      "alice",
		AttemptNumber: 1,
		TotalScore:    72.5,
		AccuracyRate:  0.8,
	}

	title := "Final"
	attempt := 3
	score := 55.0

	got := base.WithOverrides(Overrides{
		ExamTitle:     &title,
		AttemptNumber: &attempt,
		TotalScore:    &score,
	})

	if got.ExamTitle != "Final" {
		t.Errorf("ExamTitle = %q, want 'Final'", got.ExamTitle)
	}
	if got.AttemptNumber != 3 {
		t.Errorf("AttemptNumber = %d, want 3", got.AttemptNumber)
	}
	if got.TotalScore != 55.0 {
		t.Errorf("TotalScore = %v, want 55.0", got.TotalScore)
	}
	// Fields without overrides keep their values.
	if got.Username != "alice" {
		t.Errorf("Username = %q, want 'alice'", got.Username)
	}
	if got.AccuracyRate != 0.8 {
		t.Errorf("AccuracyRate = %v, want 0.8", got.AccuracyRate)
	}
	// The receiver is untouched.
	if base.ExamTitle != "Midterm" || base.AttemptNumber != 1 {
		t.Error("WithOverrides mutated the original record")
	}
}

func TestWithOverridesZero(t *testing.T) {
	base := ExamRecord{ExamTitle: "Midterm", AttemptNumber: 2}
	ov := Overrides{}
	if !ov.IsZero() {
		t.Error("empty Overrides should report IsZero")
	}
	got := base.WithOverrides(ov)
	if got.ExamTitle != base.ExamTitle || got.AttemptNumber != base.AttemptNumber {
		t.Errorf("zero overrides changed the record: %+v", got)
	}
}

func TestPassThresholds(t *testing.T) {
	tests := []struct {
		score    float64
		accuracy float64
		scoreOK  bool
		accOK    bool
	}{
		{60, 0.6, true, true},
		{59.9, 0.59, false, false},
		{100, 1, true, true},
		{0, 0, false, false},
	}

	for _, tt := range tests {
		r := ExamRecord{TotalScore: tt.score, AccuracyRate: tt.accuracy}
		if r.ScorePassed() != tt.scoreOK {
			t.Errorf("ScorePassed() with score %v = %v, want %v", tt.score, r.ScorePassed(), tt.scoreOK)
		}
		if r.AccuracyPassed() != tt.accOK {
			t.Errorf("AccuracyPassed() with rate %v = %v, want %v", tt.accuracy, r.AccuracyPassed(), tt.accOK)
		}
	}
}
