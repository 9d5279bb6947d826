// Package view holds the rendering contract downstream of a successful
// retrieval: question grouping, incorrect-only filtering, and pass styling.
package view

import (
	"context"

	"github.com/victorxys/ExamBank-sub004/internal/i18n"
	"github.com/victorxys/ExamBank-sub004/internal/model"
)

// Section is one displayed question group.
type Section struct {
	Heading   string           `json:"heading"`
	Questions []model.Question `json:"questions"`
}

// Sections partitions a record's questions by type, single-choice before
// multi-choice, optionally filtered to incorrect answers only. Empty groups
// are dropped. Headings are localized through the context's localizer.
func Sections(ctx context.Context, rec *model.ExamRecord, wrongOnly bool) []Section {
	groups := []struct {
		typ   model.QuestionType
		msgID string
	}{
		{model.QuestionSingleChoice, "SectionSingleChoice"},
		{model.QuestionMultiChoice, "SectionMultiChoice"},
	}

	var sections []Section
	for _, g := range groups {
		var qs []model.Question
		for _, q := range rec.Questions {
			if q.QuestionType != g.typ {
				continue
			}
			if wrongOnly && q.IsCorrect {
				continue
			}
			qs = append(qs, q)
		}
		if len(qs) == 0 {
			continue
		}
		sections = append(sections, Section{Heading: i18n.T(ctx, g.msgID), Questions: qs})
	}
	return sections
}

// ScoreClass returns the styling class gated on the pass-score threshold.
func ScoreClass(totalScore float64) string {
	if totalScore >= model.PassScore {
		return "pass"
	}
	return "fail"
}

// AccuracyClass returns the styling class gated on the pass-accuracy
// threshold.
func AccuracyClass(rate float64) string {
	if rate >= model.PassAccuracy {
		return "pass"
	}
	return "fail"
}
