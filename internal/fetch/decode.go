package fetch

import (
	"fmt"

	"github.com/victorxys/ExamBank-sub004/internal/model"
)

// Server payload shapes. Field names follow the API wire format; the DTOs are
// validated before conversion so a shape mismatch becomes a RemoteError
// instead of bad data leaking into the view.

type optionDTO struct {
	ID        int64  `json:"id"`
	Char      string `json:"char"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type questionDTO struct {
	ID                int64       `json:"id"`
	QuestionText      string      `json:"question_text"`
	QuestionType      string      `json:"question_type"`
	Options           []optionDTO `json:"options"`
	SelectedOptionIDs []int64     `json:"selected_option_ids"`
	IsCorrect         bool        `json:"is_correct"`
	Explanation       string      `json:"explanation"`
}

type courseDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type recordDTO struct {
	ExamTitle     string  `json:"exam_title"`
	Username      string  `json:"username"`
	ExamTime      string  `json:"exam_time"`
	AttemptNumber int     `json:"attempt_number"`
	TotalScore    float64 `json:"total_score"`
	AccuracyRate  float64 `json:"accuracy_rate"`

	SingleChoiceCorrect   int `json:"single_choice_correct"`
	SingleChoiceIncorrect int `json:"single_choice_incorrect"`
	SingleChoiceTotal     int `json:"single_choice_total"`
	MultiChoiceCorrect    int `json:"multi_choice_correct"`
	MultiChoiceIncorrect  int `json:"multi_choice_incorrect"`
	MultiChoiceTotal      int `json:"multi_choice_total"`

	Questions []questionDTO `json:"questions"`
	Courses   []courseDTO   `json:"courses"`
}

func (d *recordDTO) validate() error {
	if d.AttemptNumber < 1 {
		return fmt.Errorf("invalid attempt_number %d", d.AttemptNumber)
	}
	if d.AccuracyRate < 0 || d.AccuracyRate > 1 {
		return fmt.Errorf("accuracy_rate %v out of range", d.AccuracyRate)
	}
	for _, n := range []int{
		d.SingleChoiceCorrect, d.SingleChoiceIncorrect, d.SingleChoiceTotal,
		d.MultiChoiceCorrect, d.MultiChoiceIncorrect, d.MultiChoiceTotal,
	} {
		if n < 0 {
			return fmt.Errorf("negative question count %d", n)
		}
	}
	for i, q := range d.Questions {
		switch model.QuestionType(q.QuestionType) {
		case model.QuestionSingleChoice, model.QuestionMultiChoice:
		default:
			return fmt.Errorf("question %d has unknown type %q", i, q.QuestionType)
		}
	}
	return nil
}

func (d *recordDTO) toModel() *model.ExamRecord {
	rec := &model.ExamRecord{
		ExamTitle:     d.ExamTitle,
		Username:      d.Username,
		ExamTime:      d.ExamTime,
		AttemptNumber: d.AttemptNumber,
		TotalScore:    d.TotalScore,
		AccuracyRate:  d.AccuracyRate,

		SingleChoiceCorrect:   d.SingleChoiceCorrect,
		SingleChoiceIncorrect: d.SingleChoiceIncorrect,
		SingleChoiceTotal:     d.SingleChoiceTotal,
		MultiChoiceCorrect:    d.MultiChoiceCorrect,
		MultiChoiceIncorrect:  d.MultiChoiceIncorrect,
		MultiChoiceTotal:      d.MultiChoiceTotal,
	}

	for _, q := range d.Questions {
		mq := model.Question{
			ID:                q.ID,
			QuestionText:      q.QuestionText,
			QuestionType:      model.QuestionType(q.QuestionType),
			SelectedOptionIDs: q.SelectedOptionIDs,
			IsCorrect:         q.IsCorrect,
			Explanation:       q.Explanation,
		}
		for _, o := range q.Options {
			mq.Options = append(mq.Options, model.Option(o))
		}
		rec.Questions = append(rec.Questions, mq)
	}
	for _, c := range d.Courses {
		rec.Courses = append(rec.Courses, model.CourseRef{ID: c.ID, Name: c.Name})
	}
	return rec
}
