// Package model defines the exam record domain types shared across the client.
package model

// QuestionType distinguishes single-choice from multi-choice questions.
type QuestionType string

const (
	// QuestionSingleChoice is a question with exactly one correct option.
	QuestionSingleChoice QuestionType = "single"
	// QuestionMultiChoice is a question with one or more correct options.
	QuestionMultiChoice QuestionType = "multi"
)

// Pass thresholds used for result styling. The client never recomputes scores;
// it only gates display against these values.
const (
	PassScore    = 60.0
	PassAccuracy = 0.6
)

// Option is one answer choice of a question.
type Option struct {
	ID        int64  `json:"id"`
	Char      string `json:"char"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is one graded question inside an exam record. UniqueID is assigned
// client-side after retrieval and is stable for the lifetime of one fetch; it
// stays distinct across records even when the server reuses raw ids.
type Question struct {
	ID                int64        `json:"id"`
	UniqueID          string       `json:"unique_id"`
	QuestionText      string       `json:"question_text"`
	QuestionType      QuestionType `json:"question_type"`
	Options           []Option     `json:"options"`
	SelectedOptionIDs []int64      `json:"selected_option_ids"`
	IsCorrect         bool         `json:"is_correct"`
	Explanation       string       `json:"explanation,omitempty"`
}

// CourseRef points at a course the exam covered.
type CourseRef struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	UniqueID string `json:"unique_id"`
}

// ExamRecord is the scored result of one subject's attempt at one exam
// instance. Records are immutable after retrieval within a session.
type ExamRecord struct {
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

	Questions []Question  `json:"questions"`
	Courses   []CourseRef `json:"courses"`

	// BaseKey is the identity namespace for this record instance, used to
	// derive the UniqueID of every nested question and course.
	BaseKey string `json:"base_key"`
}

// ScorePassed reports whether the total score clears the pass threshold.
func (r *ExamRecord) ScorePassed() bool { return r.TotalScore >= PassScore }

// AccuracyPassed reports whether the accuracy rate clears the pass threshold.
func (r *ExamRecord) AccuracyPassed() bool { return r.AccuracyRate >= PassAccuracy }

// Overrides carries caller-supplied fields (typically arriving via in-app
// navigation) that take precedence over fetched or cached values. Nil fields
// leave the record value in place.
type Overrides struct {
	ExamTitle     *string
	Username      *string
	AttemptNumber *int
	TotalScore    *float64
	AccuracyRate  *float64
}

// IsZero reports whether no override field is set.
func (o Overrides) IsZero() bool {
	return o.ExamTitle == nil && o.Username == nil && o.AttemptNumber == nil &&
		o.TotalScore == nil && o.AccuracyRate == nil
}

// WithOverrides returns a copy of the record with every set override field
// replacing the stored value. Nested collections are shared, not copied; the
// record is read-only after retrieval.
func (r ExamRecord) WithOverrides(o Overrides) ExamRecord {
	if o.ExamTitle != nil {
		r.ExamTitle = *o.ExamTitle
	}
	if o.Username != nil {
		r.Username = *o.Username
	}
	if o.AttemptNumber != nil {
		r.AttemptNumber = *o.AttemptNumber
	}
	if o.TotalScore != nil {
		r.TotalScore = *o.TotalScore
	}
	if o.AccuracyRate != nil {
		r.AccuracyRate = *o.AccuracyRate
	}
	return r
}
