// Package form describes the response form generated for a survey and
// validates submitted values against it.
package form

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/validation"
)

const keyPrefix = "question_"

// Field describes one input of the response form
type Field struct {
	Key        string             `json:"key"`
	QuestionID string             `json:"questionId"`
	Type       model.QuestionType `json:"type"`
	Label      string             `json:"label"`
	Required   bool               `json:"required"`
	Choices    []int              `json:"choices,omitempty"` // Rating fields only
}

// Key returns the form key for a question
func Key(questionID string) string {
	return keyPrefix + questionID
}

// Build lists one field per question. Rating fields come before text
// fields; within a type the survey hierarchy order is kept.
func Build(survey *model.Survey) []Field {
	questions := survey.Questions()
	sort.SliceStable(questions, func(i, j int) bool {
		return typeRank(questions[i].Type) < typeRank(questions[j].Type)
	})

	choices := survey.RatingChoices()
	fields := make([]Field, 0, len(questions))
	for _, q := range questions {
		f := Field{
			Key:        Key(q.ID),
			QuestionID: q.ID,
			Type:       q.Type,
			Label:      q.Prompt,
			Required:   q.Required,
		}
		if q.IsRating() {
			f.Choices = choices
		}
		fields = append(fields, f)
	}
	return fields
}

func typeRank(t model.QuestionType) int {
	if t == model.QuestionTypeRating {
		return 0
	}
	return 1
}

// Validate checks values against fields and returns one response per field.
// Nothing is returned unless every field is valid.
func Validate(fields []Field, values map[string]string) ([]model.QuestionResponse, error) {
	errs := validation.Errors{}
	answers := make([]model.QuestionResponse, 0, len(fields))

	for _, f := range fields {
		raw := strings.TrimSpace(values[f.Key])
		if raw == "" && f.Required {
			errs.Add(f.Key, validation.MsgRequired)
			continue
		}

		answer := model.QuestionResponse{QuestionID: f.QuestionID}
		switch f.Type {
		case model.QuestionTypeRating:
			if raw == "" {
				break
			}
			v, ok := parseChoice(raw, f.Choices)
			if !ok {
				errs.Add(f.Key, validation.MsgInvalidChoice)
				continue
			}
			answer.Rating = &v
		case model.QuestionTypeText:
			answer.Text = values[f.Key]
		}
		answers = append(answers, answer)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return answers, nil
}

func parseChoice(raw string, choices []int) (int, bool) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	for _, c := range choices {
		if c == v {
			return v, true
		}
	}
	return 0, false
}
