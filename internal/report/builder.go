package report

import (
	"encoding/json"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
)

// Build aggregates every response of a purchase into a report. responses
// must be in submission order; text answers keep that order.
func Build(survey *model.Survey, responses []model.SurveyResponse) *model.Report {
	idx := NewIndex(survey, responses)

	var all []int
	textQuestions := []model.TextQuestion{}
	for _, q := range survey.Questions() {
		switch {
		case q.IsRating():
			all = append(all, idx.Ratings(q.ID)...)
		case q.IsText():
			answers := append([]string{}, idx.Texts(q.ID)...)
			textQuestions = append(textQuestions, model.TextQuestion{
				ID:        q.ID,
				Prompt:    q.Prompt,
				Responses: answers,
			})
		}
	}

	return &model.Report{
		Rating:        Calculate(all, idx.choices),
		Categories:    AggregateCategories(survey.Categories, idx),
		TextQuestions: textQuestions,
	}
}

// Encode serializes a report for the purchase cache
func Encode(r *model.Report) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
