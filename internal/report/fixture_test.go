package report

import (
	"time"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
)

func intPtr(v int) *int { return &v }

// testSurvey has two categories: c1 holds two rating subcategories, c2 holds
// a subcategory mixing two rating and two text questions.
func testSurvey() *model.Survey {
	rating := func(id string, order int) model.Question {
		return model.Question{ID: id, Type: model.QuestionTypeRating, Prompt: "Prompt " + id, Order: order}
	}
	text := func(id string, order int) model.Question {
		return model.Question{ID: id, Type: model.QuestionTypeText, Prompt: "Prompt " + id, Order: order}
	}
	return &model.Survey{
		ID:        "survey-1",
		Title:     "Team Health",
		MaxRating: 4,
		Categories: []model.Category{
			{ID: "c1", Title: "Category 1", Order: 0, Subcategories: []model.Subcategory{
				{ID: "s1", Title: "Subcategory 1", Order: 0, Questions: []model.Question{rating("q1", 0), rating("q2", 1)}},
				{ID: "s2", Title: "Subcategory 2", Order: 1, Questions: []model.Question{rating("q3", 0), rating("q4", 1)}},
			}},
			{ID: "c2", Title: "Category 2", Order: 1, Subcategories: []model.Subcategory{
				{ID: "s3", Title: "Subcategory 3", Order: 0, Questions: []model.Question{
					rating("q5", 0), rating("q6", 1), text("q7", 2), text("q8", 3),
				}},
			}},
		},
	}
}

// testResponses builds one submission per row, answering q1..q8 in order
func testResponses(purchaseID string, rows ...[]interface{}) []model.SurveyResponse {
	var out []model.SurveyResponse
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, row := range rows {
		resp := model.SurveyResponse{PurchaseID: purchaseID, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		for j, v := range row {
			a := model.QuestionResponse{QuestionID: "q" + string(rune('1'+j))}
			switch val := v.(type) {
			case int:
				a.Rating = intPtr(val)
			case string:
				a.Text = val
			}
			resp.Answers = append(resp.Answers, a)
		}
		out = append(out, resp)
	}
	return out
}

func scenarioResponses() []model.SurveyResponse {
	return testResponses("purchase-1",
		[]interface{}{1, 2, 3, 4, 1, 4, "Text 1", "Text 2"},
		[]interface{}{1, 2, 3, 4, 2, 3, "Text 3", "Text 4"},
		[]interface{}{1, 2, 3, 4, 3, 2, "Text 5", "Text 6"},
	)
}
