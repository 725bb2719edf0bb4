package model

import "time"

// SurveyResponse is one submission against a purchase
type SurveyResponse struct {
	ID         string             `json:"id" bson:"_id,omitempty"`
	PurchaseID string             `json:"purchaseId" bson:"purchaseId"`
	Answers    []QuestionResponse `json:"answers" bson:"answers"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// QuestionResponse answers a single question: Rating for rating questions, Text for text questions
type QuestionResponse struct {
	QuestionID string `json:"questionId" bson:"questionId"`
	Rating     *int   `json:"rating,omitempty" bson:"rating,omitempty"`
	Text       string `json:"text,omitempty" bson:"text,omitempty"`
}

// NormalizeRating inverts the rating when the question requires it.
// It must run once, before the response is stored.
func (r *QuestionResponse) NormalizeRating(q Question, maxRating int) {
	if r.Rating == nil || !q.IsRating() || !q.InvertRating {
		return
	}
	inverted := maxRating - *r.Rating + 1
	r.Rating = &inverted
}

// HasRating reports whether the response carries a rating value
func (r *QuestionResponse) HasRating() bool {
	return r.Rating != nil
}
