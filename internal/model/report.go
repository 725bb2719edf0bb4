package model

import "time"

// Frequency is a [rating value, occurrences] pair
type Frequency [2]int

func (f Frequency) Value() int { return f[0] }
func (f Frequency) Count() int { return f[1] }

// RatingStats summarizes a set of ratings
type RatingStats struct {
	Count       int         `json:"count"`
	Average     *float64    `json:"average"` // nil when Count is 0
	Frequencies []Frequency `json:"frequencies"`
}

// Report is the aggregated result for one purchase
type Report struct {
	Rating        RatingStats    `json:"rating"`
	Categories    []CategoryNode `json:"categories"`
	TextQuestions []TextQuestion `json:"text_questions"`
}

// CategoryNode is a category with at least one rating response
type CategoryNode struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Rating        RatingStats       `json:"rating"`
	Subcategories []SubcategoryNode `json:"subcategories"`
}

// SubcategoryNode is a subcategory with at least one rating response
type SubcategoryNode struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Rating      RatingStats    `json:"rating"`
	Questions   []QuestionNode `json:"questions"`
}

// QuestionNode is a rating question with at least one response
type QuestionNode struct {
	ID           string      `json:"id"`
	Prompt       string      `json:"prompt"`
	InvertRating bool        `json:"invert_rating"`
	Rating       RatingStats `json:"rating"`
}

// TextQuestion lists the free-text answers for one question
type TextQuestion struct {
	ID        string   `json:"id"`
	Prompt    string   `json:"prompt"`
	Responses []string `json:"responses"`
}

// ReportEnvelope is what the API returns for a purchase report
type ReportEnvelope struct {
	PurchaseID  string     `json:"purchaseId"` // Public ID
	PurchaserID string     `json:"purchaserId"`
	SurveyID    string     `json:"surveyId"`
	SurveyTitle string     `json:"surveyTitle"`
	Explanation string     `json:"explanation"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
	Report      *Report    `json:"report"`
}
