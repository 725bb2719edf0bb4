package model

// QuestionType defines how a question is answered
type QuestionType string

const (
	QuestionTypeRating QuestionType = "rating" // Integer in [1, survey.MaxRating]
	QuestionTypeText   QuestionType = "text"   // Free text
)

// Valid reports whether t belongs to the closed set of question types
func (t QuestionType) Valid() bool {
	return t == QuestionTypeRating || t == QuestionTypeText
}

// Question is a single prompt inside a subcategory
type Question struct {
	ID           string       `json:"id" bson:"id"`
	Type         QuestionType `json:"type" bson:"type"`
	Prompt       string       `json:"prompt" bson:"prompt"`
	Required     bool         `json:"required" bson:"required"`
	InvertRating bool         `json:"invertRating" bson:"invertRating"` // Stored ratings are flipped at save time
	Order        int          `json:"order" bson:"order"`
}

func (q Question) IsRating() bool {
	return q.Type == QuestionTypeRating
}

func (q Question) IsText() bool {
	return q.Type == QuestionTypeText
}
