package model

import (
	"sort"
	"time"
)

const (
	DefaultMaxRating = 5
	MinMaxRating     = 2
	MaxMaxRating     = 10
)

// Survey is a purchasable questionnaire authored by staff
type Survey struct {
	ID                string     `json:"id" bson:"_id,omitempty"`
	Slug              string     `json:"slug" bson:"slug"`
	Title             string     `json:"title" bson:"title"`
	Description       string     `json:"description" bson:"description"`
	Instructions      string     `json:"instructions" bson:"instructions"`
	Cost              Money      `json:"cost" bson:"cost"`
	MaxRating         int        `json:"maxRating" bson:"maxRating"` // For rating questions, 2-10
	Published         bool       `json:"published" bson:"published"`
	PurchaseResponse  string     `json:"purchaseResponse" bson:"purchaseResponse"`
	CompletedMessage  string     `json:"completedMessage" bson:"completedMessage"`   // Shown after a respondent submits
	ReportExplanation string     `json:"reportExplanation" bson:"reportExplanation"` // Shown before the report detail
	Categories        []Category `json:"categories" bson:"categories"`
	CreatedAt         time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Category groups subcategories under a titled section
type Category struct {
	ID            string        `json:"id" bson:"id"`
	Title         string        `json:"title" bson:"title"`
	Description   string        `json:"description" bson:"description"`
	Order         int           `json:"order" bson:"order"`
	Subcategories []Subcategory `json:"subcategories" bson:"subcategories"`
}

// Subcategory groups questions inside a category
type Subcategory struct {
	ID          string     `json:"id" bson:"id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	Order       int        `json:"order" bson:"order"`
	Questions   []Question `json:"questions" bson:"questions"`
}

// RatingChoices returns every valid rating value, 1..MaxRating
func (s *Survey) RatingChoices() []int {
	choices := make([]int, 0, s.MaxRating)
	for i := 1; i <= s.MaxRating; i++ {
		choices = append(choices, i)
	}
	return choices
}

// RequiresPayment reports whether purchasing needs a charge
func (s *Survey) RequiresPayment() bool {
	return s.Cost.IsPositive()
}

// Questions flattens the tree in authored order
func (s *Survey) Questions() []Question {
	var questions []Question
	for _, c := range SortedCategories(s.Categories) {
		for _, sc := range SortedSubcategories(c.Subcategories) {
			questions = append(questions, SortedQuestions(sc.Questions)...)
		}
	}
	return questions
}

// Question finds a question anywhere in the tree
func (s *Survey) Question(id string) (Question, bool) {
	for _, c := range s.Categories {
		for _, sc := range c.Subcategories {
			for _, q := range sc.Questions {
				if q.ID == id {
					return q, true
				}
			}
		}
	}
	return Question{}, false
}

// SortedCategories orders by Order, keeping slice position for ties
func SortedCategories(in []Category) []Category {
	out := append([]Category(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func SortedSubcategories(in []Subcategory) []Subcategory {
	out := append([]Subcategory(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func SortedQuestions(in []Question) []Question {
	out := append([]Question(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
