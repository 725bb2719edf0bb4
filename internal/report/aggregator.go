package report

import "github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"

// Index holds the responses of one purchase keyed by question
type Index struct {
	ratings map[string][]int
	texts   map[string][]string
	choices []int
}

// NewIndex resolves responses against the survey tree. Answers to questions
// outside the survey, or whose populated field does not match the question
// type, are ignored.
func NewIndex(survey *model.Survey, responses []model.SurveyResponse) *Index {
	idx := &Index{
		ratings: make(map[string][]int),
		texts:   make(map[string][]string),
		choices: survey.RatingChoices(),
	}

	questions := make(map[string]model.Question)
	for _, q := range survey.Questions() {
		questions[q.ID] = q
	}

	for _, resp := range responses {
		for _, a := range resp.Answers {
			q, ok := questions[a.QuestionID]
			if !ok {
				continue
			}
			switch {
			case q.IsRating() && a.Rating != nil:
				idx.ratings[q.ID] = append(idx.ratings[q.ID], *a.Rating)
			case q.IsText() && a.Rating == nil:
				idx.texts[q.ID] = append(idx.texts[q.ID], a.Text)
			}
		}
	}
	return idx
}

// Ratings returns the ratings recorded for a question
func (idx *Index) Ratings(questionID string) []int {
	return idx.ratings[questionID]
}

// Texts returns the text answers recorded for a question, in submission order
func (idx *Index) Texts(questionID string) []string {
	return idx.texts[questionID]
}

// AggregateCategories folds the tree bottom-up, dropping nodes without
// data. Each level is computed from the ratings its children collected.
func AggregateCategories(categories []model.Category, idx *Index) []model.CategoryNode {
	nodes := []model.CategoryNode{}
	for _, c := range model.SortedCategories(categories) {
		if node, _, ok := aggregateCategory(c, idx); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func aggregateCategory(c model.Category, idx *Index) (model.CategoryNode, []int, bool) {
	var ratings []int
	children := []model.SubcategoryNode{}
	for _, sc := range model.SortedSubcategories(c.Subcategories) {
		node, scRatings, ok := aggregateSubcategory(sc, idx)
		if !ok {
			continue
		}
		ratings = append(ratings, scRatings...)
		children = append(children, node)
	}
	if len(ratings) == 0 {
		return model.CategoryNode{}, nil, false
	}
	return model.CategoryNode{
		ID:            c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Rating:        Calculate(ratings, idx.choices),
		Subcategories: children,
	}, ratings, true
}

func aggregateSubcategory(sc model.Subcategory, idx *Index) (model.SubcategoryNode, []int, bool) {
	var ratings []int
	children := []model.QuestionNode{}
	for _, q := range model.SortedQuestions(sc.Questions) {
		node, qRatings, ok := aggregateQuestion(q, idx)
		if !ok {
			continue
		}
		ratings = append(ratings, qRatings...)
		children = append(children, node)
	}
	if len(ratings) == 0 {
		return model.SubcategoryNode{}, nil, false
	}
	return model.SubcategoryNode{
		ID:          sc.ID,
		Title:       sc.Title,
		Description: sc.Description,
		Rating:      Calculate(ratings, idx.choices),
		Questions:   children,
	}, ratings, true
}

func aggregateQuestion(q model.Question, idx *Index) (model.QuestionNode, []int, bool) {
	if !q.IsRating() {
		return model.QuestionNode{}, nil, false
	}
	ratings := idx.Ratings(q.ID)
	if len(ratings) == 0 {
		return model.QuestionNode{}, nil, false
	}
	return model.QuestionNode{
		ID:           q.ID,
		Prompt:       q.Prompt,
		InvertRating: q.InvertRating,
		Rating:       Calculate(ratings, idx.choices),
	}, ratings, true
}
