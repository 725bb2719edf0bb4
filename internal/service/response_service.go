package service

import (
	"context"
	"fmt"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/form"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/repository"
)

// ResponseForm is what a respondent needs to answer a purchased survey
type ResponseForm struct {
	PurchaseID   string       `json:"purchaseId"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Instructions string       `json:"instructions"`
	MaxRating    int          `json:"maxRating"`
	Fields       []form.Field `json:"fields"`
}

// Submission is returned after a response is stored
type Submission struct {
	ResponseID string `json:"responseId"`
	Responses  int64  `json:"responses"`
	Message    string `json:"message"`
}

// ResponseService handles respondents answering a purchased survey
type ResponseService struct {
	purchases    *PurchaseService
	surveys      *SurveyService
	responseRepo repository.ResponseRepository
	broadcaster  Broadcaster
	log          *logger.Logger
}

// NewResponseService creates a new response service
func NewResponseService(
	purchases *PurchaseService,
	surveys *SurveyService,
	responseRepo repository.ResponseRepository,
	log *logger.Logger,
) *ResponseService {
	return &ResponseService{
		purchases:    purchases,
		surveys:      surveys,
		responseRepo: responseRepo,
		broadcaster:  nopBroadcaster{},
		log:          log.Component("response"),
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *ResponseService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

func (s *ResponseService) load(ctx context.Context, publicID string) (*model.Purchase, *model.Survey, error) {
	purchase, err := s.purchases.find(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}
	survey, err := s.surveys.Load(ctx, purchase.SurveyID)
	if err != nil {
		return nil, nil, err
	}
	return purchase, survey, nil
}

// Form describes the fields a respondent must fill in
func (s *ResponseService) Form(ctx context.Context, publicID string) (*ResponseForm, error) {
	purchase, survey, err := s.load(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return &ResponseForm{
		PurchaseID:   purchase.PublicID,
		Title:        survey.Title,
		Description:  survey.Description,
		Instructions: survey.Instructions,
		MaxRating:    survey.MaxRating,
		Fields:       form.Build(survey),
	}, nil
}

// Submit validates the answers, inverts ratings where the question asks for
// it and stores the whole submission as one document.
func (s *ResponseService) Submit(ctx context.Context, publicID string, values map[string]string) (*Submission, error) {
	purchase, survey, err := s.load(ctx, publicID)
	if err != nil {
		return nil, err
	}

	answers, err := form.Validate(form.Build(survey), values)
	if err != nil {
		return nil, err
	}
	for i := range answers {
		if q, ok := survey.Question(answers[i].QuestionID); ok {
			answers[i].NormalizeRating(q, survey.MaxRating)
		}
	}

	response := &model.SurveyResponse{
		PurchaseID: purchase.ID,
		Answers:    answers,
	}
	if err := s.responseRepo.Create(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	count, err := s.responseRepo.CountByPurchase(ctx, purchase.ID)
	if err != nil {
		s.log.WithError(err).Warn("failed to count responses")
	}

	s.broadcaster.BroadcastToPurchase(purchase.PublicID, EventResponseSubmitted, map[string]interface{}{
		"responseId": response.ID,
		"responses":  count,
	})

	return &Submission{
		ResponseID: response.ID,
		Responses:  count,
		Message:    survey.CompletedMessage,
	}, nil
}

// Complete returns the message shown once a respondent is done
func (s *ResponseService) Complete(ctx context.Context, publicID string) (string, error) {
	_, survey, err := s.load(ctx, publicID)
	if err != nil {
		return "", err
	}
	return survey.CompletedMessage, nil
}
