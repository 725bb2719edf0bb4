package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/cache"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/repository"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/validation"
)

var maxCost = decimal.RequireFromString("99999.99")

const MsgScoringFrozen = "Cannot be changed after the survey has been purchased."

// SurveyService handles survey authoring and lookup
type SurveyService struct {
	surveyRepo   repository.SurveyRepo
	purchaseRepo repository.PurchaseRepo
	surveyCache  cache.SurveyCache
	log          *logger.Logger
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo, purchaseRepo repository.PurchaseRepo, surveyCache cache.SurveyCache, log *logger.Logger) *SurveyService {
	return &SurveyService{
		surveyRepo:   surveyRepo,
		purchaseRepo: purchaseRepo,
		surveyCache:  surveyCache,
		log:         log.Component("survey"),
	}
}

// Create validates and stores a new survey
func (s *SurveyService) Create(ctx context.Context, survey *model.Survey) (*model.Survey, error) {
	if err := prepareSurvey(survey); err != nil {
		return nil, err
	}

	if _, err := s.surveyRepo.Create(ctx, survey); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, validation.Field("slug", "A survey with this slug already exists.")
		}
		return nil, fmt.Errorf("failed to create survey: %w", err)
	}

	s.log.WithField("survey_id", survey.ID).Info("survey created")
	return survey, nil
}

// Update replaces a survey's content, keeping its identity. Once a survey
// has been sold its rating scale and the type and inversion of existing
// questions are frozen, since stored answers were validated against them.
func (s *SurveyService) Update(ctx context.Context, id string, survey *model.Survey) (*model.Survey, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	survey.ID = existing.ID
	survey.CreatedAt = existing.CreatedAt
	if err := prepareSurvey(survey); err != nil {
		return nil, err
	}
	if errs := scoringChanges(existing, survey); len(errs) > 0 {
		sold, err := s.purchaseRepo.HasSurvey(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check purchases: %w", err)
		}
		if sold {
			return nil, errs.Err()
		}
	}

	if err := s.surveyRepo.Update(ctx, survey); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, validation.Field("slug", "A survey with this slug already exists.")
		}
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update survey: %w", err)
	}
	s.invalidate(ctx, id)

	return survey, nil
}

// Get returns any survey by ID
func (s *SurveyService) Get(ctx context.Context, id string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	if survey == nil {
		return nil, ErrNotFound
	}
	return survey, nil
}

// Load returns a survey through the cache. Used on the respondent and
// report paths, where the survey tree is read far more than it changes.
func (s *SurveyService) Load(ctx context.Context, id string) (*model.Survey, error) {
	cached, err := s.surveyCache.Get(ctx, id)
	if err != nil {
		s.log.WithError(err).Warn("survey cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	survey, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.surveyCache.Set(ctx, survey); err != nil {
		s.log.WithError(err).Warn("survey cache write failed")
	}
	return survey, nil
}

// GetBySlug returns a survey for the catalog. Unpublished surveys are only
// visible to staff.
func (s *SurveyService) GetBySlug(ctx context.Context, slug string, staff bool) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get survey: %w", err)
	}
	if survey == nil || (!survey.Published && !staff) {
		return nil, ErrNotFound
	}
	return survey, nil
}

// List returns surveys sorted by title
func (s *SurveyService) List(ctx context.Context, publishedOnly bool) ([]*model.Survey, error) {
	return s.surveyRepo.List(ctx, publishedOnly)
}

// Delete deletes a survey
func (s *SurveyService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.surveyRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete survey: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *SurveyService) invalidate(ctx context.Context, id string) {
	if err := s.surveyCache.Delete(ctx, id); err != nil {
		s.log.WithError(err).WithField("survey_id", id).Warn("survey cache invalidation failed")
	}
}

// scoringChanges lists edits that would reinterpret stored answers
func scoringChanges(existing, updated *model.Survey) validation.Errors {
	errs := validation.Errors{}
	if existing.MaxRating != updated.MaxRating {
		errs.Add("maxRating", MsgScoringFrozen)
	}

	previous := map[string]model.Question{}
	for _, q := range existing.Questions() {
		previous[q.ID] = q
	}
	for ci, c := range updated.Categories {
		for si, sc := range c.Subcategories {
			for qi, q := range sc.Questions {
				old, ok := previous[q.ID]
				if !ok {
					continue
				}
				qkey := fmt.Sprintf("categories.%d.subcategories.%d.questions.%d", ci, si, qi)
				if old.Type != q.Type {
					errs.Add(qkey+".type", MsgScoringFrozen)
				}
				if old.InvertRating != q.InvertRating {
					errs.Add(qkey+".invertRating", MsgScoringFrozen)
				}
			}
		}
	}
	return errs
}

// prepareSurvey validates a survey and fills in defaults, IDs, orders and slug
func prepareSurvey(survey *model.Survey) error {
	errs := validation.Errors{}

	survey.Title = strings.TrimSpace(survey.Title)
	if survey.Title == "" {
		errs.Add("title", validation.MsgRequired)
	}

	if survey.Slug = strings.TrimSpace(survey.Slug); survey.Slug == "" {
		survey.Slug = slug.Make(survey.Title)
	} else if !slug.IsSlug(survey.Slug) {
		errs.Add("slug", "Enter a valid slug of letters, numbers, and hyphens.")
	}

	if survey.MaxRating == 0 {
		survey.MaxRating = model.DefaultMaxRating
	}
	if survey.MaxRating < model.MinMaxRating || survey.MaxRating > model.MaxMaxRating {
		errs.Add("maxRating", fmt.Sprintf("Ensure this value is between %d and %d.", model.MinMaxRating, model.MaxMaxRating))
	}

	switch {
	case survey.Cost.IsNegative():
		errs.Add("cost", "Ensure this value is greater than or equal to 0.")
	case survey.Cost.GreaterThan(maxCost):
		errs.Add("cost", "Ensure this value is less than or equal to 99999.99.")
	case !survey.Cost.Equal(survey.Cost.Round(2)):
		errs.Add("cost", "Ensure that there are no more than 2 decimal places.")
	}

	seen := map[string]bool{}
	assignID := func(id *string, key string) {
		if *id == "" {
			*id = uuid.New().String()
		}
		if seen[*id] {
			errs.Add(key+".id", "Duplicate id.")
		}
		seen[*id] = true
	}

	for ci := range survey.Categories {
		c := &survey.Categories[ci]
		ckey := fmt.Sprintf("categories.%d", ci)
		assignID(&c.ID, ckey)
		c.Order = ci
		if strings.TrimSpace(c.Title) == "" {
			errs.Add(ckey+".title", validation.MsgRequired)
		}

		for si := range c.Subcategories {
			sc := &c.Subcategories[si]
			skey := fmt.Sprintf("%s.subcategories.%d", ckey, si)
			assignID(&sc.ID, skey)
			sc.Order = si
			if strings.TrimSpace(sc.Title) == "" {
				errs.Add(skey+".title", validation.MsgRequired)
			}

			for qi := range sc.Questions {
				q := &sc.Questions[qi]
				qkey := fmt.Sprintf("%s.questions.%d", skey, qi)
				assignID(&q.ID, qkey)
				q.Order = qi
				if strings.TrimSpace(q.Prompt) == "" {
					errs.Add(qkey+".prompt", validation.MsgRequired)
				}
				if !q.Type.Valid() {
					errs.Add(qkey+".type", validation.MsgInvalidChoice)
				}
				if q.IsText() {
					q.InvertRating = false
				}
			}
		}
	}

	return errs.Err()
}
