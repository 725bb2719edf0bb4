package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/cache"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/report"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/repository"
)

// ReportService generates and serves purchase reports
type ReportService struct {
	purchases    *PurchaseService
	surveys      *SurveyService
	responseRepo repository.ResponseRepository
	reportRepo   repository.ReportRepo
	reportCache  cache.ReportCache
	broadcaster  Broadcaster
	log          *logger.Logger
	now          func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	purchases *PurchaseService,
	surveys *SurveyService,
	responseRepo repository.ResponseRepository,
	reportRepo repository.ReportRepo,
	reportCache cache.ReportCache,
	log *logger.Logger,
) *ReportService {
	return &ReportService{
		purchases:    purchases,
		surveys:      surveys,
		responseRepo: responseRepo,
		reportRepo:   reportRepo,
		reportCache:  reportCache,
		broadcaster:  nopBroadcaster{},
		log:          log.Component("report"),
		now:          time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *ReportService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Generate rebuilds the report from every stored response and overwrites
// the cached copy. Running it twice over the same responses gives the same
// report.
func (s *ReportService) Generate(ctx context.Context, publicID, userID string) (*model.ReportEnvelope, error) {
	purchase, err := s.purchases.Get(ctx, publicID, userID)
	if err != nil {
		return nil, err
	}
	survey, err := s.surveys.Load(ctx, purchase.SurveyID)
	if err != nil {
		return nil, err
	}

	responses, err := s.responseRepo.ListByPurchase(ctx, purchase.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	built := report.Build(survey, responses)
	encoded, err := report.Encode(built)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	// Mongo keeps millisecond precision
	generatedAt := s.now().UTC().Truncate(time.Millisecond)
	if err := s.reportRepo.Save(ctx, purchase.PublicID, encoded, generatedAt); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	envelope := s.envelope(purchase.PublicID, purchase.PurchaserID, survey, &generatedAt, built)
	if err := s.reportCache.Set(ctx, envelope); err != nil {
		s.log.WithError(err).Warn("report cache write failed")
	}

	s.log.WithField("public_id", purchase.PublicID).WithField("responses", len(responses)).Info("report generated")
	s.broadcaster.BroadcastToPurchase(purchase.PublicID, EventReportGenerated, map[string]interface{}{
		"generatedAt": generatedAt,
		"responses":   len(responses),
	})

	return envelope, nil
}

// Get returns the last generated report with the survey's current title
// and explanation. Report is nil until Generate ran.
func (s *ReportService) Get(ctx context.Context, publicID, userID string) (*model.ReportEnvelope, error) {
	cached, err := s.reportCache.Get(ctx, publicID)
	if err != nil {
		s.log.WithError(err).Warn("report cache read failed")
	}
	if cached != nil {
		if cached.PurchaserID != userID {
			return nil, ErrForbidden
		}
		// Title and explanation can be edited after generation
		survey, err := s.surveys.Load(ctx, cached.SurveyID)
		if err != nil {
			return nil, err
		}
		cached.SurveyTitle = survey.Title
		cached.Explanation = survey.ReportExplanation
		return cached, nil
	}

	stored, err := s.reportRepo.Get(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	if stored == nil {
		return nil, ErrNotFound
	}
	if stored.PurchaserID != userID {
		return nil, ErrForbidden
	}

	survey, err := s.surveys.Load(ctx, stored.SurveyID)
	if err != nil {
		return nil, err
	}

	if stored.GeneratedAt == nil {
		return s.envelope(stored.PublicID, stored.PurchaserID, survey, nil, nil), nil
	}

	decoded, err := (&model.Purchase{ReportCache: stored.Report}).CachedReport()
	if err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	envelope := s.envelope(stored.PublicID, stored.PurchaserID, survey, stored.GeneratedAt, decoded)
	if err := s.reportCache.Set(ctx, envelope); err != nil {
		s.log.WithError(err).Warn("report cache write failed")
	}
	return envelope, nil
}

// Export writes the last generated report as a spreadsheet
func (s *ReportService) Export(ctx context.Context, publicID, userID string, w io.Writer) error {
	envelope, err := s.Get(ctx, publicID, userID)
	if err != nil {
		return err
	}
	if envelope.Report == nil {
		return ErrReportNotGenerated
	}
	return report.WriteXLSX(w, envelope.SurveyTitle, envelope.Report)
}

func (s *ReportService) envelope(publicID, purchaserID string, survey *model.Survey, at *time.Time, r *model.Report) *model.ReportEnvelope {
	return &model.ReportEnvelope{
		PurchaseID:  publicID,
		PurchaserID: purchaserID,
		SurveyID:    survey.ID,
		SurveyTitle: survey.Title,
		Explanation: survey.ReportExplanation,
		GeneratedAt: at,
		Report:      r,
	}
}
