package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/cache"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/config"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/payment"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/repository/repotest"
)

type fakeProcessor struct {
	receipt *payment.Receipt
	err     error
	calls   int
}

func (p *fakeProcessor) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.Receipt, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.receipt, nil
}

type broadcast struct {
	publicID string
	msgType  string
	payload  interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
}

func (b *fakeBroadcaster) BroadcastToPurchase(publicID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcast{publicID, msgType, payload})
}

var errBoom = errors.New("boom")

// env wires every service against in-memory repositories and a miniredis cache
type env struct {
	surveyRepo   *repotest.SurveyRepo
	purchaseRepo *repotest.PurchaseRepo
	codeRepo     *repotest.PurchaseCodeRepo
	responseRepo *repotest.ResponseRepo
	reportRepo   *repotest.ReportRepo
	processor    *fakeProcessor
	broadcaster  *fakeBroadcaster
	redis        *miniredis.Miniredis

	auth      *AuthService
	surveys   *SurveyService
	purchases *PurchaseService
	responses *ResponseService
	reports   *ReportService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.Discard()
	e := &env{
		surveyRepo:   repotest.NewSurveyRepo(),
		purchaseRepo: repotest.NewPurchaseRepo(),
		codeRepo:     repotest.NewPurchaseCodeRepo(),
		responseRepo: repotest.NewResponseRepo(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		processor:    &fakeProcessor{receipt: &payment.Receipt{Method: model.PaymentMethodComplimentary, TransactionID: model.PaymentMethodComplimentary}},
		broadcaster:  &fakeBroadcaster{},
		redis:        mr,
	}
	e.reportRepo = repotest.NewReportRepo(e.purchaseRepo)

	e.auth = NewAuthService(&config.Config{StaffUsername: "staff", StaffPassword: "secret", JWTSecret: "test-secret"})
	e.surveys = NewSurveyService(e.surveyRepo, e.purchaseRepo, cache.NewSurveyCache(rdb, time.Minute), log)
	e.purchases = NewPurchaseService(e.purchaseRepo, e.codeRepo, e.surveys, e.processor, log)
	e.responses = NewResponseService(e.purchases, e.surveys, e.responseRepo, log)
	e.reports = NewReportService(e.purchases, e.surveys, e.responseRepo, e.reportRepo, cache.NewReportCache(rdb, time.Minute), log)
	e.responses.SetBroadcaster(e.broadcaster)
	e.reports.SetBroadcaster(e.broadcaster)
	return e
}

var buyer = &model.User{ID: "user-1", Email: "buyer@example.com", FirstName: "Ada", LastName: "Lovelace"}

// scenarioSurvey is the two-category survey used across report tests;
// q6 is inverted.
func scenarioSurvey() *model.Survey {
	rating := func(id string, invert bool) model.Question {
		return model.Question{ID: id, Type: model.QuestionTypeRating, Prompt: "Prompt " + id, InvertRating: invert}
	}
	text := func(id string) model.Question {
		return model.Question{ID: id, Type: model.QuestionTypeText, Prompt: "Prompt " + id}
	}
	return &model.Survey{
		Title:     "Team Health",
		MaxRating: 4,
		Published: true,
		Cost:      model.MustMoney("0"),
		Categories: []model.Category{
			{ID: "c1", Title: "Category 1", Subcategories: []model.Subcategory{
				{ID: "s1", Title: "Subcategory 1", Questions: []model.Question{rating("q1", false), rating("q2", false)}},
				{ID: "s2", Title: "Subcategory 2", Questions: []model.Question{rating("q3", false), rating("q4", false)}},
			}},
			{ID: "c2", Title: "Category 2", Subcategories: []model.Subcategory{
				{ID: "s3", Title: "Subcategory 3", Questions: []model.Question{
					rating("q5", false), rating("q6", true), text("q7"), text("q8"),
				}},
			}},
		},
	}
}

func (e *env) createSurvey(t *testing.T, s *model.Survey) *model.Survey {
	t.Helper()
	created, err := e.surveys.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return created
}

func (e *env) buy(t *testing.T, s *model.Survey, user *model.User) *model.Purchase {
	t.Helper()
	p, err := e.purchases.Purchase(context.Background(), s.Slug, user, &model.PurchaseRequest{})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	return p
}
