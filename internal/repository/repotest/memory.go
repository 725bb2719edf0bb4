// Package repotest provides in-memory repositories that honour the same
// contracts as the Mongo implementations, for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/repository"
)

// DuplicateKey is what the Mongo driver returns for a unique index violation
var DuplicateKey = mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}}}

type SurveyRepo struct {
	mu      sync.Mutex
	surveys map[string]*model.Survey
}

func NewSurveyRepo() *SurveyRepo {
	return &SurveyRepo{surveys: map[string]*model.Survey{}}
}

func (r *SurveyRepo) Create(ctx context.Context, survey *model.Survey) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.surveys {
		if s.Slug == survey.Slug {
			return "", DuplicateKey
		}
	}
	survey.ID = primitive.NewObjectID().Hex()
	survey.CreatedAt = time.Now()
	stored := *survey
	r.surveys[survey.ID] = &stored
	return survey.ID, nil
}

func (r *SurveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.surveys[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (r *SurveyRepo) GetBySlug(ctx context.Context, slug string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.surveys {
		if s.Slug == slug {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *SurveyRepo) List(ctx context.Context, publishedOnly bool) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Survey{}
	for _, s := range r.surveys {
		if !publishedOnly || s.Published {
			copied := *s
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *SurveyRepo) Update(ctx context.Context, survey *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[survey.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	for id, s := range r.surveys {
		if id != survey.ID && s.Slug == survey.Slug {
			return DuplicateKey
		}
	}
	stored := *survey
	r.surveys[survey.ID] = &stored
	return nil
}

func (r *SurveyRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surveys, id)
	return nil
}

func (r *SurveyRepo) EnsureIndexes(ctx context.Context) error { return nil }

type PurchaseRepo struct {
	mu        sync.Mutex
	purchases map[string]*model.Purchase

	// CreateErr, when set, fails every Create
	CreateErr error
}

func NewPurchaseRepo() *PurchaseRepo {
	return &PurchaseRepo{purchases: map[string]*model.Purchase{}}
}

func (r *PurchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	now := time.Now()
	p.ID = primitive.NewObjectID().Hex()
	p.PublicID = uuid.New().String()
	p.CreatedAt = now
	p.UpdatedAt = now
	stored := *p
	r.purchases[p.PublicID] = &stored
	return nil
}

func (r *PurchaseRepo) GetByPublicID(ctx context.Context, publicID string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.purchases[publicID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (r *PurchaseRepo) ListByPurchaser(ctx context.Context, purchaserID string, status model.PurchaseStatus) ([]*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Purchase{}
	for _, p := range r.purchases {
		if p.PurchaserID != purchaserID {
			continue
		}
		if status == model.PurchaseStatusOpen && !p.IsOpen() || status == model.PurchaseStatusClosed && p.IsOpen() {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *PurchaseRepo) HasSurvey(ctx context.Context, surveyID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.SurveyID == surveyID {
			return true, nil
		}
	}
	return false, nil
}

func (r *PurchaseRepo) EnsureIndexes(ctx context.Context) error { return nil }

// Count returns the number of stored purchases
func (r *PurchaseRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.purchases)
}

// PurchaseCodeRepo decrements under a lock, matching the conditional
// update of the Mongo repository.
type PurchaseCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*model.PurchaseCode
}

func NewPurchaseCodeRepo() *PurchaseCodeRepo {
	return &PurchaseCodeRepo{codes: map[string]*model.PurchaseCode{}}
}

func codeKey(surveyID, code string) string { return surveyID + "/" + code }

func (r *PurchaseCodeRepo) Create(ctx context.Context, code *model.PurchaseCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := codeKey(code.SurveyID, code.Code)
	if _, ok := r.codes[k]; ok {
		return DuplicateKey
	}
	code.ID = primitive.NewObjectID().Hex()
	code.CreatedAt = time.Now()
	stored := *code
	r.codes[k] = &stored
	return nil
}

func (r *PurchaseCodeRepo) ListBySurvey(ctx context.Context, surveyID string) ([]*model.PurchaseCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.PurchaseCode{}
	for _, c := range r.codes {
		if c.SurveyID == surveyID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *PurchaseCodeRepo) Redeem(ctx context.Context, surveyID, code string) (*model.PurchaseCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[codeKey(surveyID, code)]
	if !ok || c.UsesRemaining <= 0 {
		return nil, repository.ErrCodeUnavailable
	}
	c.UsesRemaining--
	copied := *c
	return &copied, nil
}

func (r *PurchaseCodeRepo) Release(ctx context.Context, surveyID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[codeKey(surveyID, code)]
	if !ok {
		return repository.ErrCodeUnavailable
	}
	c.UsesRemaining++
	return nil
}

func (r *PurchaseCodeRepo) EnsureIndexes(ctx context.Context) error { return nil }

// Uses returns the remaining uses of a code, -1 when it does not exist
func (r *PurchaseCodeRepo) Uses(surveyID, code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.codes[codeKey(surveyID, code)]; ok {
		return c.UsesRemaining
	}
	return -1
}

// ResponseRepo stamps each response one second after the previous one
type ResponseRepo struct {
	mu        sync.Mutex
	responses []model.SurveyResponse
	clock     time.Time
}

func NewResponseRepo(start time.Time) *ResponseRepo {
	return &ResponseRepo{clock: start}
}

func (r *ResponseRepo) Create(ctx context.Context, resp *model.SurveyResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = r.clock.Add(time.Second)
	resp.ID = primitive.NewObjectID().Hex()
	resp.CreatedAt = r.clock
	r.responses = append(r.responses, *resp)
	return nil
}

func (r *ResponseRepo) ListByPurchase(ctx context.Context, purchaseID string) ([]model.SurveyResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.SurveyResponse
	for _, resp := range r.responses {
		if resp.PurchaseID == purchaseID {
			out = append(out, resp)
		}
	}
	return out, nil
}

func (r *ResponseRepo) CountByPurchase(ctx context.Context, purchaseID string) (int64, error) {
	list, err := r.ListByPurchase(ctx, purchaseID)
	return int64(len(list)), err
}

func (r *ResponseRepo) EnsureIndexes(ctx context.Context) error { return nil }

// Responses returns every stored response
func (r *ResponseRepo) Responses() []model.SurveyResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.SurveyResponse(nil), r.responses...)
}

// ReportRepo stores reports on the purchases of a PurchaseRepo
type ReportRepo struct {
	purchases *PurchaseRepo
	mu        sync.Mutex
	saves     []string
}

func NewReportRepo(purchases *PurchaseRepo) *ReportRepo {
	return &ReportRepo{purchases: purchases}
}

func (r *ReportRepo) Save(ctx context.Context, publicID, report string, generatedAt time.Time) error {
	r.purchases.mu.Lock()
	defer r.purchases.mu.Unlock()
	p, ok := r.purchases.purchases[publicID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	p.ReportCache = report
	p.ReportGenerated = &generatedAt
	p.UpdatedAt = time.Now()

	r.mu.Lock()
	r.saves = append(r.saves, report)
	r.mu.Unlock()
	return nil
}

func (r *ReportRepo) Get(ctx context.Context, publicID string) (*repository.StoredReport, error) {
	r.purchases.mu.Lock()
	defer r.purchases.mu.Unlock()
	p, ok := r.purchases.purchases[publicID]
	if !ok {
		return nil, nil
	}
	return &repository.StoredReport{
		PublicID:    p.PublicID,
		SurveyID:    p.SurveyID,
		PurchaserID: p.PurchaserID,
		Report:      p.ReportCache,
		GeneratedAt: p.ReportGenerated,
	}, nil
}

// Saves returns every serialized report written, oldest first
func (r *ReportRepo) Saves() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.saves...)
}

var (
	_ repository.SurveyRepo         = (*SurveyRepo)(nil)
	_ repository.PurchaseRepo       = (*PurchaseRepo)(nil)
	_ repository.PurchaseCodeRepo   = (*PurchaseCodeRepo)(nil)
	_ repository.ResponseRepository = (*ResponseRepo)(nil)
	_ repository.ReportRepo         = (*ReportRepo)(nil)
)
