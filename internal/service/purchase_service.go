package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/payment"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/repository"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/validation"
)

const MsgCodeInvalid = "The code you entered is not valid"

// PurchaseService handles buying survey access and purchase codes
type PurchaseService struct {
	purchaseRepo repository.PurchaseRepo
	codeRepo     repository.PurchaseCodeRepo
	surveys      *SurveyService
	processor    payment.Processor
	log          *logger.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	purchaseRepo repository.PurchaseRepo,
	codeRepo repository.PurchaseCodeRepo,
	surveys *SurveyService,
	processor payment.Processor,
	log *logger.Logger,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		codeRepo:     codeRepo,
		surveys:      surveys,
		processor:    processor,
		log:          log.Component("purchase"),
	}
}

// Purchase grants user access to a published survey, either by redeeming a
// purchase code or by charging the survey cost. Nothing is stored when the
// code or the payment is rejected.
func (s *PurchaseService) Purchase(ctx context.Context, slug string, user *model.User, req *model.PurchaseRequest) (*model.Purchase, error) {
	survey, err := s.surveys.GetBySlug(ctx, slug, false)
	if err != nil {
		return nil, err
	}

	purchase := &model.Purchase{
		SurveyID:    survey.ID,
		PurchaserID: user.ID,
	}

	if code := strings.TrimSpace(req.PurchaseCode); code != "" {
		return s.redeem(ctx, purchase, code)
	}

	receipt, err := s.processor.Charge(ctx, payment.ChargeRequest{
		Amount:     survey.Cost,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		CardNumber: req.CardNumber,
		CardExpiry: req.CardExpiry,
		CardCCV:    req.CardCCV,
	})
	if err != nil {
		if _, ok := validation.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to process payment: %w", err)
	}

	purchase.PaymentMethod = receipt.Method
	purchase.TransactionID = receipt.TransactionID
	purchase.Amount = receipt.Amount

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		// The charge went through; leave a trail for manual reconciliation
		s.log.WithError(err).WithField("transaction_id", receipt.TransactionID).Error("purchase not stored after payment")
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	s.log.WithField("public_id", purchase.PublicID).WithField("method", purchase.PaymentMethod).Info("survey purchased")
	return purchase, nil
}

func (s *PurchaseService) redeem(ctx context.Context, purchase *model.Purchase, code string) (*model.Purchase, error) {
	if _, err := s.codeRepo.Redeem(ctx, purchase.SurveyID, code); err != nil {
		if errors.Is(err, repository.ErrCodeUnavailable) {
			return nil, validation.Field(validation.NonField, MsgCodeInvalid)
		}
		return nil, fmt.Errorf("failed to redeem code: %w", err)
	}

	purchase.PaymentMethod = model.PaymentMethodCode
	purchase.TransactionID = code

	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		if rerr := s.codeRepo.Release(ctx, purchase.SurveyID, code); rerr != nil {
			s.log.WithError(rerr).WithField("code", code).Error("failed to release purchase code")
		}
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	s.log.WithField("public_id", purchase.PublicID).Info("purchase code redeemed")
	return purchase, nil
}

// Get returns a purchase owned by userID
func (s *PurchaseService) Get(ctx context.Context, publicID, userID string) (*model.Purchase, error) {
	purchase, err := s.find(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if purchase.PurchaserID != userID {
		return nil, ErrForbidden
	}
	return purchase, nil
}

// find loads a purchase without an ownership check
func (s *PurchaseService) find(ctx context.Context, publicID string) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	if purchase == nil {
		return nil, ErrNotFound
	}
	return purchase, nil
}

// List returns a user's purchases filtered by report state
func (s *PurchaseService) List(ctx context.Context, userID string, status model.PurchaseStatus) ([]*model.Purchase, error) {
	switch status {
	case model.PurchaseStatusAll, model.PurchaseStatusOpen, model.PurchaseStatusClosed:
	default:
		return nil, validation.Field("status", validation.MsgInvalidChoice)
	}
	return s.purchaseRepo.ListByPurchaser(ctx, userID, status)
}

// CreateCode adds a purchase code to a survey. A blank code is generated.
func (s *PurchaseService) CreateCode(ctx context.Context, surveyID, code string, uses int) (*model.PurchaseCode, error) {
	if _, err := s.surveys.Get(ctx, surveyID); err != nil {
		return nil, err
	}
	if uses < 0 {
		return nil, validation.Field("usesRemaining", "Ensure this value is greater than or equal to 0.")
	}

	pc := &model.PurchaseCode{
		SurveyID:      surveyID,
		Code:          strings.TrimSpace(code),
		UsesRemaining: uses,
	}
	if pc.Code == "" {
		pc.Code = model.GenerateCode()
	}

	if err := s.codeRepo.Create(ctx, pc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, validation.Field("code", "This code already exists for the survey.")
		}
		return nil, fmt.Errorf("failed to create purchase code: %w", err)
	}
	return pc, nil
}

// ListCodes returns the purchase codes of a survey
func (s *PurchaseService) ListCodes(ctx context.Context, surveyID string) ([]*model.PurchaseCode, error) {
	if _, err := s.surveys.Get(ctx, surveyID); err != nil {
		return nil, err
	}
	return s.codeRepo.ListBySurvey(ctx, surveyID)
}
