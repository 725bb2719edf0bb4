package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/payment"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/validation"
)

func TestPurchaseWithProcessor(t *testing.T) {
	e := newEnv(t)
	s := scenarioSurvey()
	s.Cost = model.MustMoney("25.00")
	survey := e.createSurvey(t, s)
	e.processor.receipt = &payment.Receipt{Method: payment.MethodAuthorizeNet, TransactionID: "60123", Amount: s.Cost}

	p, err := e.purchases.Purchase(context.Background(), survey.Slug, buyer, &model.PurchaseRequest{
		CardNumber: "4111111111111111", CardExpiry: "12/30", CardCCV: "123",
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if p.PublicID == "" || p.PurchaserID != buyer.ID || p.SurveyID != survey.ID {
		t.Fatalf("purchase = %+v", p)
	}
	if p.PaymentMethod != payment.MethodAuthorizeNet || p.TransactionID != "60123" {
		t.Fatalf("payment = %s %s", p.PaymentMethod, p.TransactionID)
	}
	if !p.IsOpen() {
		t.Fatal("new purchase should be open")
	}
}

func TestPurchaseDeclinedStoresNothing(t *testing.T) {
	e := newEnv(t)
	survey := e.createSurvey(t, scenarioSurvey())
	e.processor.err = validation.Field(validation.NonField, "This transaction has been declined.")

	_, err := e.purchases.Purchase(context.Background(), survey.Slug, buyer, &model.PurchaseRequest{})
	if _, ok := validation.As(err); !ok {
		t.Fatalf("err = %v, want validation errors", err)
	}
	if n := e.purchaseRepo.Count(); n != 0 {
		t.Fatalf("stored %d purchases", n)
	}
}

func TestPurchaseProcessorFailure(t *testing.T) {
	e := newEnv(t)
	survey := e.createSurvey(t, scenarioSurvey())
	e.processor.err = errBoom

	_, err := e.purchases.Purchase(context.Background(), survey.Slug, buyer, &model.PurchaseRequest{})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v", err)
	}
}

func TestPurchaseUnpublishedSurvey(t *testing.T) {
	e := newEnv(t)
	s := scenarioSurvey()
	s.Published = false
	survey := e.createSurvey(t, s)

	_, err := e.purchases.Purchase(context.Background(), survey.Slug, buyer, &model.PurchaseRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPurchaseWithCode(t *testing.T) {
	e := newEnv(t)
	survey := e.createSurvey(t, scenarioSurvey())
	ctx := context.Background()

	if _, err := e.purchases.CreateCode(ctx, survey.ID, "TEAM-2024", 1); err != nil {
		t.Fatalf("create code: %v", err)
	}

	p, err := e.purchases.Purchase(ctx, survey.Slug, buyer, &model.PurchaseRequest{PurchaseCode: " TEAM-2024 "})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if p.PaymentMethod != model.PaymentMethodCode || p.TransactionID != "TEAM-2024" {
		t.Fatalf("payment = %s %s", p.PaymentMethod, p.TransactionID)
	}
	if e.processor.calls != 0 {
		t.Fatal("processor charged for a code purchase")
	}
	if uses := e.codeRepo.Uses(survey.ID, "TEAM-2024"); uses != 0 {
		t.Fatalf("uses remaining = %d", uses)
	}

	_, err = e.purchases.Purchase(ctx, survey.Slug, buyer, &model.PurchaseRequest{PurchaseCode: "TEAM-2024"})
	errs, ok := validation.As(err)
	if !ok || errs[validation.NonField][0] != MsgCodeInvalid {
		t.Fatalf("exhausted code: err = %v", err)
	}
	if n := e.purchaseRepo.Count(); n != 1 {
		t.Fatalf("stored %d purchases, want 1", n)
	}
}

func TestPurchaseCodeForOtherSurvey(t *testing.T) {
	e := newEnv(t)
	first := e.createSurvey(t, scenarioSurvey())
	other := scenarioSurvey()
	other.Title = "Other"
	second := e.createSurvey(t, other)
	ctx := context.Background()

	if _, err := e.purchases.CreateCode(ctx, first.ID, "ONLY-FIRST", 5); err != nil {
		t.Fatalf("create code: %v", err)
	}

	_, err := e.purchases.Purchase(ctx, second.Slug, buyer, &model.PurchaseRequest{PurchaseCode: "ONLY-FIRST"})
	if _, ok := validation.As(err); !ok {
		t.Fatalf("err = %v, want validation errors", err)
	}
}

func TestPurchaseCodeReleasedWhenCreateFails(t *testing.T) {
	e := newEnv(t)
	survey := e.createSurvey(t, scenarioSurvey())
	ctx := context.Background()
	if _, err := e.purchases.CreateCode(ctx, survey.ID, "RETRY", 2); err != nil {
		t.Fatalf("create code: %v", err)
	}
	e.purchaseRepo.CreateErr = errBoom

	_, err := e.purchases.Purchase(ctx, survey.Slug, buyer, &model.PurchaseRequest{PurchaseCode: "RETRY"})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v", err)
	}
	if uses := e.codeRepo.Uses(survey.ID, "RETRY"); uses != 2 {
		t.Fatalf("uses remaining = %d, want 2", uses)
	}
}

func TestConcurrentCodeRedemption(t *testing.T) {
	e := newEnv(t)
	survey := e.createSurvey(t, scenarioSurvey())
	ctx := context.Background()

	const uses, buyers = 3, 12
	if _, err := e.purchases.CreateCode(ctx, survey.ID, "RACE", uses); err != nil {
		t.Fatalf("create code: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := &model.User{ID: fmt.Sprintf("user-%d", i)}
			_, err := e.purchases.Purchase(ctx, survey.Slug, user, &model.PurchaseRequest{PurchaseCode: "RACE"})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if _, ok := validation.As(err); ok {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	if succeeded != uses || rejected != buyers-uses {
		t.Fatalf("succeeded = %d, rejected = %d", succeeded, rejected)
	}
	if left := e.codeRepo.Uses(survey.ID, "RACE"); left != 0 {
		t.Fatalf("uses remaining = %d", left)
	}
	if n := e.purchaseRepo.Count(); n != uses {
		t.Fatalf("stored %d purchases, want %d", n, uses)
	}
}

func TestCreateCode(t *testing.T) {
	e := newEnv(t)
	survey := e.createSurvey(t, scenarioSurvey())
	ctx := context.Background()

	generated, err := e.purchases.CreateCode(ctx, survey.ID, "", 4)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(generated.Code) != 19 {
		t.Fatalf("generated code = %q", generated.Code)
	}

	if _, err := e.purchases.CreateCode(ctx, survey.ID, generated.Code, 1); err == nil {
		t.Fatal("duplicate code accepted")
	}
	if _, err := e.purchases.CreateCode(ctx, survey.ID, "NEG", -1); err == nil {
		t.Fatal("negative uses accepted")
	}
	if _, err := e.purchases.CreateCode(ctx, "missing", "X", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing survey: err = %v", err)
	}

	codes, err := e.purchases.ListCodes(ctx, survey.ID)
	if err != nil || len(codes) != 1 {
		t.Fatalf("codes = %v, err = %v", codes, err)
	}
}

func TestGetPurchaseChecksOwner(t *testing.T) {
	e := newEnv(t)
	survey := e.createSurvey(t, scenarioSurvey())
	p := e.buy(t, survey, buyer)
	ctx := context.Background()

	if _, err := e.purchases.Get(ctx, p.PublicID, buyer.ID); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := e.purchases.Get(ctx, p.PublicID, "someone-else"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger: err = %v", err)
	}
	if _, err := e.purchases.Get(ctx, "missing", buyer.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: err = %v", err)
	}
}

func TestListPurchases(t *testing.T) {
	e := newEnv(t)
	survey := e.createSurvey(t, scenarioSurvey())
	e.buy(t, survey, buyer)
	e.buy(t, survey, &model.User{ID: "user-2"})
	ctx := context.Background()

	list, err := e.purchases.List(ctx, buyer.ID, model.PurchaseStatusOpen)
	if err != nil || len(list) != 1 {
		t.Fatalf("open = %v, err = %v", list, err)
	}
	list, err = e.purchases.List(ctx, buyer.ID, model.PurchaseStatusClosed)
	if err != nil || len(list) != 0 {
		t.Fatalf("closed = %v, err = %v", list, err)
	}
	if _, err := e.purchases.List(ctx, buyer.ID, "pending"); err == nil {
		t.Fatal("unknown status accepted")
	}
}
