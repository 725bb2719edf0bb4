// Package payment charges purchasers for survey access.
package payment

import (
	"context"
	"fmt"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/config"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
)

// ChargeRequest carries the amount and the card collected from the purchaser
type ChargeRequest struct {
	Amount     model.Money
	Email      string
	FirstName  string
	LastName   string
	CardNumber string
	CardExpiry string // MM/YY
	CardCCV    string
}

// Receipt is what a purchase records about a successful charge
type Receipt struct {
	Method        string
	TransactionID string
	Amount        model.Money
}

// Processor charges a purchaser. Problems the purchaser can fix come back
// as validation.Errors; anything else is a fault.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (*Receipt, error)
}

// Complimentary grants access without charging
type Complimentary struct{}

func (Complimentary) Charge(ctx context.Context, req ChargeRequest) (*Receipt, error) {
	return &Receipt{
		Method:        model.PaymentMethodComplimentary,
		TransactionID: model.PaymentMethodComplimentary,
	}, nil
}

// New returns the processor selected by cfg.Provider
func New(cfg *config.PaymentConfig, log *logger.Logger) (Processor, error) {
	switch cfg.Provider {
	case "", config.PaymentProviderComplimentary:
		return Complimentary{}, nil
	case config.PaymentProviderAuthorizeNet:
		if !cfg.IsEnabled() {
			return nil, fmt.Errorf("payment provider %q requires AUTHORIZE_NET_LOGIN and AUTHORIZE_NET_TRANS_KEY", cfg.Provider)
		}
		return NewGateway(cfg, log), nil
	}
	return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
}
