package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/config"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/validation"
)

const (
	MethodAuthorizeNet = "Authorize.Net"

	FieldCardNumber = "cardNumber"
	FieldCardExpiry = "cardExpiry"
	FieldCardCCV    = "cardCcv"

	MsgCardRequired = "Required for card payments"
	MsgCardExpiry   = "Enter the expiry date as MM/YY"

	unknownTransaction = "Unknown"
)

// ErrChargeUnconfirmed means the sale reached the gateway but no reply was
// read, so the card may have been charged. It is never retried.
var ErrChargeUnconfirmed = errors.New("charge outcome unknown")

// Gateway charges cards through an Authorize.Net style JSON API
type Gateway struct {
	endpoint       string
	login          string
	transactionKey string
	httpClient     *http.Client
	maxRetries     int
	retryInterval  time.Duration
	log            *logger.Logger
}

func NewGateway(cfg *config.PaymentConfig, log *logger.Logger) *Gateway {
	return &Gateway{
		endpoint:       cfg.Endpoint,
		login:          cfg.Login,
		transactionKey: cfg.TransactionKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
		maxRetries:    cfg.MaxRetries,
		retryInterval: 500 * time.Millisecond,
		log:           log.Component("payment.gateway"),
	}
}

type merchantAuthentication struct {
	Name           string `json:"name"`
	TransactionKey string `json:"transactionKey"`
}

type creditCard struct {
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CardCode       string `json:"cardCode"`
}

type transactionRequest struct {
	TransactionType string `json:"transactionType"`
	Amount          string `json:"amount"`
	Payment         struct {
		CreditCard creditCard `json:"creditCard"`
	} `json:"payment"`
	Customer struct {
		Email string `json:"email,omitempty"`
	} `json:"customer"`
	BillTo struct {
		FirstName string `json:"firstName,omitempty"`
		LastName  string `json:"lastName,omitempty"`
	} `json:"billTo"`
}

type createTransactionRequest struct {
	CreateTransactionRequest struct {
		MerchantAuthentication merchantAuthentication `json:"merchantAuthentication"`
		TransactionRequest     transactionRequest     `json:"transactionRequest"`
	} `json:"createTransactionRequest"`
}

type gatewayMessage struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type gatewayError struct {
	ErrorCode string `json:"errorCode"`
	ErrorText string `json:"errorText"`
}

type createTransactionResponse struct {
	TransactionResponse *struct {
		ResponseCode string         `json:"responseCode"`
		TransID      string         `json:"transId"`
		Errors       []gatewayError `json:"errors"`
	} `json:"transactionResponse"`
	Messages struct {
		ResultCode string           `json:"resultCode"`
		Message    []gatewayMessage `json:"message"`
	} `json:"messages"`
}

// Charge runs a sale. Free amounts never reach the gateway.
func (g *Gateway) Charge(ctx context.Context, req ChargeRequest) (*Receipt, error) {
	if !req.Amount.IsPositive() {
		return Complimentary{}.Charge(ctx, req)
	}
	if err := validateCard(req); err != nil {
		return nil, err
	}

	var payload createTransactionRequest
	body := &payload.CreateTransactionRequest
	body.MerchantAuthentication = merchantAuthentication{Name: g.login, TransactionKey: g.transactionKey}
	body.TransactionRequest.TransactionType = "authCaptureTransaction"
	body.TransactionRequest.Amount = req.Amount.StringFixed(2)
	body.TransactionRequest.Payment.CreditCard = creditCard{
		CardNumber:     strings.TrimSpace(req.CardNumber),
		ExpirationDate: strings.TrimSpace(req.CardExpiry),
		CardCode:       strings.TrimSpace(req.CardCCV),
	}
	body.TransactionRequest.Customer.Email = req.Email
	body.TransactionRequest.BillTo.FirstName = req.FirstName
	body.TransactionRequest.BillTo.LastName = req.LastName

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}

	resp, err := g.send(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := declineErrors(resp); err != nil {
		g.log.WithError(err).Info("charge declined")
		return nil, err
	}

	transID := unknownTransaction
	if resp.TransactionResponse != nil && resp.TransactionResponse.TransID != "" {
		transID = resp.TransactionResponse.TransID
	}
	g.log.WithField("transaction_id", transID).Info("charge approved")

	return &Receipt{
		Method:        MethodAuthorizeNet,
		TransactionID: transID,
		Amount:        req.Amount,
	}, nil
}

// send posts the transaction. A sale is not idempotent, so only failures
// that prove the gateway never processed it are retried: a failed dial or a
// 503 reply.
func (g *Gateway) send(ctx context.Context, data []byte) (*createTransactionResponse, error) {
	var result createTransactionResponse
	var fatal error
	attempt := 0

	permanent := func(err error) error {
		fatal = err
		return backoff.Permanent(err)
	}

	op := func() error {
		attempt++
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(data))
		if err != nil {
			return permanent(fmt.Errorf("failed to create request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(httpReq)
		if err != nil {
			entry := g.log.WithError(err).WithField("attempt", attempt)
			if notSent(err) {
				entry.Warn("gateway unreachable")
				return err
			}
			entry.Error("gateway reply lost, charge needs reconciliation")
			return permanent(fmt.Errorf("%w: %v", ErrChargeUnconfirmed, err))
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return permanent(fmt.Errorf("%w: %v", ErrChargeUnconfirmed, err))
		}
		if resp.StatusCode == http.StatusServiceUnavailable {
			err := fmt.Errorf("gateway unavailable: %s", string(respBody))
			g.log.WithField("attempt", attempt).Warn(err.Error())
			return err
		}
		if resp.StatusCode >= 500 {
			return permanent(fmt.Errorf("%w: gateway error %d: %s", ErrChargeUnconfirmed, resp.StatusCode, string(respBody)))
		}
		if resp.StatusCode >= 400 {
			return permanent(fmt.Errorf("gateway rejected request %d: %s", resp.StatusCode, string(respBody)))
		}

		// The gateway prefixes JSON replies with a byte order mark
		respBody = bytes.TrimPrefix(respBody, []byte("\xef\xbb\xbf"))
		if err := json.Unmarshal(respBody, &result); err != nil {
			return permanent(fmt.Errorf("failed to parse gateway response: %w", err))
		}
		return nil
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = g.retryInterval
	bo := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(g.maxRetries)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if fatal != nil {
			return nil, fatal
		}
		return nil, fmt.Errorf("max retries exceeded: %w", err)
	}
	return &result, nil
}

// notSent reports whether a transport error happened before any request
// bytes could reach the gateway
func notSent(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func validateCard(req ChargeRequest) error {
	errs := validation.Errors{}
	fields := map[string]string{
		FieldCardNumber: req.CardNumber,
		FieldCardExpiry: req.CardExpiry,
		FieldCardCCV:    req.CardCCV,
	}
	for field, value := range fields {
		if strings.TrimSpace(value) == "" {
			errs.Add(field, MsgCardRequired)
		}
	}
	if expiry := strings.TrimSpace(req.CardExpiry); expiry != "" {
		if _, err := time.Parse("01/06", expiry); err != nil {
			errs.Add(FieldCardExpiry, MsgCardExpiry)
		}
	}
	return errs.Err()
}

// declineErrors maps a rejected transaction to purchaser-facing errors
func declineErrors(resp *createTransactionResponse) error {
	errs := validation.Errors{}
	if tr := resp.TransactionResponse; tr != nil {
		for _, e := range tr.Errors {
			errs.Add(validation.NonField, e.ErrorText)
		}
		if len(errs) == 0 && tr.ResponseCode != "" && tr.ResponseCode != "1" {
			errs.Add(validation.NonField, "The transaction was declined")
		}
	}
	if len(errs) == 0 && !strings.EqualFold(resp.Messages.ResultCode, "Ok") {
		for _, m := range resp.Messages.Message {
			errs.Add(validation.NonField, m.Text)
		}
		if len(errs) == 0 {
			errs.Add(validation.NonField, "The transaction could not be processed")
		}
	}
	return errs.Err()
}
