package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PaymentMethodCode          = "Purchase Code"
	PaymentMethodComplimentary = "Complimentary"
)

// PurchaseStatus filters purchases by report state
type PurchaseStatus string

const (
	PurchaseStatusAll    PurchaseStatus = ""
	PurchaseStatusOpen   PurchaseStatus = "open"   // No report generated yet
	PurchaseStatusClosed PurchaseStatus = "closed" // Report generated at least once
)

// Purchase is one user's paid or redeemed access to a survey
type Purchase struct {
	ID              string     `json:"id" bson:"_id,omitempty"`
	PublicID        string     `json:"publicId" bson:"publicId"`
	SurveyID        string     `json:"surveyId" bson:"surveyId"`
	PurchaserID     string     `json:"purchaserId" bson:"purchaserId"`
	TransactionID   string     `json:"transactionId" bson:"transactionId"`
	PaymentMethod   string     `json:"paymentMethod" bson:"paymentMethod"`
	Amount          Money      `json:"amount" bson:"amount"`
	Notes           string     `json:"notes" bson:"notes"`
	ReportGenerated *time.Time `json:"reportGenerated,omitempty" bson:"reportGenerated,omitempty"`
	ReportCache     string     `json:"-" bson:"reportCache"` // Serialized Report, empty until generated
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// IsOpen is true until a report has been generated
func (p *Purchase) IsOpen() bool {
	return p.ReportGenerated == nil
}

// CachedReport decodes ReportCache; nil when no report was generated
func (p *Purchase) CachedReport() (*Report, error) {
	if p.ReportCache == "" {
		return nil, nil
	}
	var report Report
	if err := json.Unmarshal([]byte(p.ReportCache), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// PurchaseCode grants access to a survey without paying
type PurchaseCode struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	SurveyID      string    `json:"surveyId" bson:"surveyId"`
	Code          string    `json:"code" bson:"code"`
	UsesRemaining int       `json:"usesRemaining" bson:"usesRemaining"` // Never negative
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// GenerateCode returns a 19 character code cut from a random UUID
func GenerateCode() string {
	return strings.Trim(uuid.New().String(), "-")[4:23]
}

// PurchaseRequest is the request body for buying a survey
type PurchaseRequest struct {
	PurchaseCode string `json:"purchaseCode"`
	CardNumber   string `json:"cardNumber"`
	CardExpiry   string `json:"cardExpiry"` // MM/YY
	CardCCV      string `json:"cardCcv"`
}
