/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Each request type carries a Validate method that rejects malformed input
  before it reaches the engine. The engine re-validates its own invariants
  (cadence minimums, state transitions); validation here is about shape -
  required fields present, numbers positive, enums parseable.

SEE ALSO:
  - handlers.go: Uses these types
  - accrual/progress.go: The source of every derived number below
*/
package api

import (
	"errors"
	"time"

	"github.com/kopichu/savings-engine/accrual"
	"github.com/kopichu/savings-engine/catalog"
	"github.com/kopichu/savings-engine/subscription"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateSaverRequest is the request to register a saver account.
type CreateSaverRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r CreateSaverRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

// OpenSubscriptionRequest is the request to start saving toward a phone.
type OpenSubscriptionRequest struct {
	SaverID string  `json:"saver_id"`
	PhoneID string  `json:"phone_id"`
	Cadence string  `json:"cadence"`
	Amount  float64 `json:"amount"`
}

func (r OpenSubscriptionRequest) Validate() (accrual.Cadence, accrual.Money, error) {
	if r.SaverID == "" {
		return "", accrual.Zero, errors.New("saver_id is required")
	}
	if r.PhoneID == "" {
		return "", accrual.Zero, errors.New("phone_id is required")
	}
	cadence, err := accrual.ParseCadence(r.Cadence)
	if err != nil {
		return "", accrual.Zero, err
	}
	if r.Amount <= 0 {
		return "", accrual.Zero, errors.New("amount must be positive")
	}
	return cadence, accrual.NewMoneyFromFloat(r.Amount), nil
}

// RecordPaymentRequest is a manual top-up. PaymentID is the client's
// idempotency key; retries with the same ID are applied once.
type RecordPaymentRequest struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
}

func (r RecordPaymentRequest) Validate() (accrual.Money, error) {
	if r.PaymentID == "" {
		return accrual.Zero, errors.New("payment_id is required")
	}
	if r.Amount <= 0 {
		return accrual.Zero, errors.New("amount must be positive")
	}
	return accrual.NewMoneyFromFloat(r.Amount), nil
}

// UpdatePlanRequest changes the payment amount and cadence of an open
// subscription.
type UpdatePlanRequest struct {
	Cadence string  `json:"cadence"`
	Amount  float64 `json:"amount"`
}

func (r UpdatePlanRequest) Validate() (accrual.Cadence, accrual.Money, error) {
	cadence, err := accrual.ParseCadence(r.Cadence)
	if err != nil {
		return "", accrual.Zero, err
	}
	if r.Amount <= 0 {
		return "", accrual.Zero, errors.New("amount must be positive")
	}
	return cadence, accrual.NewMoneyFromFloat(r.Amount), nil
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SaverDTO represents a saver account.
type SaverDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func toSaverDTO(s subscription.Saver) SaverDTO {
	return SaverDTO{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// PhoneDTO represents a catalog entry.
type PhoneDTO struct {
	ID             string                 `json:"id"`
	Brand          string                 `json:"brand"`
	Model          string                 `json:"model"`
	Name           string                 `json:"name"`
	Price          float64                `json:"price"`
	Image          string                 `json:"image,omitempty"`
	Description    string                 `json:"description,omitempty"`
	Specifications catalog.Specifications `json:"specifications"`
	Category       string                 `json:"category"`
	InStock        bool                   `json:"in_stock"`
	Popularity     int                    `json:"popularity"`
}

func toPhoneDTO(p catalog.Phone) PhoneDTO {
	return PhoneDTO{
		ID:             p.ID,
		Brand:          p.Brand,
		Model:          p.Model,
		Name:           p.Name(),
		Price:          p.Price.Float64(),
		Image:          p.Image,
		Description:    p.Description,
		Specifications: p.Specifications,
		Category:       string(p.Category),
		InStock:        p.InStock,
		Popularity:     p.Popularity,
	}
}

func toPhoneDTOs(phones []catalog.Phone) []PhoneDTO {
	out := make([]PhoneDTO, len(phones))
	for i, p := range phones {
		out[i] = toPhoneDTO(p)
	}
	return out
}

// SubscriptionDTO represents a subscription snapshot.
type SubscriptionDTO struct {
	ID            string  `json:"id"`
	SaverID       string  `json:"saver_id"`
	PhoneID       string  `json:"phone_id"`
	TargetPrice   float64 `json:"target_price"`
	Cadence       string  `json:"cadence"`
	PaymentAmount float64 `json:"payment_amount"`
	TotalPaid     float64 `json:"total_paid"`
	Status        string  `json:"status"`
	LastPaymentAt *string `json:"last_payment_at,omitempty"`
	NextDueAt     *string `json:"next_due_at,omitempty"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func toSubscriptionDTO(sub subscription.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:            sub.ID,
		SaverID:       sub.SaverID,
		PhoneID:       sub.PhoneID,
		TargetPrice:   sub.Plan.TargetPrice.Float64(),
		Cadence:       sub.Plan.Cadence.String(),
		PaymentAmount: sub.Plan.PaymentAmount.Float64(),
		TotalPaid:     sub.Ledger.TotalPaid.Float64(),
		Status:        string(sub.Ledger.Status),
		LastPaymentAt: formatTimePtr(sub.Ledger.LastPaymentDate),
		NextDueAt:     formatTimePtr(sub.Ledger.NextDueDate),
		CompletedAt:   formatTimePtr(sub.Ledger.CompletedAt),
		CreatedAt:     sub.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ProgressDTO is the presentation summary. Every number here comes from the
// progress calculator; clients display, never re-derive.
type ProgressDTO struct {
	PercentComplete     float64  `json:"percent_complete"`
	TotalPaid           float64  `json:"total_paid"`
	Remaining           float64  `json:"remaining"`
	PaymentsRemaining   int      `json:"payments_remaining"`
	EstimatedCompletion string   `json:"estimated_completion"`
	EstimatedMonths     int      `json:"estimated_months"`
	Achievements        []string `json:"achievements"`
}

func toProgressDTO(p accrual.Progress) ProgressDTO {
	achievements := make([]string, len(p.Achievements))
	for i, a := range p.Achievements {
		achievements[i] = string(a)
	}
	return ProgressDTO{
		PercentComplete:     p.PercentComplete,
		TotalPaid:           p.TotalPaid.Float64(),
		Remaining:           p.Remaining.Float64(),
		PaymentsRemaining:   p.PaymentsRemaining,
		EstimatedCompletion: p.EstimatedCompletion.UTC().Format(time.RFC3339),
		EstimatedMonths:     p.EstimatedMonths,
		Achievements:        achievements,
	}
}

// SubscriptionWithProgressDTO pairs a snapshot with its derived progress.
type SubscriptionWithProgressDTO struct {
	Subscription SubscriptionDTO `json:"subscription"`
	Progress     ProgressDTO     `json:"progress"`
}

// PaymentDTO represents one applied payment.
type PaymentDTO struct {
	ID        string  `json:"id"`
	Key       string  `json:"key"`
	Requested float64 `json:"requested"`
	Applied   float64 `json:"applied"`
	Source    string  `json:"source"`
	PaidAt    string  `json:"paid_at"`
}

func toPaymentDTO(p subscription.Payment) PaymentDTO {
	return PaymentDTO{
		ID:        p.ID,
		Key:       p.Key,
		Requested: p.Requested.Float64(),
		Applied:   p.Applied.Float64(),
		Source:    string(p.Source),
		PaidAt:    p.PaidAt.UTC().Format(time.RFC3339),
	}
}

// SaverSummaryDTO aggregates a saver's subscriptions for the home screen.
type SaverSummaryDTO struct {
	Saver         SaverDTO                      `json:"saver"`
	TotalInvested float64                       `json:"total_invested"`
	Subscriptions []SubscriptionWithProgressDTO `json:"subscriptions"`
}

// SeedResponse reports how many phones the seed call wrote.
type SeedResponse struct {
	Seeded int `json:"seeded"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
