package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una liquidación a propietario.
const (
	SettlementStatusPending    = "pending"
	SettlementStatusProcessing = "processing"
	SettlementStatusCompleted  = "completed"
	SettlementStatusFailed     = "failed"
)

// Settlement liquidación periódica a un propietario: bruto cobrado menos
// comisión y retenciones. Invariante: una por (OwnerID, Period); el recálculo
// upsertea liquidaciones pending/processing pero nunca pisa una completed.
type Settlement struct {
	ID                 string
	OwnerID            string
	Period             string // YYYY-MM
	GrossAmount        decimal.Decimal
	CommissionAmount   decimal.Decimal
	WithholdingsAmount decimal.Decimal
	NetAmount          decimal.Decimal
	Currency           string
	Status             string
	ScheduledDate      time.Time
	ProcessedAt        *time.Time
	TransferReference  string
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
