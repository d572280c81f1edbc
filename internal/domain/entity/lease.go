package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frecuencias de pago de un contrato.
const (
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

// Tipos de ajuste de alquiler de un contrato.
const (
	AdjustmentNone  = "none"
	AdjustmentFixed = "fixed"
	AdjustmentICL   = "icl"
	AdjustmentIGPM  = "igpm"
	AdjustmentIPC   = "ipc"
)

// Estados de contrato relevantes para facturación.
const (
	LeaseStatusActive = "active"
)

// Lease contrato de locación (entidad externa: el motor lee sus campos de
// negocio y solo escribe los trackers de facturación y ajuste).
type Lease struct {
	ID              string
	CompanyID       string
	OwnerID         string
	TenantAccountID string
	UnitID          string
	Status          string
	StartDate       time.Time
	EndDate         *time.Time
	RentAmount      decimal.Decimal
	CurrencyCode    string

	// Configuración de facturación.
	PaymentFrequency string
	BillingDay       int // 0 = cualquier día; 1..31 = día fijo del mes
	NextBillingDate  *time.Time
	LastBillingDate  *time.Time

	// Configuración de ajuste.
	AdjustmentType            string
	AdjustmentRate            decimal.Decimal // % para tipo fixed
	AdjustmentFrequencyMonths int
	NextAdjustmentDate        *time.Time
	LastAdjustmentDate        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// HasIndexAdjustment indica si el contrato ajusta por índice publicado.
func (l *Lease) HasIndexAdjustment() bool {
	switch l.AdjustmentType {
	case AdjustmentICL, AdjustmentIGPM, AdjustmentIPC:
		return true
	}
	return false
}
