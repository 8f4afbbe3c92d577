package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineRequest línea de un documento al crearlo.
type LineRequest struct {
	ProductID  string           `json:"product_id" validate:"required"`
	LotID      string           `json:"lot_id,omitempty"`
	UomID      string           `json:"uom_id" validate:"required"`
	BaseUomID  string           `json:"base_uom_id,omitempty"`
	Role       string           `json:"role,omitempty" validate:"omitempty,oneof=input output"`
	PlannedQty decimal.Decimal  `json:"planned_qty"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	FromLocationID string         `json:"from_location_id" validate:"required"`
	ToLocationID   string         `json:"to_location_id" validate:"required"`
	Lines          []LineRequest  `json:"lines" validate:"required,min=1,dive"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// CreateReturnRequest body para POST /api/returns.
type CreateReturnRequest struct {
	Direction  string         `json:"direction" validate:"required,oneof=customer supplier"`
	PartnerID  string         `json:"partner_id,omitempty"`
	LocationID string         `json:"location_id" validate:"required"`
	Reason     string         `json:"reason,omitempty" validate:"max=500"`
	Lines      []LineRequest  `json:"lines" validate:"required,min=1,dive"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// CreateStockCountRequest body para POST /api/stock-counts. planned_qty es la existencia según sistema.
type CreateStockCountRequest struct {
	LocationID string         `json:"location_id" validate:"required"`
	Lines      []LineRequest  `json:"lines" validate:"required,min=1,dive"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// CreateProductionRequest body para POST /api/production-orders.
type CreateProductionRequest struct {
	LocationID string         `json:"location_id" validate:"required"`
	Lines      []LineRequest  `json:"lines" validate:"required,min=2,dive"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// QuantityEntryRequest cantidad real de una línea; uom_id vacío = unidad de la línea.
type QuantityEntryRequest struct {
	LineID   string          `json:"line_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	UomID    string          `json:"uom_id,omitempty"`
}

// QuantitiesRequest body de count, quantities y record.
type QuantitiesRequest struct {
	Entries []QuantityEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

// TemperatureRequest lectura de temperatura en la recepción.
type TemperatureRequest struct {
	Target   decimal.Decimal `json:"target"`
	Observed decimal.Decimal `json:"observed"`
}

// ReceiveRequest body para POST /api/transfers/:id/receive.
type ReceiveRequest struct {
	Entries     []QuantityEntryRequest `json:"entries" validate:"required,min=1,dive"`
	Temperature *TemperatureRequest    `json:"temperature,omitempty"`
}

// ReasonRequest body de cancel y reject.
type ReasonRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Respuestas
// ──────────────────────────────────────────────────────────────────────────────

// VarianceResponse varianza calculada de una línea o de una comparación suelta.
type VarianceResponse struct {
	ExpectedQty     decimal.Decimal  `json:"expected_qty"`
	ActualQty       decimal.Decimal  `json:"actual_qty"`
	VarianceQty     decimal.Decimal  `json:"variance_qty"`
	VariancePercent decimal.Decimal  `json:"variance_percent"`
	VarianceValue   *decimal.Decimal `json:"variance_value,omitempty"`
	AlertLevel      string           `json:"alert_level"`
}

// LineResponse línea de documento.
type LineResponse struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"product_id"`
	LotID      string            `json:"lot_id,omitempty"`
	UomID      string            `json:"uom_id"`
	BaseUomID  string            `json:"base_uom_id,omitempty"`
	Role       string            `json:"role,omitempty"`
	PlannedQty decimal.Decimal   `json:"planned_qty"`
	ActualQty  *decimal.Decimal  `json:"actual_qty,omitempty"`
	UnitCost   *decimal.Decimal  `json:"unit_cost,omitempty"`
	Variance   *VarianceResponse `json:"variance,omitempty"`
}

// DocumentResponse cabecera y líneas.
type DocumentResponse struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	Number         string         `json:"number"`
	Status         string         `json:"status"`
	FromLocationID string         `json:"from_location_id,omitempty"`
	ToLocationID   string         `json:"to_location_id,omitempty"`
	LocationID     string         `json:"location_id,omitempty"`
	Direction      string         `json:"direction,omitempty"`
	PartnerID      string         `json:"partner_id,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	RequestedBy    string         `json:"requested_by,omitempty"`
	ApprovedBy     string         `json:"approved_by,omitempty"`
	PostedBy       string         `json:"posted_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	PostedAt       *time.Time     `json:"posted_at,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Lines          []LineResponse `json:"lines"`
}

// TransitionResponse cambio de estado aplicado.
type TransitionResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SummaryResponse agregado de varianzas del documento.
type SummaryResponse struct {
	Lines         int             `json:"lines"`
	ExpectedQty   decimal.Decimal `json:"expected_qty"`
	ActualQty     decimal.Decimal `json:"actual_qty"`
	VarianceQty   decimal.Decimal `json:"variance_qty"`
	VarianceValue decimal.Decimal `json:"variance_value"`
	WorstLevel    string          `json:"worst_level"`
}

// TemperatureResponse desviación de temperatura en la recepción.
type TemperatureResponse struct {
	Target     decimal.Decimal `json:"target"`
	Observed   decimal.Decimal `json:"observed"`
	Deviation  decimal.Decimal `json:"deviation"`
	AlertLevel string          `json:"alert_level"`
}

// MovementResponse movimiento del libro de inventario.
type MovementResponse struct {
	ID           string           `json:"id"`
	ProductID    string           `json:"product_id"`
	LocationID   string           `json:"location_id"`
	LotID        string           `json:"lot_id,omitempty"`
	Type         string           `json:"type"`
	QtyDeltaBase decimal.Decimal  `json:"qty_delta_base"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// DocumentResultResponse respuesta de toda operación sobre un documento.
type DocumentResultResponse struct {
	Document    DocumentResponse     `json:"document"`
	Transition  *TransitionResponse  `json:"transition,omitempty"`
	Summary     *SummaryResponse     `json:"summary,omitempty"`
	Movements   []MovementResponse   `json:"movements,omitempty"`
	Temperature *TemperatureResponse `json:"temperature,omitempty"`
}

// ConvertRequest body para POST /api/uoms/convert.
type ConvertRequest struct {
	Quantity  decimal.Decimal `json:"quantity"`
	FromUomID string          `json:"from_uom_id" validate:"required"`
	ToUomID   string          `json:"to_uom_id" validate:"required"`
}

// ConvertResponse resultado de la conversión.
type ConvertResponse struct {
	Quantity decimal.Decimal `json:"quantity"`
	UomID    string          `json:"uom_id"`
}

// ReconcileRequest body para POST /api/reconcile. kind elige los umbrales; vacío = stock_count.
type ReconcileRequest struct {
	Kind     string           `json:"kind,omitempty" validate:"omitempty,oneof=transfer return_order stock_count production_order"`
	Expected decimal.Decimal  `json:"expected"`
	Actual   decimal.Decimal  `json:"actual"`
	UnitCost *decimal.Decimal `json:"unit_cost,omitempty"`
}
