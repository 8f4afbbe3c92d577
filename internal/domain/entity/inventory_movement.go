package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de inventario.
const (
	MovementTypeTransferOut = "TRANSFER_OUT" // salida de bodega origen
	MovementTypeTransferIn  = "TRANSFER_IN"  // entrada en bodega destino
	MovementTypeReturnIn    = "RETURN_IN"    // devolución de cliente
	MovementTypeReturnOut   = "RETURN_OUT"   // devolución a proveedor
	MovementTypeAdjustment  = "ADJUSTMENT"   // diferencia de conteo físico
	MovementTypeConsumption = "CONSUMPTION"  // material consumido en producción
	MovementTypeProduction  = "PRODUCTION"   // producto terminado
)

// LedgerMovement delta de cantidad (en unidad base) que el colaborador del libro aplica al stock.
// RefType/RefID apuntan al documento que lo originó.
type LedgerMovement struct {
	ID           string
	CompanyID    string
	ProductID    string
	LocationID   string
	LotID        string // vacío si no aplica
	Type         string
	QtyDeltaBase decimal.Decimal // positivo entrada, negativo salida
	UnitCost     *decimal.Decimal
	RefType      DocumentKind
	RefID        string
	Note         string
	CreatedBy    string
	CreatedAt    time.Time
}

// TotalCost costo del movimiento; cero si no hay costo unitario.
func (m LedgerMovement) TotalCost() decimal.Decimal {
	if m.UnitCost == nil {
		return decimal.Zero
	}
	return m.QtyDeltaBase.Mul(*m.UnitCost)
}
