package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock existencia actual de un producto (y lote) en una ubicación, en unidad base.
type Stock struct {
	CompanyID  string
	ProductID  string
	LocationID string
	LotID      string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}

// ProductCost costo promedio ponderado vigente de un producto.
type ProductCost struct {
	CompanyID string
	ProductID string
	Cost      decimal.Decimal
	UpdatedAt time.Time
}
