package entity

import "github.com/shopspring/decimal"

// UOMType tipo físico de una unidad de medida. Solo se convierten unidades del mismo tipo.
type UOMType string

const (
	UOMTypeWeight UOMType = "weight"
	UOMTypeVolume UOMType = "volume"
	UOMTypeCount  UOMType = "count"
	UOMTypeLength UOMType = "length"
	UOMTypeArea   UOMType = "area"
	UOMTypeTime   UOMType = "time"
)

// Valid indica si t es uno de los tipos soportados.
func (t UOMType) Valid() bool {
	switch t {
	case UOMTypeWeight, UOMTypeVolume, UOMTypeCount, UOMTypeLength, UOMTypeArea, UOMTypeTime:
		return true
	}
	return false
}

// UnitOfMeasure unidad de medida (kg, L, und). Inmutable una vez referenciada por un factor o una línea.
type UnitOfMeasure struct {
	ID        string
	CompanyID string
	Code      string // único por empresa
	Type      UOMType
}

// ConversionFactor factor dirigido: ToQty = FromQty * Factor.
// El inverso (1/Factor) se deriva, nunca se almacena.
type ConversionFactor struct {
	FromUomID string
	ToUomID   string
	Factor    decimal.Decimal
}
