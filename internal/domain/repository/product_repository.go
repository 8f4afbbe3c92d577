package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// ProductCostRepository puerto para leer y actualizar el costo promedio ponderado (DIP).
type ProductCostRepository interface {
	// GetCost devuelve costo cero si el producto aún no tiene costo registrado.
	GetCost(ctx context.Context, companyID, productID string) (*entity.ProductCost, error)
	UpdateCost(ctx context.Context, companyID, productID string, cost decimal.Decimal) error
}
