package repository

import (
	"context"

	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// StockKey identifica una fila de existencia.
type StockKey struct {
	CompanyID  string
	ProductID  string
	LocationID string
	LotID      string
}

// StockRepository define el puerto para consultar/actualizar stock por ubicación+producto+lote.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve existencia cero (no nil) si la fila no existe.
	Get(ctx context.Context, key StockKey) (*entity.Stock, error)
	// GetForUpdate igual que Get pero bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, key StockKey) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
}
