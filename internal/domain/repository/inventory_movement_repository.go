package repository

import (
	"context"

	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// LedgerMovementRepository define el puerto de persistencia para movimientos del libro de inventario.
type LedgerMovementRepository interface {
	Create(ctx context.Context, movement *entity.LedgerMovement) error
	// ListByReference movimientos generados por un documento, en orden de creación.
	ListByReference(ctx context.Context, companyID string, refType entity.DocumentKind, refID string) ([]*entity.LedgerMovement, error)
}
