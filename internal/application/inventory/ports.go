package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad entre el cambio de estado del documento y sus movimientos de inventario.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		docRepo repository.DocumentRepository,
		movRepo repository.LedgerMovementRepository,
		stockRepo repository.StockRepository,
		costRepo repository.ProductCostRepository,
	) error) error
}
