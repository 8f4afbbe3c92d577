package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/inventory"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

// applyLedger aplica los movimientos al stock dentro de la transacción del caller:
// bloquea cada fila (GetForUpdate), rechaza salidas que dejarían la existencia negativa,
// recalcula el costo promedio ponderado en las entradas con costo y guarda el movimiento.
// Devuelve los movimientos tal como quedaron registrados (las salidas sin costo toman el promedio vigente).
func applyLedger(
	ctx context.Context,
	movRepo repository.LedgerMovementRepository,
	stockRepo repository.StockRepository,
	costRepo repository.ProductCostRepository,
	movements []entity.LedgerMovement,
) ([]entity.LedgerMovement, error) {
	applied := make([]entity.LedgerMovement, 0, len(movements))
	for _, m := range movements {
		key := repository.StockKey{CompanyID: m.CompanyID, ProductID: m.ProductID, LocationID: m.LocationID, LotID: m.LotID}
		stock, err := stockRepo.GetForUpdate(ctx, key)
		if err != nil {
			return nil, err
		}
		newQty := stock.Quantity.Add(m.QtyDeltaBase)

		if m.QtyDeltaBase.IsNegative() {
			if newQty.IsNegative() {
				return nil, fmt.Errorf("%w: producto %s en %s tiene %s, se requieren %s",
					domain.ErrInsufficientStock, m.ProductID, m.LocationID, stock.Quantity, m.QtyDeltaBase.Neg())
			}
			if m.UnitCost == nil {
				cost, err := costRepo.GetCost(ctx, m.CompanyID, m.ProductID)
				if err != nil {
					return nil, err
				}
				c := cost.Cost
				m.UnitCost = &c
			}
		} else if m.UnitCost != nil {
			cost, err := costRepo.GetCost(ctx, m.CompanyID, m.ProductID)
			if err != nil {
				return nil, err
			}
			newCost := inventory.WeightedAverageCost(stock.Quantity, cost.Cost, m.QtyDeltaBase, *m.UnitCost)
			if err := costRepo.UpdateCost(ctx, m.CompanyID, m.ProductID, newCost); err != nil {
				return nil, err
			}
		}

		stock.Quantity = newQty
		stock.UpdatedAt = m.CreatedAt
		if err := stockRepo.Upsert(ctx, stock); err != nil {
			return nil, err
		}
		if err := movRepo.Create(ctx, &m); err != nil {
			return nil, err
		}
		applied = append(applied, m)
	}
	return applied, nil
}
