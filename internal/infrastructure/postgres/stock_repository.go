package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockSelect = `
	SELECT company_id, product_id, location_id, lot_id, quantity, updated_at
	FROM stock WHERE company_id = $1 AND product_id = $2 AND location_id = $3 AND lot_id = $4`

// Get obtiene la existencia de un producto (y lote) en una ubicación.
func (r *StockRepo) Get(ctx context.Context, key repository.StockKey) (*entity.Stock, error) {
	return r.get(ctx, stockSelect, key)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, key repository.StockKey) (*entity.Stock, error) {
	return r.get(ctx, stockSelect+" FOR UPDATE", key)
}

func (r *StockRepo) get(ctx context.Context, query string, key repository.StockKey) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, key.CompanyID, key.ProductID, key.LocationID, key.LotID).Scan(
		&s.CompanyID, &s.ProductID, &s.LocationID, &s.LotID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{
				CompanyID: key.CompanyID, ProductID: key.ProductID, LocationID: key.LocationID, LotID: key.LotID,
				Quantity: decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock.
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (company_id, product_id, location_id, lot_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (company_id, product_id, location_id, lot_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(ctx, query, stock.CompanyID, stock.ProductID, stock.LocationID, stock.LotID, stock.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}
