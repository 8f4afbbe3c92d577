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

var _ repository.ProductCostRepository = (*ProductCostRepo)(nil)

// ProductCostRepo costo promedio ponderado por producto.
type ProductCostRepo struct {
	q Querier
}

// NewProductCostRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductCostRepository(q Querier) *ProductCostRepo {
	return &ProductCostRepo{q: q}
}

func (r *ProductCostRepo) GetCost(ctx context.Context, companyID, productID string) (*entity.ProductCost, error) {
	c := entity.ProductCost{CompanyID: companyID, ProductID: productID}
	err := r.q.QueryRow(ctx, `
		SELECT cost, updated_at FROM product_costs WHERE company_id = $1 AND product_id = $2`,
		companyID, productID).Scan(&c.Cost, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.Cost = decimal.Zero
			return &c, nil
		}
		return nil, fmt.Errorf("get product cost: %w", err)
	}
	return &c, nil
}

func (r *ProductCostRepo) UpdateCost(ctx context.Context, companyID, productID string, cost decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO product_costs (company_id, product_id, cost, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (company_id, product_id)
		DO UPDATE SET cost = EXCLUDED.cost, updated_at = now()`,
		companyID, productID, cost)
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	return nil
}
