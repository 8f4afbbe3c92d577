package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

var _ repository.UOMRepository = (*UOMRepo)(nil)

// UOMRepo lectura de unidades y factores de conversión.
type UOMRepo struct {
	q Querier
}

// NewUOMRepository construye el adaptador. Pasar pool o tx (Querier).
func NewUOMRepository(q Querier) *UOMRepo {
	return &UOMRepo{q: q}
}

func (r *UOMRepo) ListUnits(ctx context.Context, companyID string) ([]entity.UnitOfMeasure, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, code, type FROM units_of_measure
		WHERE company_id = $1 ORDER BY code`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()
	var list []entity.UnitOfMeasure
	for rows.Next() {
		var u entity.UnitOfMeasure
		var typ string
		if err := rows.Scan(&u.ID, &u.CompanyID, &u.Code, &typ); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.Type = entity.UOMType(typ)
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *UOMRepo) ListFactors(ctx context.Context, companyID string) ([]entity.ConversionFactor, error) {
	rows, err := r.q.Query(ctx, `
		SELECT from_uom_id, to_uom_id, factor FROM uom_conversions
		WHERE company_id = $1`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list factors: %w", err)
	}
	defer rows.Close()
	var list []entity.ConversionFactor
	for rows.Next() {
		var f entity.ConversionFactor
		if err := rows.Scan(&f.FromUomID, &f.ToUomID, &f.Factor); err != nil {
			return nil, fmt.Errorf("scan factor: %w", err)
		}
		list = append(list, f)
	}
	return list, rows.Err()
}
