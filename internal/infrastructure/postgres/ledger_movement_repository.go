package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

var _ repository.LedgerMovementRepository = (*LedgerMovementRepo)(nil)

// LedgerMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type LedgerMovementRepo struct {
	q Querier
}

// NewLedgerMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerMovementRepository(q Querier) *LedgerMovementRepo {
	return &LedgerMovementRepo{q: q}
}

// Create persiste un movimiento del libro.
func (r *LedgerMovementRepo) Create(ctx context.Context, m *entity.LedgerMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO ledger_movements (id, company_id, product_id, location_id, lot_id, type, qty_delta_base, unit_cost,
			ref_type, ref_id, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, m.ProductID, m.LocationID, m.LotID, m.Type, m.QtyDeltaBase, m.UnitCost,
		string(m.RefType), m.RefID, m.Note, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create ledger movement: %w", err)
	}
	return nil
}

// ListByReference movimientos de un documento en orden de creación.
func (r *LedgerMovementRepo) ListByReference(ctx context.Context, companyID string, refType entity.DocumentKind, refID string) ([]*entity.LedgerMovement, error) {
	query := `
		SELECT id, company_id, product_id, location_id, lot_id, type, qty_delta_base, unit_cost,
		       ref_type, ref_id, note, created_by, created_at
		FROM ledger_movements
		WHERE company_id = $1 AND ref_type = $2 AND ref_id = $3
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, companyID, string(refType), refID)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	defer rows.Close()
	var list []*entity.LedgerMovement
	for rows.Next() {
		var m entity.LedgerMovement
		var ref string
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.ProductID, &m.LocationID, &m.LotID, &m.Type, &m.QtyDeltaBase,
			&m.UnitCost, &ref, &m.RefID, &m.Note, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.RefType = entity.DocumentKind(ref)
		list = append(list, &m)
	}
	return list, rows.Err()
}
