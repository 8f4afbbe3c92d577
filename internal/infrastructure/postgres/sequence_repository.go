package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo consecutivos por empresa, prefijo y mes. El upsert con RETURNING es atómico por fila.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next reserva y devuelve el siguiente valor (1 para el primer documento del periodo).
func (r *SequenceRepo) Next(ctx context.Context, companyID, prefix, period string) (int64, error) {
	query := `
		INSERT INTO document_sequences (company_id, prefix, period, last_value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, prefix, period)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, companyID, prefix, period).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return n, nil
}
