package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/reconciliation"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository sobre PostgreSQL (usable con pool o tx).
// Create y Save escriben cabecera y líneas; deben correr dentro de una transacción.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, company_id, kind, number, status,
	from_location_id, to_location_id, location_id, direction, partner_id, reason,
	requested_by, approved_by, sent_by, received_by, reviewed_by, posted_by,
	created_at, updated_at, approved_at, rejected_at, sent_at, received_at,
	released_at, started_at, completed_at, posted_at, cancelled_at, metadata`

func headerArgs(h *entity.DocumentHeader) []any {
	return []any{
		h.ID, h.CompanyID, string(h.Kind), h.Number, string(h.Status),
		h.FromLocationID, h.ToLocationID, h.LocationID, string(h.Direction), h.PartnerID, h.Reason,
		h.RequestedBy, h.ApprovedBy, h.SentBy, h.ReceivedBy, h.ReviewedBy, h.PostedBy,
		h.CreatedAt, h.UpdatedAt, h.ApprovedAt, h.RejectedAt, h.SentAt, h.ReceivedAt,
		h.ReleasedAt, h.StartedAt, h.CompletedAt, h.PostedAt, h.CancelledAt, h.Metadata,
	}
}

// Create persiste un documento nuevo con sus líneas.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	query := `INSERT INTO inventory_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`
	if _, err := r.q.Exec(ctx, query, headerArgs(&doc.Header)...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return r.insertLines(ctx, doc)
}

// GetByID obtiene cabecera y líneas (en el orden de creación).
func (r *DocumentRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM inventory_documents WHERE id = $1 AND company_id = $2`
	var (
		doc          entity.Document
		kind, status string
		direction    string
	)
	h := &doc.Header
	err := r.q.QueryRow(ctx, query, id, companyID).Scan(
		&h.ID, &h.CompanyID, &kind, &h.Number, &status,
		&h.FromLocationID, &h.ToLocationID, &h.LocationID, &direction, &h.PartnerID, &h.Reason,
		&h.RequestedBy, &h.ApprovedBy, &h.SentBy, &h.ReceivedBy, &h.ReviewedBy, &h.PostedBy,
		&h.CreatedAt, &h.UpdatedAt, &h.ApprovedAt, &h.RejectedAt, &h.SentAt, &h.ReceivedAt,
		&h.ReleasedAt, &h.StartedAt, &h.CompletedAt, &h.PostedAt, &h.CancelledAt, &h.Metadata,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	h.Kind = entity.DocumentKind(kind)
	h.Status = entity.Status(status)
	h.Direction = entity.ReturnDirection(direction)

	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return &doc, nil
}

// Save actualiza el documento solo si su estado almacenado sigue siendo expectedStatus.
func (r *DocumentRepo) Save(ctx context.Context, doc *entity.Document, expectedStatus entity.Status) error {
	h := &doc.Header
	query := `
		UPDATE inventory_documents SET
			status = $3, reason = $4, approved_by = $5, sent_by = $6, received_by = $7, reviewed_by = $8, posted_by = $9,
			updated_at = $10, approved_at = $11, rejected_at = $12, sent_at = $13, received_at = $14,
			released_at = $15, started_at = $16, completed_at = $17, posted_at = $18, cancelled_at = $19, metadata = $20
		WHERE id = $1 AND company_id = $2 AND status = $21`
	tag, err := r.q.Exec(ctx, query,
		h.ID, h.CompanyID, string(h.Status), h.Reason, h.ApprovedBy, h.SentBy, h.ReceivedBy, h.ReviewedBy, h.PostedBy,
		h.UpdatedAt, h.ApprovedAt, h.RejectedAt, h.SentAt, h.ReceivedAt,
		h.ReleasedAt, h.StartedAt, h.CompletedAt, h.PostedAt, h.CancelledAt, h.Metadata,
		string(expectedStatus),
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var current string
		err := r.q.QueryRow(ctx, `SELECT status FROM inventory_documents WHERE id = $1 AND company_id = $2`, h.ID, h.CompanyID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check document status: %w", err)
		}
		return fmt.Errorf("%w: documento %s está en %s, se esperaba %s", domain.ErrConflict, h.ID, current, expectedStatus)
	}

	batch := &pgx.Batch{}
	for _, l := range doc.Lines {
		vq, vp, vv, level := varianceArgs(l.Variance)
		batch.Queue(`
			UPDATE inventory_document_lines SET
				actual_qty = $2, unit_cost = $3, variance_qty = $4, variance_percent = $5, variance_value = $6, alert_level = $7
			WHERE id = $1`,
			l.ID, l.ActualQty, l.UnitCost, vq, vp, vv, level)
	}
	return execBatch(ctx, r.q, batch, "update document line")
}

func (r *DocumentRepo) insertLines(ctx context.Context, doc *entity.Document) error {
	batch := &pgx.Batch{}
	for i, l := range doc.Lines {
		vq, vp, vv, level := varianceArgs(l.Variance)
		batch.Queue(`
			INSERT INTO inventory_document_lines (id, document_id, position, product_id, lot_id, uom_id, base_uom_id, role,
				planned_qty, actual_qty, unit_cost, variance_qty, variance_percent, variance_value, alert_level)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			l.ID, doc.Header.ID, i, l.ProductID, l.LotID, l.UomID, l.BaseUomID, string(l.Role),
			l.PlannedQty, l.ActualQty, l.UnitCost, vq, vp, vv, level)
	}
	return execBatch(ctx, r.q, batch, "insert document line")
}

func (r *DocumentRepo) lines(ctx context.Context, documentID string) ([]entity.DocumentLine, error) {
	query := `
		SELECT id, document_id, product_id, lot_id, uom_id, base_uom_id, role, planned_qty, actual_qty, unit_cost,
		       variance_qty, variance_percent, variance_value, alert_level
		FROM inventory_document_lines WHERE document_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document lines: %w", err)
	}
	defer rows.Close()
	var list []entity.DocumentLine
	for rows.Next() {
		var (
			l          entity.DocumentLine
			role       string
			vq, vp, vv *decimal.Decimal
			level      *string
		)
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.ProductID, &l.LotID, &l.UomID, &l.BaseUomID, &role,
			&l.PlannedQty, &l.ActualQty, &l.UnitCost, &vq, &vp, &vv, &level); err != nil {
			return nil, fmt.Errorf("scan document line: %w", err)
		}
		l.Role = entity.LineRole(role)
		if vq != nil && vp != nil && level != nil && l.ActualQty != nil {
			l.Variance = &reconciliation.Result{
				ExpectedQty:     l.PlannedQty,
				ActualQty:       *l.ActualQty,
				VarianceQty:     *vq,
				VariancePercent: *vp,
				VarianceValue:   vv,
				AlertLevel:      reconciliation.AlertLevel(*level),
			}
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func varianceArgs(v *reconciliation.Result) (qty, pct, value *decimal.Decimal, level *string) {
	if v == nil {
		return nil, nil, nil, nil
	}
	q, p := v.VarianceQty, v.VariancePercent
	lv := string(v.AlertLevel)
	return &q, &p, v.VarianceValue, &lv
}

func execBatch(ctx context.Context, q Querier, batch *pgx.Batch, op string) error {
	if batch.Len() == 0 {
		return nil
	}
	br := q.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

