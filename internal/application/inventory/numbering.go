package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-erp/internal/application/workflow"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

var _ workflow.SequenceGenerator = (*NumberGenerator)(nil)

// NumberGenerator numera documentos PREFIX-YYYYMM-00001 con un consecutivo por empresa, prefijo y mes.
// El número se consume aunque la transacción posterior falle: puede haber saltos, nunca repetidos.
type NumberGenerator struct {
	seq repository.SequenceRepository
	now func() time.Time
}

// NewNumberGenerator construye el generador; now nil usa time.Now.
func NewNumberGenerator(seq repository.SequenceRepository, now func() time.Time) *NumberGenerator {
	if now == nil {
		now = time.Now
	}
	return &NumberGenerator{seq: seq, now: now}
}

// NextDocumentNumber reserva el siguiente consecutivo del mes en curso.
func (g *NumberGenerator) NextDocumentNumber(ctx context.Context, prefix, companyID string) (string, error) {
	at := g.now()
	n, err := g.seq.Next(ctx, companyID, prefix, at.Format("200601"))
	if err != nil {
		return "", fmt.Errorf("consecutivo %s: %w", prefix, err)
	}
	return entity.FormatDocumentNumber(prefix, at, n), nil
}
