package workflow

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// CreateStockCountCommand conteo físico de una ubicación. PlannedQty de cada línea es la existencia
// según sistema al momento de crear el conteo (puede ser cero).
type CreateStockCountCommand struct {
	CompanyID  string
	Actor      string
	LocationID string
	Lines      []LineInput
	Metadata   map[string]any
}

// CreateStockCount crea el conteo en draft.
func (o *Orchestrator) CreateStockCount(ctx context.Context, cmd CreateStockCountCommand, conv Converter) (*Result, error) {
	if cmd.LocationID == "" {
		return nil, domain.NewInvariantViolation(RuleMissingLocation, "location=")
	}
	header := entity.DocumentHeader{
		CompanyID:  cmd.CompanyID,
		Kind:       entity.KindStockCount,
		LocationID: cmd.LocationID,
		Metadata:   cmd.Metadata,
	}
	return o.create(ctx, header, cmd.Actor, cmd.Lines, true, conv)
}

// StartStockCount draft → in_progress.
func (o *Orchestrator) StartStockCount(doc entity.Document, actor string) (*Result, error) {
	return o.simpleTransition(doc, entity.KindStockCount, entity.StatusInProgress, actor, "")
}

// CountLines registra lo contado (un reconteo reemplaza el valor anterior). Con AutoComplete el
// conteo pasa a completed cuando todas las líneas tienen cantidad.
func (o *Orchestrator) CountLines(doc entity.Document, actor string, entries []QuantityEntry, conv Converter) (*Result, error) {
	if err := expectKind(doc, entity.KindStockCount); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := requireStatus(doc, "count", entity.StatusInProgress); err != nil {
		return nil, err
	}
	policy := o.policies[entity.KindStockCount]
	out := doc.Clone()
	lines, err := record(&out, entries, conv, false, policy.Thresholds)
	if err != nil {
		return nil, err
	}
	at := o.now()
	out.Header.UpdatedAt = at
	res := &Result{Document: out, Lines: lines}
	if policy.AutoComplete && len(res.Document.UnrecordedLineIDs()) == 0 {
		tr, err := advance(&res.Document, entity.StatusCompleted, actor, at)
		if err != nil {
			return nil, err
		}
		res.Transition = tr
	}
	res.Summary = summarize(res.Document)
	return res, nil
}

// CompleteStockCount in_progress → completed; exige todas las líneas contadas salvo AllowPartial.
func (o *Orchestrator) CompleteStockCount(doc entity.Document, actor string) (*Result, error) {
	return o.complete(doc, entity.KindStockCount, actor)
}

// PostStockCount completed → posted. Verifica primero las líneas sin contar (MissingActualQuantity)
// y luego la transición; emite un ajuste por cada varianza distinta de cero.
func (o *Orchestrator) PostStockCount(doc entity.Document, actor string, conv Converter) (*Result, error) {
	return o.post(doc, entity.KindStockCount, entity.StatusPosted, actor, conv, o.stockCountMovements)
}

func (o *Orchestrator) stockCountMovements(doc entity.Document, conv Converter, actor string, at time.Time) ([]entity.LedgerMovement, error) {
	var movements []entity.LedgerMovement
	for _, l := range doc.Lines {
		if l.ActualQty == nil {
			continue
		}
		delta := l.ActualQty.Sub(l.PlannedQty)
		m, ok, err := o.movement(doc, l, conv, delta, entity.MovementTypeAdjustment, doc.Header.LocationID, actor, at)
		if err != nil {
			return nil, err
		}
		if ok {
			movements = append(movements, m)
		}
	}
	return movements, nil
}
