package workflow

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// CreateReturnCommand datos para una devolución de cliente o a proveedor.
type CreateReturnCommand struct {
	CompanyID  string
	Actor      string
	Direction  entity.ReturnDirection
	PartnerID  string
	LocationID string
	Reason     string
	Lines      []LineInput
	Metadata   map[string]any
}

// CreateReturnOrder crea la devolución en requested.
func (o *Orchestrator) CreateReturnOrder(ctx context.Context, cmd CreateReturnCommand, conv Converter) (*Result, error) {
	if cmd.Direction != entity.ReturnFromCustomer && cmd.Direction != entity.ReturnToSupplier {
		return nil, domain.NewInvariantViolation(RuleInvalidDirection, "direction="+string(cmd.Direction))
	}
	if cmd.LocationID == "" {
		return nil, domain.NewInvariantViolation(RuleMissingLocation, "location=")
	}
	header := entity.DocumentHeader{
		CompanyID:  cmd.CompanyID,
		Kind:       entity.KindReturnOrder,
		Direction:  cmd.Direction,
		PartnerID:  cmd.PartnerID,
		LocationID: cmd.LocationID,
		Reason:     cmd.Reason,
		Metadata:   cmd.Metadata,
	}
	return o.create(ctx, header, cmd.Actor, cmd.Lines, false, conv)
}

// ApproveReturn requested → approved.
func (o *Orchestrator) ApproveReturn(doc entity.Document, actor string) (*Result, error) {
	return o.simpleTransition(doc, entity.KindReturnOrder, entity.StatusApproved, actor, "")
}

// RejectReturn requested → rejected (terminal).
func (o *Orchestrator) RejectReturn(doc entity.Document, actor, reason string) (*Result, error) {
	return o.simpleTransition(doc, entity.KindReturnOrder, entity.StatusRejected, actor, reason)
}

// RecordReturnQuantities registra (reemplazando) la cantidad efectivamente devuelta por línea.
func (o *Orchestrator) RecordReturnQuantities(doc entity.Document, actor string, entries []QuantityEntry, conv Converter) (*Result, error) {
	if err := expectKind(doc, entity.KindReturnOrder); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := requireStatus(doc, "record_quantities", entity.StatusApproved); err != nil {
		return nil, err
	}
	policy := o.policies[entity.KindReturnOrder]
	out := doc.Clone()
	lines, err := record(&out, entries, conv, false, policy.Thresholds)
	if err != nil {
		return nil, err
	}
	at := o.now()
	out.Header.UpdatedAt = at
	res := &Result{Document: out, Lines: lines}
	if policy.AutoComplete && fulfilled(res.Document, "") {
		tr, err := advance(&res.Document, entity.StatusCompleted, actor, at)
		if err != nil {
			return nil, err
		}
		res.Transition = tr
	}
	res.Summary = summarize(res.Document)
	return res, nil
}

// PostReturn approved → posted. Cliente: entrada positiva; proveedor: salida negativa.
func (o *Orchestrator) PostReturn(doc entity.Document, actor string, conv Converter) (*Result, error) {
	return o.post(doc, entity.KindReturnOrder, entity.StatusPosted, actor, conv, o.returnMovements)
}

// CompleteReturn approved → completed: cierre manual sin afectar el libro (p. ej. nota crédito sin reingreso).
func (o *Orchestrator) CompleteReturn(doc entity.Document, actor string) (*Result, error) {
	return o.complete(doc, entity.KindReturnOrder, actor)
}

func (o *Orchestrator) returnMovements(doc entity.Document, conv Converter, actor string, at time.Time) ([]entity.LedgerMovement, error) {
	typ := entity.MovementTypeReturnIn
	if doc.Header.Direction == entity.ReturnToSupplier {
		typ = entity.MovementTypeReturnOut
	}
	movements := make([]entity.LedgerMovement, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		qty := actualOrZero(l)
		if doc.Header.Direction == entity.ReturnToSupplier {
			qty = qty.Neg()
		}
		m, ok, err := o.movement(doc, l, conv, qty, typ, doc.Header.LocationID, actor, at)
		if err != nil {
			return nil, err
		}
		if ok {
			movements = append(movements, m)
		}
	}
	return movements, nil
}
