package workflow

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/inventory"
)

// CreateProductionCommand orden de producción: líneas input (materiales) y output (terminados).
type CreateProductionCommand struct {
	CompanyID  string
	Actor      string
	LocationID string
	Lines      []LineInput
	Metadata   map[string]any
}

// CreateProductionOrder crea la orden en draft. Requiere al menos un input y un output.
func (o *Orchestrator) CreateProductionOrder(ctx context.Context, cmd CreateProductionCommand, conv Converter) (*Result, error) {
	if cmd.LocationID == "" {
		return nil, domain.NewInvariantViolation(RuleMissingLocation, "location=")
	}
	var inputs, outputs int
	for _, l := range cmd.Lines {
		switch l.Role {
		case entity.RoleInput:
			inputs++
		case entity.RoleOutput:
			outputs++
		}
	}
	if len(cmd.Lines) > 0 && (inputs == 0 || outputs == 0) {
		return nil, domain.NewInvariantViolation(RuleMissingRole, "inputs="+strconv.Itoa(inputs), "outputs="+strconv.Itoa(outputs))
	}
	header := entity.DocumentHeader{
		CompanyID:  cmd.CompanyID,
		Kind:       entity.KindProductionOrder,
		LocationID: cmd.LocationID,
		Metadata:   cmd.Metadata,
	}
	return o.create(ctx, header, cmd.Actor, cmd.Lines, false, conv)
}

// ReleaseProduction draft → released.
func (o *Orchestrator) ReleaseProduction(doc entity.Document, actor string) (*Result, error) {
	return o.simpleTransition(doc, entity.KindProductionOrder, entity.StatusReleased, actor, "")
}

// StartProduction released → in_progress.
func (o *Orchestrator) StartProduction(doc entity.Document, actor string) (*Result, error) {
	return o.simpleTransition(doc, entity.KindProductionOrder, entity.StatusInProgress, actor, "")
}

// CancelProduction draft/released → cancelled.
func (o *Orchestrator) CancelProduction(doc entity.Document, actor, reason string) (*Result, error) {
	return o.simpleTransition(doc, entity.KindProductionOrder, entity.StatusCancelled, actor, reason)
}

// RecordProduction acumula consumo (inputs) y producción (outputs). Con AutoComplete la orden pasa a
// completed cuando todas las líneas tienen cantidad y lo producido alcanza lo planeado.
func (o *Orchestrator) RecordProduction(doc entity.Document, actor string, entries []QuantityEntry, conv Converter) (*Result, error) {
	if err := expectKind(doc, entity.KindProductionOrder); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := requireStatus(doc, "record_production", entity.StatusInProgress); err != nil {
		return nil, err
	}
	policy := o.policies[entity.KindProductionOrder]
	out := doc.Clone()
	lines, err := record(&out, entries, conv, true, policy.Thresholds)
	if err != nil {
		return nil, err
	}
	at := o.now()
	out.Header.UpdatedAt = at
	res := &Result{Document: out, Lines: lines}
	if policy.AutoComplete && len(res.Document.UnrecordedLineIDs()) == 0 && fulfilled(res.Document, entity.RoleOutput) {
		tr, err := advance(&res.Document, entity.StatusCompleted, actor, at)
		if err != nil {
			return nil, err
		}
		res.Transition = tr
	}
	res.Summary = summarize(res.Document)
	return res, nil
}

// CompleteProduction in_progress → completed.
func (o *Orchestrator) CompleteProduction(doc entity.Document, actor string) (*Result, error) {
	return o.complete(doc, entity.KindProductionOrder, actor)
}

// PostProduction completed → posted. Consumo negativo por input, producción positiva por output.
// Si todos los inputs tienen costo, los outputs sin costo propio reciben valor consumido / producido.
func (o *Orchestrator) PostProduction(doc entity.Document, actor string, conv Converter) (*Result, error) {
	return o.post(doc, entity.KindProductionOrder, entity.StatusPosted, actor, conv, o.productionMovements)
}

func (o *Orchestrator) productionMovements(doc entity.Document, conv Converter, actor string, at time.Time) ([]entity.LedgerMovement, error) {
	var movements []entity.LedgerMovement
	consumed := decimal.Zero
	costed := true
	for _, l := range doc.Lines {
		if l.Role != entity.RoleInput {
			continue
		}
		m, ok, err := o.movement(doc, l, conv, actualOrZero(l).Neg(), entity.MovementTypeConsumption, doc.Header.LocationID, actor, at)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if m.UnitCost == nil {
			costed = false
		} else {
			consumed = consumed.Add(m.TotalCost().Neg())
		}
		movements = append(movements, m)
	}

	var outputs []entity.LedgerMovement
	produced := decimal.Zero
	for _, l := range doc.Lines {
		if l.Role != entity.RoleOutput {
			continue
		}
		m, ok, err := o.movement(doc, l, conv, actualOrZero(l), entity.MovementTypeProduction, doc.Header.LocationID, actor, at)
		if err != nil {
			return nil, err
		}
		if ok {
			produced = produced.Add(m.QtyDeltaBase)
			outputs = append(outputs, m)
		}
	}
	if costed {
		if unit, ok := inventory.LineCost(consumed, produced); ok {
			for i := range outputs {
				if outputs[i].UnitCost == nil {
					c := unit
					outputs[i].UnitCost = &c
				}
			}
		}
	}
	return append(movements, outputs...), nil
}
