package workflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/reconciliation"
)

// CreateTransferCommand datos para crear un traslado entre bodegas.
type CreateTransferCommand struct {
	CompanyID      string
	Actor          string
	FromLocationID string
	ToLocationID   string
	Lines          []LineInput
	Metadata       map[string]any
}

// TemperatureReading medición de temperatura en la recepción (cadena de frío).
type TemperatureReading struct {
	Target   decimal.Decimal
	Observed decimal.Decimal
}

// ReceiveCommand recepción (parcial o total) de un traslado enviado.
type ReceiveCommand struct {
	Actor       string
	Entries     []QuantityEntry
	Temperature *TemperatureReading
}

// CreateTransfer crea el traslado en draft. Origen y destino deben ser distintos.
func (o *Orchestrator) CreateTransfer(ctx context.Context, cmd CreateTransferCommand, conv Converter) (*Result, error) {
	if cmd.FromLocationID == "" || cmd.ToLocationID == "" {
		return nil, domain.NewInvariantViolation(RuleMissingLocation, "from="+cmd.FromLocationID, "to="+cmd.ToLocationID)
	}
	if cmd.FromLocationID == cmd.ToLocationID {
		return nil, domain.NewInvariantViolation(RuleSameLocation, "from="+cmd.FromLocationID, "to="+cmd.ToLocationID)
	}
	header := entity.DocumentHeader{
		CompanyID:      cmd.CompanyID,
		Kind:           entity.KindTransfer,
		FromLocationID: cmd.FromLocationID,
		ToLocationID:   cmd.ToLocationID,
		Metadata:       cmd.Metadata,
	}
	return o.create(ctx, header, cmd.Actor, cmd.Lines, false, conv)
}

// ApproveTransfer draft → approved.
func (o *Orchestrator) ApproveTransfer(doc entity.Document, actor string) (*Result, error) {
	return o.simpleTransition(doc, entity.KindTransfer, entity.StatusApproved, actor, "")
}

// SendTransfer draft/approved → sent.
func (o *Orchestrator) SendTransfer(doc entity.Document, actor string) (*Result, error) {
	return o.simpleTransition(doc, entity.KindTransfer, entity.StatusSent, actor, "")
}

// CancelTransfer draft/approved → cancelled. No libera inventario: nada se reservó.
func (o *Orchestrator) CancelTransfer(doc entity.Document, actor, reason string) (*Result, error) {
	return o.simpleTransition(doc, entity.KindTransfer, entity.StatusCancelled, actor, reason)
}

// ReceiveTransfer suma lo recibido a cada línea (convertido a la unidad de la línea) y recalcula la
// varianza. Con AutoComplete, cuando todo está recibido y sum(real) >= sum(planeado) pasa a completed.
func (o *Orchestrator) ReceiveTransfer(doc entity.Document, cmd ReceiveCommand, conv Converter) (*Result, error) {
	if err := expectKind(doc, entity.KindTransfer); err != nil {
		return nil, err
	}
	if cmd.Actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := requireStatus(doc, "receive", entity.StatusSent); err != nil {
		return nil, err
	}
	policy := o.policies[entity.KindTransfer]
	out := doc.Clone()
	lines, err := record(&out, cmd.Entries, conv, true, policy.Thresholds)
	if err != nil {
		return nil, err
	}

	at := o.now()
	out.Header.ReceivedBy, out.Header.ReceivedAt = cmd.Actor, &at
	out.Header.UpdatedAt = at
	res := &Result{Document: out, Lines: lines}

	if cmd.Temperature != nil {
		dev := reconciliation.ReconcileAbsolute(cmd.Temperature.Target, cmd.Temperature.Observed, policy.MeasurementThresholds)
		res.Temperature = &dev
		if res.Document.Header.Metadata == nil {
			res.Document.Header.Metadata = map[string]any{}
		}
		res.Document.Header.Metadata["temperature_observed"] = dev.Observed.String()
		res.Document.Header.Metadata["temperature_alert"] = string(dev.AlertLevel)
	}

	if policy.AutoComplete && fulfilled(res.Document, "") {
		tr, err := advance(&res.Document, entity.StatusCompleted, cmd.Actor, at)
		if err != nil {
			return nil, err
		}
		res.Transition = tr
	}
	res.Summary = summarize(res.Document)
	return res, nil
}

// PostTransfer completed → posted. Salida del planeado en origen y entrada de lo recibido en destino;
// la diferencia queda como merma en tránsito.
func (o *Orchestrator) PostTransfer(doc entity.Document, actor string, conv Converter) (*Result, error) {
	return o.post(doc, entity.KindTransfer, entity.StatusPosted, actor, conv, o.transferMovements)
}

func (o *Orchestrator) transferMovements(doc entity.Document, conv Converter, actor string, at time.Time) ([]entity.LedgerMovement, error) {
	movements := make([]entity.LedgerMovement, 0, 2*len(doc.Lines))
	for _, l := range doc.Lines {
		out, ok, err := o.movement(doc, l, conv, l.PlannedQty.Neg(), entity.MovementTypeTransferOut, doc.Header.FromLocationID, actor, at)
		if err != nil {
			return nil, err
		}
		if ok {
			movements = append(movements, out)
		}
		in, ok, err := o.movement(doc, l, conv, actualOrZero(l), entity.MovementTypeTransferIn, doc.Header.ToLocationID, actor, at)
		if err != nil {
			return nil, err
		}
		if ok {
			movements = append(movements, in)
		}
	}
	return movements, nil
}
