// Package workflow orquesta el ciclo de vida de los documentos de inventario: combina la máquina
// de estados, el motor de conversión de unidades y el calculador de varianzas.
//
// Cada operación recibe el documento ya hidratado, trabaja sobre una copia y devuelve el resultado
// completo (documento actualizado, transición, varianzas y movimientos del libro) o un error antes
// de que el llamador persista nada. No guarda estado entre llamadas.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/reconciliation"
	"github.com/jhoicas/Inventario-erp/internal/domain/statemachine"
)

// Reglas de dominio propias del orquestador.
const (
	RuleNoLines             = "document_without_lines"
	RuleInvalidLine         = "invalid_line"
	RuleSameLocation        = "same_location_transfer"
	RuleMissingLocation     = "missing_location"
	RuleInvalidDirection    = "invalid_return_direction"
	RuleWrongKind           = "wrong_document_kind"
	RuleOperationNotAllowed = "operation_not_allowed"
	RuleUnknownLine         = "unknown_line"
	RuleDuplicateEntry      = "duplicate_entry"
	RuleNegativeQuantity    = "negative_quantity"
	RuleNoEntries           = "no_entries"
	RuleVarianceMissing     = "variance_not_computed"
	RuleMissingRole         = "production_requires_input_and_output"
	RuleUnknownUom          = "unknown_uom"
)

// SequenceGenerator colaborador externo que entrega números PREFIX-YYYYMM-00001.
type SequenceGenerator interface {
	NextDocumentNumber(ctx context.Context, prefix, companyID string) (string, error)
}

// Converter convierte entre IDs de unidad; lo implementa *uom.Table.
type Converter interface {
	Convert(qty decimal.Decimal, fromUomID, toUomID string) (decimal.Decimal, error)
	Unit(id string) (entity.UnitOfMeasure, bool)
}

// Policy comportamiento configurable por tipo de documento.
type Policy struct {
	// AutoComplete avanza el documento a completed cuando todas las líneas tienen cantidad
	// y sum(real) >= sum(planeado).
	AutoComplete bool
	// AllowPartial permite completar/contabilizar con líneas sin registrar: cuentan como cero en
	// traslados, devoluciones y producción; en conteos no generan ajuste.
	AllowPartial bool
	// Thresholds umbrales porcentuales de varianza de cantidad.
	Thresholds reconciliation.Thresholds
	// MeasurementThresholds umbrales absolutos (temperatura) para recepciones.
	MeasurementThresholds reconciliation.Thresholds
}

// DefaultPolicies traslados se completan solos al recibir todo; el resto requiere acción manual.
func DefaultPolicies() map[entity.DocumentKind]Policy {
	base := Policy{
		Thresholds:            reconciliation.DefaultQuantityThresholds,
		MeasurementThresholds: reconciliation.DefaultTemperatureThresholds,
	}
	transfer := base
	transfer.AutoComplete = true
	return map[entity.DocumentKind]Policy{
		entity.KindTransfer:        transfer,
		entity.KindReturnOrder:     base,
		entity.KindStockCount:      base,
		entity.KindProductionOrder: base,
	}
}

// Orchestrator compone máquina de estados, conversión y conciliación. Seguro para uso concurrente.
type Orchestrator struct {
	seq      SequenceGenerator
	now      func() time.Time
	newID    func() string
	policies map[entity.DocumentKind]Policy
}

// Option configura el orquestador.
type Option func(*Orchestrator)

// WithClock reemplaza el reloj (pruebas).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator reemplaza el generador de IDs de documentos, líneas y movimientos.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// WithPolicy sobrescribe la política de un tipo de documento.
func WithPolicy(kind entity.DocumentKind, p Policy) Option {
	return func(o *Orchestrator) { o.policies[kind] = p }
}

// New construye el orquestador.
func New(seq SequenceGenerator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		seq:      seq,
		now:      time.Now,
		newID:    uuid.NewString,
		policies: DefaultPolicies(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Policy política vigente para un tipo.
func (o *Orchestrator) Policy(kind entity.DocumentKind) Policy {
	return o.policies[kind]
}

// Transition cambio de estado confirmado por la máquina de estados.
type Transition struct {
	From entity.Status
	To   entity.Status
}

// LineResult cantidad registrada en una línea durante la operación.
type LineResult struct {
	LineID      string
	RecordedQty decimal.Decimal // ya convertida a la unidad de la línea
	ActualQty   decimal.Decimal // acumulado de la línea tras la operación
	Variance    reconciliation.Result
}

// Result decisión del núcleo para que el colaborador de persistencia la aplique.
type Result struct {
	Document    entity.Document
	Transition  *Transition // nil si el estado no cambió
	Lines       []LineResult
	Summary     *reconciliation.Summary
	Movements   []entity.LedgerMovement
	Temperature *reconciliation.Deviation
}

// PreviousStatus estado que el documento tenía al entrar a la operación (para el CAS de persistencia).
func (r *Result) PreviousStatus() entity.Status {
	if r.Transition != nil {
		return r.Transition.From
	}
	return r.Document.Header.Status
}

// QuantityEntry cantidad real reportada para una línea, en UomID (vacío = unidad de la línea).
type QuantityEntry struct {
	LineID   string
	Quantity decimal.Decimal
	UomID    string
}

// LineInput línea para crear un documento.
type LineInput struct {
	ProductID  string
	LotID      string
	UomID      string
	BaseUomID  string
	Role       entity.LineRole
	PlannedQty decimal.Decimal
	UnitCost   *decimal.Decimal
}

// ──────────────────────────────────────────────────────────────────────────────
// Piezas comunes
// ──────────────────────────────────────────────────────────────────────────────

// create valida líneas y unidades, pide el número al colaborador y arma el documento en su estado
// inicial. allowZero permite cantidades planeadas en cero (stock esperado de un conteo).
func (o *Orchestrator) create(ctx context.Context, header entity.DocumentHeader, actor string, lines []LineInput, allowZero bool, conv Converter) (*Result, error) {
	kind := header.Kind
	initial, ok := statemachine.InitialStatus(kind)
	if !ok {
		return nil, domain.NewInvariantViolation(RuleWrongKind, "kind="+string(kind))
	}
	if header.CompanyID == "" || actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(lines) == 0 {
		return nil, domain.NewInvariantViolation(RuleNoLines, "kind="+string(kind))
	}
	for i, l := range lines {
		if err := validateLineInput(kind, i, l, allowZero); err != nil {
			return nil, err
		}
		if err := checkLineUnits(conv, i, l); err != nil {
			return nil, err
		}
	}

	number, err := o.seq.NextDocumentNumber(ctx, kind.Prefix(), header.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("numerar %s: %w", kind, err)
	}

	now := o.now()
	header.ID = o.newID()
	header.Number = number
	header.Status = initial
	header.RequestedBy = actor
	header.CreatedAt = now
	header.UpdatedAt = now

	doc := entity.Document{Header: header, Lines: make([]entity.DocumentLine, len(lines))}
	for i, l := range lines {
		doc.Lines[i] = entity.DocumentLine{
			ID:         o.newID(),
			DocumentID: header.ID,
			ProductID:  l.ProductID,
			LotID:      l.LotID,
			UomID:      l.UomID,
			BaseUomID:  l.BaseUomID,
			Role:       l.Role,
			PlannedQty: l.PlannedQty,
			UnitCost:   l.UnitCost,
		}
	}
	return &Result{Document: doc.Clone(), Transition: &Transition{To: initial}}, nil
}

func validateLineInput(kind entity.DocumentKind, i int, l LineInput, allowZero bool) error {
	idx := fmt.Sprintf("line=%d", i)
	if l.ProductID == "" || l.UomID == "" {
		return domain.NewInvariantViolation(RuleInvalidLine, idx, "product="+l.ProductID, "uom="+l.UomID)
	}
	if l.PlannedQty.IsNegative() || (!allowZero && l.PlannedQty.IsZero()) {
		return domain.NewInvariantViolation(RuleInvalidLine, idx, "planned="+l.PlannedQty.String())
	}
	if l.UnitCost != nil && l.UnitCost.IsNegative() {
		return domain.NewInvariantViolation(RuleInvalidLine, idx, "unit_cost="+l.UnitCost.String())
	}
	if kind == entity.KindProductionOrder && l.Role != entity.RoleInput && l.Role != entity.RoleOutput {
		return domain.NewInvariantViolation(RuleInvalidLine, idx, "role="+string(l.Role))
	}
	return nil
}

// checkLineUnits exige que la unidad de la línea y la del libro existan y sean convertibles.
// Un traslado con unidades incompatibles no podría contabilizarse ni cancelarse después de completado.
func checkLineUnits(conv Converter, i int, l LineInput) error {
	idx := fmt.Sprintf("line=%d", i)
	ledger := l.BaseUomID
	if ledger == "" {
		ledger = l.UomID
	}
	for _, id := range []string{l.UomID, ledger} {
		if conv == nil {
			return domain.NewInvariantViolation(RuleUnknownUom, idx, "uom="+id)
		}
		if _, ok := conv.Unit(id); !ok {
			return domain.NewInvariantViolation(RuleUnknownUom, idx, "uom="+id)
		}
	}
	if ledger == l.UomID {
		return nil
	}
	_, err := conv.Convert(decimal.NewFromInt(1), l.UomID, ledger)
	return err
}

func expectKind(doc entity.Document, kind entity.DocumentKind) error {
	if doc.Header.Kind != kind {
		return domain.NewInvariantViolation(RuleWrongKind, "want="+string(kind), "got="+string(doc.Header.Kind))
	}
	return nil
}

func requireStatus(doc entity.Document, op string, allowed ...entity.Status) error {
	for _, s := range allowed {
		if doc.Header.Status == s {
			return nil
		}
	}
	return domain.NewInvariantViolation(RuleOperationNotAllowed,
		"kind="+string(doc.Header.Kind), "operation="+op, "status="+string(doc.Header.Status))
}

// stampHook efecto de llegar a un estado: fecha y actor en la cabecera.
type stampHook func(h *entity.DocumentHeader, actor string, at time.Time)

var commonHooks = map[entity.Status]stampHook{
	entity.StatusApproved: func(h *entity.DocumentHeader, actor string, at time.Time) {
		h.ApprovedBy, h.ApprovedAt = actor, &at
	},
	entity.StatusRejected: func(h *entity.DocumentHeader, actor string, at time.Time) {
		h.ReviewedBy, h.RejectedAt = actor, &at
	},
	entity.StatusSent: func(h *entity.DocumentHeader, actor string, at time.Time) {
		h.SentBy, h.SentAt = actor, &at
	},
	entity.StatusReleased: func(h *entity.DocumentHeader, _ string, at time.Time) {
		h.ReleasedAt = &at
	},
	entity.StatusInProgress: func(h *entity.DocumentHeader, _ string, at time.Time) {
		h.StartedAt = &at
	},
	entity.StatusCompleted: func(h *entity.DocumentHeader, _ string, at time.Time) {
		h.CompletedAt = &at
	},
	entity.StatusPosted: func(h *entity.DocumentHeader, actor string, at time.Time) {
		h.PostedBy, h.PostedAt = actor, &at
	},
	entity.StatusCancelled: func(h *entity.DocumentHeader, _ string, at time.Time) {
		h.CancelledAt = &at
	},
}

var kindHooks = map[entity.DocumentKind]map[entity.Status]stampHook{
	entity.KindTransfer: {
		entity.StatusCompleted: func(h *entity.DocumentHeader, actor string, at time.Time) {
			h.ReceivedBy, h.ReceivedAt = actor, &at
		},
	},
	entity.KindStockCount: {
		entity.StatusCompleted: func(h *entity.DocumentHeader, actor string, _ time.Time) {
			h.ReviewedBy = actor
		},
	},
	entity.KindReturnOrder: {
		entity.StatusCompleted: func(h *entity.DocumentHeader, actor string, _ time.Time) {
			h.ReviewedBy = actor
		},
	},
}

// advance consulta la máquina de estados y, si es legal, aplica estado, fecha y actor sobre doc.
func advance(doc *entity.Document, to entity.Status, actor string, at time.Time) (*Transition, error) {
	from := doc.Header.Status
	next, err := statemachine.Transition(doc.Header.Kind, from, to)
	if err != nil {
		return nil, err
	}
	doc.Header.Status = next
	doc.Header.UpdatedAt = at
	if hook, ok := commonHooks[next]; ok {
		hook(&doc.Header, actor, at)
	}
	if hook, ok := kindHooks[doc.Header.Kind][next]; ok {
		hook(&doc.Header, actor, at)
	}
	return &Transition{From: from, To: next}, nil
}

// simpleTransition operación que solo cambia el estado (aprobar, enviar, iniciar, liberar, cancelar).
func (o *Orchestrator) simpleTransition(doc entity.Document, kind entity.DocumentKind, to entity.Status, actor, reason string) (*Result, error) {
	if err := expectKind(doc, kind); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, domain.ErrInvalidInput
	}
	out := doc.Clone()
	tr, err := advance(&out, to, actor, o.now())
	if err != nil {
		return nil, err
	}
	if reason != "" {
		out.Header.Reason = reason
	}
	return &Result{Document: out, Transition: tr}, nil
}

// record registra cantidades reales sobre out (ya clonado). accumulate suma a lo existente
// (recepciones parciales); si no, reemplaza (conteos, devoluciones).
func record(out *entity.Document, entries []QuantityEntry, conv Converter, accumulate bool, th reconciliation.Thresholds) ([]LineResult, error) {
	if len(entries) == 0 {
		return nil, domain.NewInvariantViolation(RuleNoEntries, "document="+out.Header.ID)
	}
	seen := make(map[string]bool, len(entries))
	results := make([]LineResult, 0, len(entries))
	for _, e := range entries {
		if seen[e.LineID] {
			return nil, domain.NewInvariantViolation(RuleDuplicateEntry, "line="+e.LineID)
		}
		seen[e.LineID] = true

		line, ok := out.Line(e.LineID)
		if !ok {
			return nil, domain.NewInvariantViolation(RuleUnknownLine, "document="+out.Header.ID, "line="+e.LineID)
		}
		if e.Quantity.IsNegative() {
			return nil, domain.NewInvariantViolation(RuleNegativeQuantity, "line="+e.LineID, "qty="+e.Quantity.String())
		}
		qty, err := convert(conv, e.Quantity, e.UomID, line.UomID)
		if err != nil {
			return nil, err
		}
		actual := qty
		if accumulate && line.ActualQty != nil {
			actual = line.ActualQty.Add(qty)
		}
		v := reconciliation.Reconcile(line.PlannedQty, actual, line.UnitCost, th)
		line.ActualQty = &actual
		line.Variance = &v
		results = append(results, LineResult{LineID: line.ID, RecordedQty: qty, ActualQty: actual, Variance: v})
	}
	return results, nil
}

func convert(conv Converter, qty decimal.Decimal, fromUomID, toUomID string) (decimal.Decimal, error) {
	if fromUomID == "" || fromUomID == toUomID {
		return qty, nil
	}
	if conv == nil {
		return decimal.Zero, &domain.NoConversionPathError{FromUom: fromUomID, ToUom: toUomID}
	}
	return conv.Convert(qty, fromUomID, toUomID)
}

// summarize agrega las varianzas de todas las líneas registradas.
func summarize(doc entity.Document) *reconciliation.Summary {
	var results []reconciliation.Result
	for _, l := range doc.Lines {
		if l.Variance != nil {
			results = append(results, *l.Variance)
		}
	}
	s := reconciliation.Summarize(results)
	return &s
}

// fulfilled todas las líneas (del rol indicado, vacío = todas) registradas y sum(real) >= sum(planeado).
func fulfilled(doc entity.Document, role entity.LineRole) bool {
	planned, actual := decimal.Zero, decimal.Zero
	for _, l := range doc.Lines {
		if role != "" && l.Role != role {
			continue
		}
		if l.ActualQty == nil {
			return false
		}
		planned = planned.Add(l.PlannedQty)
		actual = actual.Add(*l.ActualQty)
	}
	return actual.GreaterThanOrEqual(planned)
}

// checkRecorded exige cantidad real (y varianza calculada) en todas las líneas salvo AllowPartial.
func checkRecorded(doc entity.Document, p Policy) error {
	if missing := doc.UnrecordedLineIDs(); len(missing) > 0 && !p.AllowPartial {
		return &domain.MissingActualQuantityError{Kind: string(doc.Header.Kind), DocumentID: doc.Header.ID, LineIDs: missing}
	}
	for _, l := range doc.Lines {
		if l.ActualQty != nil && l.Variance == nil {
			return domain.NewInvariantViolation(RuleVarianceMissing, "document="+doc.Header.ID, "line="+l.ID)
		}
	}
	return nil
}

// complete cierre manual: exige cantidades y transiciona a completed.
func (o *Orchestrator) complete(doc entity.Document, kind entity.DocumentKind, actor string) (*Result, error) {
	if err := expectKind(doc, kind); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := checkRecorded(doc, o.policies[kind]); err != nil {
		return nil, err
	}
	out := doc.Clone()
	tr, err := advance(&out, entity.StatusCompleted, actor, o.now())
	if err != nil {
		return nil, err
	}
	return &Result{Document: out, Transition: tr, Summary: summarize(out)}, nil
}

// movementBuilder genera los movimientos del libro para un documento ya validado.
type movementBuilder func(doc entity.Document, conv Converter, actor string, at time.Time) ([]entity.LedgerMovement, error)

// post contabiliza: valida cantidades primero, luego la transición a posted, y construye movimientos.
// Una segunda contabilización la rechaza la máquina de estados (posted es terminal).
func (o *Orchestrator) post(doc entity.Document, kind entity.DocumentKind, to entity.Status, actor string, conv Converter, build movementBuilder) (*Result, error) {
	if err := expectKind(doc, kind); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := checkRecorded(doc, o.policies[kind]); err != nil {
		return nil, err
	}
	out := doc.Clone()
	at := o.now()
	tr, err := advance(&out, to, actor, at)
	if err != nil {
		return nil, err
	}
	movements, err := build(out, conv, actor, at)
	if err != nil {
		return nil, err
	}
	return &Result{Document: out, Transition: tr, Summary: summarize(out), Movements: movements}, nil
}

// movement arma un movimiento en unidad base; devuelve ok=false si el delta es cero.
func (o *Orchestrator) movement(doc entity.Document, line entity.DocumentLine, conv Converter, qty decimal.Decimal,
	typ, locationID, actor string, at time.Time) (entity.LedgerMovement, bool, error) {
	base, err := convert(conv, qty, line.UomID, line.LedgerUomID())
	if err != nil {
		return entity.LedgerMovement{}, false, err
	}
	if base.IsZero() {
		return entity.LedgerMovement{}, false, nil
	}
	var unitCost *decimal.Decimal
	if line.UnitCost != nil {
		c := *line.UnitCost
		if !qty.IsZero() && !base.Equal(qty) {
			// costo expresado por unidad de la línea → por unidad base
			c = c.Mul(qty).Div(base).Abs()
		}
		unitCost = &c
	}
	return entity.LedgerMovement{
		ID:           o.newID(),
		CompanyID:    doc.Header.CompanyID,
		ProductID:    line.ProductID,
		LocationID:   locationID,
		LotID:        line.LotID,
		Type:         typ,
		QtyDeltaBase: base,
		UnitCost:     unitCost,
		RefType:      doc.Header.Kind,
		RefID:        doc.Header.ID,
		Note:         fmt.Sprintf("%s línea %s", doc.Header.Number, line.ID),
		CreatedBy:    actor,
		CreatedAt:    at,
	}, true, nil
}

func actualOrZero(l entity.DocumentLine) decimal.Decimal {
	if l.ActualQty == nil {
		return decimal.Zero
	}
	return *l.ActualQty
}
