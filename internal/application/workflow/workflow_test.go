package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-erp/internal/application/workflow"
	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/reconciliation"
	"github.com/jhoicas/Inventario-erp/internal/domain/uom"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCompany = "company-1"
	testActor   = "user-1"
	bodegaA     = "wh-a"
	bodegaB     = "wh-b"
)

var testNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

type fakeSequence struct {
	calls int
}

func (s *fakeSequence) NextDocumentNumber(_ context.Context, prefix, _ string) (string, error) {
	s.calls++
	return entity.FormatDocumentNumber(prefix, testNow, int64(s.calls)), nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

func newOrchestrator(t *testing.T, opts ...workflow.Option) (*workflow.Orchestrator, *fakeSequence) {
	t.Helper()
	seq := &fakeSequence{}
	n := 0
	base := []workflow.Option{
		workflow.WithClock(func() time.Time { return testNow }),
		workflow.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	}
	return workflow.New(seq, append(base, opts...)...), seq
}

func testTable(t *testing.T) *uom.Table {
	t.Helper()
	table, err := uom.NewTable(
		[]entity.UnitOfMeasure{
			{ID: "pcs", Code: "UND", Type: entity.UOMTypeCount},
			{ID: "box", Code: "CAJA", Type: entity.UOMTypeCount},
			{ID: "kg", Code: "KG", Type: entity.UOMTypeWeight},
			{ID: "g", Code: "G", Type: entity.UOMTypeWeight},
			{ID: "l", Code: "L", Type: entity.UOMTypeVolume},
		},
		[]entity.ConversionFactor{
			{FromUomID: "box", ToUomID: "pcs", Factor: d("12")},
			{FromUomID: "kg", ToUomID: "g", Factor: d("1000")},
		},
	)
	require.NoError(t, err)
	return table
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg ...string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s got %s %v", want, got, msg)
}

func mustTransfer(t *testing.T, o *workflow.Orchestrator, lines ...workflow.LineInput) entity.Document {
	t.Helper()
	res, err := o.CreateTransfer(context.Background(), workflow.CreateTransferCommand{
		CompanyID:      testCompany,
		Actor:          testActor,
		FromLocationID: bodegaA,
		ToLocationID:   bodegaB,
		Lines:          lines,
	}, testTable(t))
	require.NoError(t, err)
	return res.Document
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

// TestTransfer_CicloCompleto: draft → sent → recepción parcial (sigue sent) → recepción del resto
// (se completa sola) → un nuevo envío falla con InvalidTransitionError → contabilización.
func TestTransfer_CicloCompleto(t *testing.T) {
	o, seq := newOrchestrator(t)
	table := testTable(t)

	doc := mustTransfer(t, o,
		workflow.LineInput{ProductID: "p1", UomID: "pcs", PlannedQty: d("24")},
		workflow.LineInput{ProductID: "p2", UomID: "kg", PlannedQty: d("5")},
	)
	assert.Equal(t, entity.StatusDraft, doc.Header.Status)
	assert.Equal(t, "TRF-202501-00001", doc.Header.Number)
	assert.Equal(t, 1, seq.calls)
	assert.Equal(t, testActor, doc.Header.RequestedBy)

	sent, err := o.SendTransfer(doc, testActor)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, sent.Document.Header.Status)
	assert.Equal(t, &workflow.Transition{From: entity.StatusDraft, To: entity.StatusSent}, sent.Transition)
	require.NotNil(t, sent.Document.Header.SentAt)
	assert.Equal(t, testActor, sent.Document.Header.SentBy)

	l1, l2 := sent.Document.Lines[0].ID, sent.Document.Lines[1].ID

	// parcial: 1 caja (=12 und) de p1
	partial, err := o.ReceiveTransfer(sent.Document, workflow.ReceiveCommand{
		Actor:   "receiver",
		Entries: []workflow.QuantityEntry{{LineID: l1, Quantity: d("1"), UomID: "box"}},
	}, table)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, partial.Document.Header.Status, "recepción parcial no completa")
	assert.Nil(t, partial.Transition)
	require.Len(t, partial.Lines, 1)
	assertDecimal(t, "12", partial.Lines[0].RecordedQty)
	assertDecimal(t, "-12", partial.Lines[0].Variance.VarianceQty)

	// resto: 12 und más de p1 y 5000 g de p2
	done, err := o.ReceiveTransfer(partial.Document, workflow.ReceiveCommand{
		Actor: "receiver",
		Entries: []workflow.QuantityEntry{
			{LineID: l1, Quantity: d("12")},
			{LineID: l2, Quantity: d("5000"), UomID: "g"},
		},
	}, table)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, done.Document.Header.Status)
	assert.Equal(t, &workflow.Transition{From: entity.StatusSent, To: entity.StatusCompleted}, done.Transition)
	assertDecimal(t, "24", *done.Document.Lines[0].ActualQty)
	assertDecimal(t, "5", *done.Document.Lines[1].ActualQty)
	require.NotNil(t, done.Summary)
	assert.Equal(t, reconciliation.AlertOK, done.Summary.WorstLevel)
	assert.Equal(t, "receiver", done.Document.Header.ReceivedBy)
	require.NotNil(t, done.Document.Header.CompletedAt)

	_, err = o.SendTransfer(done.Document, testActor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	var typed *domain.InvalidTransitionError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "completed", typed.From)
	assert.Equal(t, "sent", typed.To)

	posted, err := o.PostTransfer(done.Document, "supervisor", table)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPosted, posted.Document.Header.Status)
	require.Len(t, posted.Movements, 4)

	out := posted.Movements[0]
	assert.Equal(t, entity.MovementTypeTransferOut, out.Type)
	assert.Equal(t, bodegaA, out.LocationID)
	assertDecimal(t, "-24", out.QtyDeltaBase)
	in := posted.Movements[1]
	assert.Equal(t, entity.MovementTypeTransferIn, in.Type)
	assert.Equal(t, bodegaB, in.LocationID)
	assertDecimal(t, "24", in.QtyDeltaBase)
	assert.Equal(t, entity.KindTransfer, in.RefType)
	assert.Equal(t, doc.Header.ID, in.RefID)
	assert.Equal(t, "supervisor", in.CreatedBy)

	_, err = o.PostTransfer(posted.Document, "supervisor", table)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "segunda contabilización la rechaza la máquina de estados")
}

func TestTransfer_MismaBodegaNoLlamaAlSecuenciador(t *testing.T) {
	o, seq := newOrchestrator(t)
	_, err := o.CreateTransfer(context.Background(), workflow.CreateTransferCommand{
		CompanyID:      testCompany,
		Actor:          testActor,
		FromLocationID: bodegaA,
		ToLocationID:   bodegaA,
		Lines:          []workflow.LineInput{{ProductID: "p1", UomID: "pcs", PlannedQty: d("1")}},
	}, testTable(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation))
	assert.Equal(t, workflow.RuleSameLocation, domain.RuleOf(err))
	assert.Equal(t, 0, seq.calls)
}

func TestTransfer_SinLineas(t *testing.T) {
	o, seq := newOrchestrator(t)
	_, err := o.CreateTransfer(context.Background(), workflow.CreateTransferCommand{
		CompanyID: testCompany, Actor: testActor, FromLocationID: bodegaA, ToLocationID: bodegaB,
	}, testTable(t))
	assert.Equal(t, workflow.RuleNoLines, domain.RuleOf(err))
	assert.Equal(t, 0, seq.calls)
}

func TestTransfer_LineaInvalida(t *testing.T) {
	o, _ := newOrchestrator(t)
	_, err := o.CreateTransfer(context.Background(), workflow.CreateTransferCommand{
		CompanyID: testCompany, Actor: testActor, FromLocationID: bodegaA, ToLocationID: bodegaB,
		Lines: []workflow.LineInput{{ProductID: "p1", UomID: "pcs", PlannedQty: d("0")}},
	}, testTable(t))
	assert.Equal(t, workflow.RuleInvalidLine, domain.RuleOf(err))
}

// Las unidades se validan al crear: un traslado completado con unidades incompatibles no podría
// contabilizarse ni cancelarse.
func TestTransfer_UnidadesDeLineaSeValidanAlCrear(t *testing.T) {
	cases := []struct {
		name   string
		line   workflow.LineInput
		target error
		rule   string
	}{
		{"tipos incompatibles", workflow.LineInput{ProductID: "p1", UomID: "pcs", BaseUomID: "kg", PlannedQty: d("1")},
			domain.ErrIncompatibleUnitType, domain.RuleIncompatibleUnitType},
		{"factor registrado", workflow.LineInput{ProductID: "p1", UomID: "kg", BaseUomID: "g", PlannedQty: d("1")}, nil, ""},
		{"unidad de línea desconocida", workflow.LineInput{ProductID: "p1", UomID: "ghost", PlannedQty: d("1")},
			domain.ErrInvariantViolation, workflow.RuleUnknownUom},
		{"unidad base desconocida", workflow.LineInput{ProductID: "p1", UomID: "pcs", BaseUomID: "ghost", PlannedQty: d("1")},
			domain.ErrInvariantViolation, workflow.RuleUnknownUom},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, seq := newOrchestrator(t)
			_, err := o.CreateTransfer(context.Background(), workflow.CreateTransferCommand{
				CompanyID: testCompany, Actor: testActor, FromLocationID: bodegaA, ToLocationID: bodegaB,
				Lines: []workflow.LineInput{tc.line},
			}, testTable(t))
			if tc.target == nil {
				// kg→g está registrado: la línea es válida
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.target))
			assert.Equal(t, tc.rule, domain.RuleOf(err))
			assert.Equal(t, 0, seq.calls, "no se numera un documento rechazado")
		})
	}
}

func TestStockCount_UnidadIncompatibleAlCrear(t *testing.T) {
	o, _ := newOrchestrator(t)
	_, err := o.CreateStockCount(context.Background(), workflow.CreateStockCountCommand{
		CompanyID: testCompany, Actor: testActor, LocationID: bodegaA,
		Lines: []workflow.LineInput{{ProductID: "p1", UomID: "l", BaseUomID: "kg", PlannedQty: d("0")}},
	}, testTable(t))
	assert.True(t, errors.Is(err, domain.ErrIncompatibleUnitType))
}

func TestTransfer_SinAutoCompletarQuedaEnviado(t *testing.T) {
	p := workflow.DefaultPolicies()[entity.KindTransfer]
	p.AutoComplete = false
	o, _ := newOrchestrator(t, workflow.WithPolicy(entity.KindTransfer, p))

	doc := mustTransfer(t, o, workflow.LineInput{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")})
	sent, err := o.SendTransfer(doc, testActor)
	require.NoError(t, err)
	res, err := o.ReceiveTransfer(sent.Document, workflow.ReceiveCommand{
		Actor:   testActor,
		Entries: []workflow.QuantityEntry{{LineID: sent.Document.Lines[0].ID, Quantity: d("10")}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, res.Document.Header.Status)
}

func TestTransfer_RecibirAntesDeEnviar(t *testing.T) {
	o, _ := newOrchestrator(t)
	doc := mustTransfer(t, o, workflow.LineInput{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")})
	_, err := o.ReceiveTransfer(doc, workflow.ReceiveCommand{
		Actor:   testActor,
		Entries: []workflow.QuantityEntry{{LineID: doc.Lines[0].ID, Quantity: d("10")}},
	}, nil)
	assert.Equal(t, workflow.RuleOperationNotAllowed, domain.RuleOf(err))
}

func TestTransfer_UnidadIncompatibleNoModificaNada(t *testing.T) {
	o, _ := newOrchestrator(t)
	table := testTable(t)
	doc := mustTransfer(t, o,
		workflow.LineInput{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")},
		workflow.LineInput{ProductID: "p2", UomID: "kg", PlannedQty: d("1")},
	)
	sent, err := o.SendTransfer(doc, testActor)
	require.NoError(t, err)

	_, err = o.ReceiveTransfer(sent.Document, workflow.ReceiveCommand{
		Actor: testActor,
		Entries: []workflow.QuantityEntry{
			{LineID: sent.Document.Lines[0].ID, Quantity: d("10")},
			{LineID: sent.Document.Lines[1].ID, Quantity: d("1"), UomID: "l"},
		},
	}, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIncompatibleUnitType))
	assert.Nil(t, sent.Document.Lines[0].ActualQty, "el documento de entrada no se muta")
}

func TestTransfer_CancelarSoloAntesDeEnviar(t *testing.T) {
	o, _ := newOrchestrator(t)
	doc := mustTransfer(t, o, workflow.LineInput{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")})

	cancelled, err := o.CancelTransfer(doc, testActor, "pedido duplicado")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Document.Header.Status)
	assert.Equal(t, "pedido duplicado", cancelled.Document.Header.Reason)
	assert.Empty(t, cancelled.Movements)

	sent, err := o.SendTransfer(doc, testActor)
	require.NoError(t, err)
	_, err = o.CancelTransfer(sent.Document, testActor, "tarde")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestTransfer_Temperatura(t *testing.T) {
	o, _ := newOrchestrator(t)
	doc := mustTransfer(t, o, workflow.LineInput{ProductID: "carne", UomID: "kg", PlannedQty: d("100")})
	sent, err := o.SendTransfer(doc, testActor)
	require.NoError(t, err)

	res, err := o.ReceiveTransfer(sent.Document, workflow.ReceiveCommand{
		Actor:       testActor,
		Entries:     []workflow.QuantityEntry{{LineID: sent.Document.Lines[0].ID, Quantity: d("99")}},
		Temperature: &workflow.TemperatureReading{Target: d("2"), Observed: d("5.5")},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Temperature)
	assert.Equal(t, reconciliation.AlertWarning, res.Temperature.AlertLevel)
	assert.Equal(t, "warning", res.Document.Header.Metadata["temperature_alert"])
	assert.Equal(t, entity.StatusSent, res.Document.Header.Status, "99 < 100")
	assert.Nil(t, sent.Document.Header.Metadata, "la metadata de entrada no cambia")
}

func TestTransfer_EstadoDesactualizadoFallaDeterminista(t *testing.T) {
	o, _ := newOrchestrator(t)
	doc := mustTransfer(t, o, workflow.LineInput{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")})
	approved, err := o.ApproveTransfer(doc, testActor)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = o.ApproveTransfer(approved.Document, testActor)
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Conteos físicos
// ──────────────────────────────────────────────────────────────────────────────

// TestStockCount_GuardaDeContabilizacion: 3 líneas, 2 contadas → MissingActualQuantity;
// tras contar la 3a y completar, se contabiliza una sola vez.
func TestStockCount_GuardaDeContabilizacion(t *testing.T) {
	o, _ := newOrchestrator(t)
	table := testTable(t)
	ctx := context.Background()

	created, err := o.CreateStockCount(ctx, workflow.CreateStockCountCommand{
		CompanyID:  testCompany,
		Actor:      testActor,
		LocationID: bodegaA,
		Lines: []workflow.LineInput{
			{ProductID: "p1", UomID: "pcs", PlannedQty: d("100"), UnitCost: ptr(d("2"))},
			{ProductID: "p2", UomID: "pcs", PlannedQty: d("50")},
			{ProductID: "p3", UomID: "kg", PlannedQty: d("0")},
		},
	}, testTable(t))
	require.NoError(t, err)
	assert.Equal(t, "CNT-202501-00001", created.Document.Header.Number)

	started, err := o.StartStockCount(created.Document, testActor)
	require.NoError(t, err)
	lines := started.Document.Lines

	counted, err := o.CountLines(started.Document, testActor, []workflow.QuantityEntry{
		{LineID: lines[0].ID, Quantity: d("95")},
		{LineID: lines[1].ID, Quantity: d("50")},
	}, table)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, counted.Document.Header.Status)
	assertDecimal(t, "-5", counted.Lines[0].Variance.VarianceQty)
	assertDecimal(t, "-5", counted.Lines[0].Variance.VariancePercent)
	require.NotNil(t, counted.Lines[0].Variance.VarianceValue)
	assertDecimal(t, "-10", *counted.Lines[0].Variance.VarianceValue)

	_, err = o.PostStockCount(counted.Document, testActor, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMissingActualQuantity))
	var missing *domain.MissingActualQuantityError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{lines[2].ID}, missing.LineIDs)

	_, err = o.CompleteStockCount(counted.Document, testActor)
	assert.True(t, errors.Is(err, domain.ErrMissingActualQuantity))

	all, err := o.CountLines(counted.Document, testActor, []workflow.QuantityEntry{
		{LineID: lines[2].ID, Quantity: d("250"), UomID: "g"},
	}, table)
	require.NoError(t, err)
	assertDecimal(t, "100", all.Lines[0].Variance.VariancePercent, "esperado cero con conteo > 0")

	completed, err := o.CompleteStockCount(all.Document, "jefe")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, completed.Document.Header.Status)
	assert.Equal(t, "jefe", completed.Document.Header.ReviewedBy)

	posted, err := o.PostStockCount(completed.Document, "jefe", table)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPosted, posted.Document.Header.Status)
	require.Len(t, posted.Movements, 2, "la línea sin diferencia no genera ajuste")
	assert.Equal(t, entity.MovementTypeAdjustment, posted.Movements[0].Type)
	assertDecimal(t, "-5", posted.Movements[0].QtyDeltaBase)
	require.NotNil(t, posted.Movements[0].UnitCost)
	assertDecimal(t, "2", *posted.Movements[0].UnitCost)
	assertDecimal(t, "0.25", posted.Movements[1].QtyDeltaBase)

	_, err = o.PostStockCount(posted.Document, "jefe", table)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestStockCount_ReconteoReemplaza(t *testing.T) {
	o, _ := newOrchestrator(t)
	created, err := o.CreateStockCount(context.Background(), workflow.CreateStockCountCommand{
		CompanyID: testCompany, Actor: testActor, LocationID: bodegaA,
		Lines: []workflow.LineInput{{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")}},
	}, testTable(t))
	require.NoError(t, err)
	started, err := o.StartStockCount(created.Document, testActor)
	require.NoError(t, err)
	id := started.Document.Lines[0].ID

	first, err := o.CountLines(started.Document, testActor, []workflow.QuantityEntry{{LineID: id, Quantity: d("7")}}, nil)
	require.NoError(t, err)
	second, err := o.CountLines(first.Document, testActor, []workflow.QuantityEntry{{LineID: id, Quantity: d("9")}}, nil)
	require.NoError(t, err)
	assertDecimal(t, "9", *second.Document.Lines[0].ActualQty)
}

func TestStockCount_AutoCompletar(t *testing.T) {
	p := workflow.DefaultPolicies()[entity.KindStockCount]
	p.AutoComplete = true
	o, _ := newOrchestrator(t, workflow.WithPolicy(entity.KindStockCount, p))
	created, err := o.CreateStockCount(context.Background(), workflow.CreateStockCountCommand{
		CompanyID: testCompany, Actor: testActor, LocationID: bodegaA,
		Lines: []workflow.LineInput{{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")}},
	}, testTable(t))
	require.NoError(t, err)
	started, err := o.StartStockCount(created.Document, testActor)
	require.NoError(t, err)
	res, err := o.CountLines(started.Document, testActor,
		[]workflow.QuantityEntry{{LineID: started.Document.Lines[0].ID, Quantity: d("3")}}, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, res.Document.Header.Status, "conteo completo aunque haya faltante")
	assert.Equal(t, reconciliation.AlertCritical, res.Summary.WorstLevel)
}

func TestStockCount_EntradasInvalidas(t *testing.T) {
	o, _ := newOrchestrator(t)
	created, err := o.CreateStockCount(context.Background(), workflow.CreateStockCountCommand{
		CompanyID: testCompany, Actor: testActor, LocationID: bodegaA,
		Lines: []workflow.LineInput{{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")}},
	}, testTable(t))
	require.NoError(t, err)
	started, err := o.StartStockCount(created.Document, testActor)
	require.NoError(t, err)
	id := started.Document.Lines[0].ID

	cases := []struct {
		name    string
		entries []workflow.QuantityEntry
		rule    string
	}{
		{"sin entradas", nil, workflow.RuleNoEntries},
		{"línea desconocida", []workflow.QuantityEntry{{LineID: "x", Quantity: d("1")}}, workflow.RuleUnknownLine},
		{"negativa", []workflow.QuantityEntry{{LineID: id, Quantity: d("-1")}}, workflow.RuleNegativeQuantity},
		{"duplicada", []workflow.QuantityEntry{{LineID: id, Quantity: d("1")}, {LineID: id, Quantity: d("2")}}, workflow.RuleDuplicateEntry},
		{"factor registrado", []workflow.QuantityEntry{{LineID: id, Quantity: d("1"), UomID: "box"}}, domain.RuleNoConversionPath},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := o.CountLines(started.Document, testActor, tc.entries, nil)
			require.Error(t, err)
			assert.Equal(t, tc.rule, domain.RuleOf(err))
		})
	}
}

func TestOperacion_TipoEquivocado(t *testing.T) {
	o, _ := newOrchestrator(t)
	doc := mustTransfer(t, o, workflow.LineInput{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")})
	_, err := o.StartStockCount(doc, testActor)
	assert.Equal(t, workflow.RuleWrongKind, domain.RuleOf(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Devoluciones
// ──────────────────────────────────────────────────────────────────────────────

func newReturn(t *testing.T, o *workflow.Orchestrator, dir entity.ReturnDirection) entity.Document {
	t.Helper()
	res, err := o.CreateReturnOrder(context.Background(), workflow.CreateReturnCommand{
		CompanyID:  testCompany,
		Actor:      testActor,
		Direction:  dir,
		PartnerID:  "partner-1",
		LocationID: bodegaA,
		Lines: []workflow.LineInput{
			{ProductID: "p1", UomID: "box", BaseUomID: "pcs", PlannedQty: d("2"), UnitCost: ptr(d("24"))},
		},
	}, testTable(t))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRequested, res.Document.Header.Status)
	return res.Document
}

func TestReturn_SignoSegunDireccion(t *testing.T) {
	table := testTable(t)
	cases := []struct {
		dir     entity.ReturnDirection
		typ     string
		wantQty string
	}{
		{entity.ReturnFromCustomer, entity.MovementTypeReturnIn, "24"},
		{entity.ReturnToSupplier, entity.MovementTypeReturnOut, "-24"},
	}
	for _, tc := range cases {
		t.Run(string(tc.dir), func(t *testing.T) {
			o, _ := newOrchestrator(t)
			doc := newReturn(t, o, tc.dir)

			approved, err := o.ApproveReturn(doc, "jefe")
			require.NoError(t, err)
			assert.Equal(t, "jefe", approved.Document.Header.ApprovedBy)

			recorded, err := o.RecordReturnQuantities(approved.Document, testActor,
				[]workflow.QuantityEntry{{LineID: doc.Lines[0].ID, Quantity: d("2")}}, table)
			require.NoError(t, err)
			assert.Equal(t, entity.StatusApproved, recorded.Document.Header.Status, "devolución no se completa sola por defecto")

			posted, err := o.PostReturn(recorded.Document, "jefe", table)
			require.NoError(t, err)
			require.Len(t, posted.Movements, 1)
			m := posted.Movements[0]
			assert.Equal(t, tc.typ, m.Type)
			assertDecimal(t, tc.wantQty, m.QtyDeltaBase, "cantidad en unidad base (und)")
			require.NotNil(t, m.UnitCost)
			assertDecimal(t, "2", *m.UnitCost, "costo por unidad base")
		})
	}
}

func TestReturn_RechazoEsTerminal(t *testing.T) {
	o, _ := newOrchestrator(t)
	doc := newReturn(t, o, entity.ReturnFromCustomer)
	rejected, err := o.RejectReturn(doc, "jefe", "fuera de plazo")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, rejected.Document.Header.Status)
	assert.Equal(t, "jefe", rejected.Document.Header.ReviewedBy)
	require.NotNil(t, rejected.Document.Header.RejectedAt)

	_, err = o.ApproveReturn(rejected.Document, "jefe")
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
	_, err = o.RecordReturnQuantities(rejected.Document, testActor,
		[]workflow.QuantityEntry{{LineID: doc.Lines[0].ID, Quantity: d("1")}}, nil)
	assert.Equal(t, workflow.RuleOperationNotAllowed, domain.RuleOf(err))
}

func TestReturn_CompletarManualSinMovimientos(t *testing.T) {
	o, _ := newOrchestrator(t)
	doc := newReturn(t, o, entity.ReturnFromCustomer)
	approved, err := o.ApproveReturn(doc, "jefe")
	require.NoError(t, err)

	_, err = o.CompleteReturn(approved.Document, "jefe")
	assert.True(t, errors.Is(err, domain.ErrMissingActualQuantity))

	recorded, err := o.RecordReturnQuantities(approved.Document, testActor,
		[]workflow.QuantityEntry{{LineID: doc.Lines[0].ID, Quantity: d("1")}}, nil)
	require.NoError(t, err)
	done, err := o.CompleteReturn(recorded.Document, "jefe")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, done.Document.Header.Status)
	assert.Empty(t, done.Movements)

	_, err = o.PostReturn(done.Document, "jefe", nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
}

func TestReturn_DireccionInvalida(t *testing.T) {
	o, _ := newOrchestrator(t)
	_, err := o.CreateReturnOrder(context.Background(), workflow.CreateReturnCommand{
		CompanyID: testCompany, Actor: testActor, Direction: "warehouse", LocationID: bodegaA,
		Lines: []workflow.LineInput{{ProductID: "p1", UomID: "pcs", PlannedQty: d("1")}},
	}, testTable(t))
	assert.Equal(t, workflow.RuleInvalidDirection, domain.RuleOf(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes de producción
// ──────────────────────────────────────────────────────────────────────────────

func TestProduction_CicloYCosto(t *testing.T) {
	o, _ := newOrchestrator(t)
	table := testTable(t)
	ctx := context.Background()

	created, err := o.CreateProductionOrder(ctx, workflow.CreateProductionCommand{
		CompanyID:  testCompany,
		Actor:      testActor,
		LocationID: bodegaA,
		Lines: []workflow.LineInput{
			{ProductID: "harina", UomID: "kg", Role: entity.RoleInput, PlannedQty: d("10"), UnitCost: ptr(d("3"))},
			{ProductID: "azucar", UomID: "kg", Role: entity.RoleInput, PlannedQty: d("2"), UnitCost: ptr(d("5"))},
			{ProductID: "pan", UomID: "pcs", Role: entity.RoleOutput, PlannedQty: d("40")},
		},
	}, testTable(t))
	require.NoError(t, err)
	assert.Equal(t, "PRD-202501-00001", created.Document.Header.Number)

	released, err := o.ReleaseProduction(created.Document, testActor)
	require.NoError(t, err)
	require.NotNil(t, released.Document.Header.ReleasedAt)
	started, err := o.StartProduction(released.Document, testActor)
	require.NoError(t, err)
	require.NotNil(t, started.Document.Header.StartedAt)

	lines := started.Document.Lines
	recorded, err := o.RecordProduction(started.Document, testActor, []workflow.QuantityEntry{
		{LineID: lines[0].ID, Quantity: d("10000"), UomID: "g"},
		{LineID: lines[1].ID, Quantity: d("2")},
		{LineID: lines[2].ID, Quantity: d("40")},
	}, table)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, recorded.Document.Header.Status)

	completed, err := o.CompleteProduction(recorded.Document, testActor)
	require.NoError(t, err)
	posted, err := o.PostProduction(completed.Document, testActor, table)
	require.NoError(t, err)

	require.Len(t, posted.Movements, 3)
	assert.Equal(t, entity.MovementTypeConsumption, posted.Movements[0].Type)
	assertDecimal(t, "-10", posted.Movements[0].QtyDeltaBase)
	assert.Equal(t, entity.MovementTypeConsumption, posted.Movements[1].Type)
	prod := posted.Movements[2]
	assert.Equal(t, entity.MovementTypeProduction, prod.Type)
	assertDecimal(t, "40", prod.QtyDeltaBase)
	require.NotNil(t, prod.UnitCost)
	// (10*3 + 2*5) / 40 = 1
	assertDecimal(t, "1", *prod.UnitCost)
}

func TestProduction_RequiereInputYOutput(t *testing.T) {
	o, _ := newOrchestrator(t)
	_, err := o.CreateProductionOrder(context.Background(), workflow.CreateProductionCommand{
		CompanyID: testCompany, Actor: testActor, LocationID: bodegaA,
		Lines: []workflow.LineInput{{ProductID: "harina", UomID: "kg", Role: entity.RoleInput, PlannedQty: d("1")}},
	}, testTable(t))
	assert.Equal(t, workflow.RuleMissingRole, domain.RuleOf(err))
}

func TestProduction_AutoCompletarPorSalidas(t *testing.T) {
	p := workflow.DefaultPolicies()[entity.KindProductionOrder]
	p.AutoComplete = true
	o, _ := newOrchestrator(t, workflow.WithPolicy(entity.KindProductionOrder, p))
	created, err := o.CreateProductionOrder(context.Background(), workflow.CreateProductionCommand{
		CompanyID: testCompany, Actor: testActor, LocationID: bodegaA,
		Lines: []workflow.LineInput{
			{ProductID: "harina", UomID: "kg", Role: entity.RoleInput, PlannedQty: d("10")},
			{ProductID: "pan", UomID: "pcs", Role: entity.RoleOutput, PlannedQty: d("40")},
		},
	}, testTable(t))
	require.NoError(t, err)
	released, err := o.ReleaseProduction(created.Document, testActor)
	require.NoError(t, err)
	started, err := o.StartProduction(released.Document, testActor)
	require.NoError(t, err)
	lines := started.Document.Lines

	res, err := o.RecordProduction(started.Document, testActor, []workflow.QuantityEntry{
		{LineID: lines[0].ID, Quantity: d("12")},
		{LineID: lines[1].ID, Quantity: d("20")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInProgress, res.Document.Header.Status)

	res, err = o.RecordProduction(res.Document, testActor, []workflow.QuantityEntry{
		{LineID: lines[1].ID, Quantity: d("20")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, res.Document.Header.Status)
	assertDecimal(t, "40", *res.Document.Lines[1].ActualQty)
}

func TestProduction_CancelarDesdeLiberada(t *testing.T) {
	o, _ := newOrchestrator(t)
	created, err := o.CreateProductionOrder(context.Background(), workflow.CreateProductionCommand{
		CompanyID: testCompany, Actor: testActor, LocationID: bodegaA,
		Lines: []workflow.LineInput{
			{ProductID: "harina", UomID: "kg", Role: entity.RoleInput, PlannedQty: d("10")},
			{ProductID: "pan", UomID: "pcs", Role: entity.RoleOutput, PlannedQty: d("40")},
		},
	}, testTable(t))
	require.NoError(t, err)
	released, err := o.ReleaseProduction(created.Document, testActor)
	require.NoError(t, err)
	cancelled, err := o.CancelProduction(released.Document, testActor, "sin materia prima")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Document.Header.Status)
	require.NotNil(t, cancelled.Document.Header.CancelledAt)
}

func TestPost_VarianzaNoCalculada(t *testing.T) {
	o, _ := newOrchestrator(t)
	doc := entity.Document{
		Header: entity.DocumentHeader{ID: "doc", CompanyID: testCompany, Kind: entity.KindStockCount, Status: entity.StatusCompleted},
		Lines:  []entity.DocumentLine{{ID: "l1", ProductID: "p1", UomID: "pcs", PlannedQty: d("1"), ActualQty: ptr(d("1"))}},
	}
	_, err := o.PostStockCount(doc, testActor, nil)
	assert.Equal(t, workflow.RuleVarianceMissing, domain.RuleOf(err))
}

func TestResult_PreviousStatus(t *testing.T) {
	o, _ := newOrchestrator(t)
	doc := mustTransfer(t, o, workflow.LineInput{ProductID: "p1", UomID: "pcs", PlannedQty: d("10")})
	sent, err := o.SendTransfer(doc, testActor)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, sent.PreviousStatus())

	partial, err := o.ReceiveTransfer(sent.Document, workflow.ReceiveCommand{
		Actor:   testActor,
		Entries: []workflow.QuantityEntry{{LineID: doc.Lines[0].ID, Quantity: d("1")}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, partial.PreviousStatus())
}
