package reconciliation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-erp/internal/domain/reconciliation"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconcile
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_FaltanteTieneSignoNegativo(t *testing.T) {
	r := reconciliation.Reconcile(d("100"), d("95"), nil, reconciliation.DefaultQuantityThresholds)

	assertDecimal(t, "-5", r.VarianceQty, "varianza")
	assertDecimal(t, "-5", r.VariancePercent, "porcentaje")
	assert.Nil(t, r.VarianceValue, "sin costo unitario no hay valor")
	assert.Equal(t, reconciliation.AlertWarning, r.AlertLevel)
}

func TestReconcile_SobranteConCosto(t *testing.T) {
	cost := d("2.50")
	r := reconciliation.Reconcile(d("40"), d("41"), &cost, reconciliation.DefaultQuantityThresholds)

	assertDecimal(t, "1", r.VarianceQty, "varianza")
	assertDecimal(t, "2.5", r.VariancePercent, "porcentaje")
	require.NotNil(t, r.VarianceValue)
	assertDecimal(t, "2.5", *r.VarianceValue, "valor")
}

func TestReconcile_EsperadoCero(t *testing.T) {
	th := reconciliation.DefaultQuantityThresholds

	zero := reconciliation.Reconcile(d("0"), d("0"), nil, th)
	assertDecimal(t, "0", zero.VariancePercent, "0 contra 0")
	assert.Equal(t, reconciliation.AlertOK, zero.AlertLevel)

	unexpected := reconciliation.Reconcile(d("0"), d("3"), nil, th)
	assertDecimal(t, "100", unexpected.VariancePercent, "0 contra 3")
	assertDecimal(t, "3", unexpected.VarianceQty, "varianza")
	assert.Equal(t, reconciliation.AlertCritical, unexpected.AlertLevel)
}

func TestReconcile_NivelesDeAlerta(t *testing.T) {
	cases := []struct {
		name   string
		actual string
		want   reconciliation.AlertLevel
	}{
		{"exacto", "100", reconciliation.AlertOK},
		{"2.00 es ok", "102", reconciliation.AlertOK},
		{"2.01 es warning", "102.01", reconciliation.AlertWarning},
		{"5.00 es warning", "95", reconciliation.AlertWarning},
		{"5.01 es critical", "105.01", reconciliation.AlertCritical},
		{"faltante 5.01 es critical", "94.99", reconciliation.AlertCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := reconciliation.Reconcile(d("100"), d(tc.actual), nil, reconciliation.DefaultQuantityThresholds)
			assert.Equal(t, tc.want, r.AlertLevel, "porcentaje %s", r.VariancePercent)
		})
	}
}

func TestReconcile_UmbralesPersonalizados(t *testing.T) {
	strict := reconciliation.Thresholds{Warning: d("0.5"), Critical: d("1")}
	r := reconciliation.Reconcile(d("100"), d("101.5"), nil, strict)
	assert.Equal(t, reconciliation.AlertCritical, r.AlertLevel)
}

// ──────────────────────────────────────────────────────────────────────────────
// ReconcileAbsolute / Thresholds
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcileAbsolute_Temperatura(t *testing.T) {
	th := reconciliation.Thresholds{Warning: d("1"), Critical: d("3")}

	ok := reconciliation.ReconcileAbsolute(d("4"), d("4.8"), th)
	assert.Equal(t, reconciliation.AlertOK, ok.AlertLevel)
	assertDecimal(t, "0.8", ok.Deviation, "desviación")

	warn := reconciliation.ReconcileAbsolute(d("4"), d("1.5"), th)
	assert.Equal(t, reconciliation.AlertWarning, warn.AlertLevel)
	assertDecimal(t, "-2.5", warn.Deviation, "desviación")

	crit := reconciliation.ReconcileAbsolute(d("-18"), d("-14"), th)
	assert.Equal(t, reconciliation.AlertCritical, crit.AlertLevel)
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, reconciliation.DefaultQuantityThresholds.Validate())
	assert.Error(t, reconciliation.Thresholds{Warning: d("5"), Critical: d("2")}.Validate())
	assert.Error(t, reconciliation.Thresholds{Warning: d("-1"), Critical: d("2")}.Validate())
}

func TestSummarize(t *testing.T) {
	cost := d("10")
	th := reconciliation.DefaultQuantityThresholds
	s := reconciliation.Summarize([]reconciliation.Result{
		reconciliation.Reconcile(d("10"), d("10"), &cost, th),
		reconciliation.Reconcile(d("20"), d("18"), &cost, th),
	})

	assert.Equal(t, 2, s.Lines)
	assertDecimal(t, "30", s.ExpectedQty, "esperado")
	assertDecimal(t, "28", s.ActualQty, "real")
	assertDecimal(t, "-2", s.VarianceQty, "varianza")
	assertDecimal(t, "-20", s.VarianceValue, "valor")
	assert.Equal(t, reconciliation.AlertCritical, s.WorstLevel)
}

func TestAlertLevel_Worse(t *testing.T) {
	assert.Equal(t, reconciliation.AlertWarning, reconciliation.AlertOK.Worse(reconciliation.AlertWarning))
	assert.Equal(t, reconciliation.AlertCritical, reconciliation.AlertCritical.Worse(reconciliation.AlertOK))
	assert.Equal(t, reconciliation.AlertOK, reconciliation.AlertLevel("").Worse(reconciliation.AlertOK))
}
