// Package reconciliation calcula varianzas entre cantidades esperadas y reales
// (conteos, recepciones de traslado, recepciones contra OC) y su nivel de alerta.
// Funciones puras: sin E/S ni estado compartido.
package reconciliation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AlertLevel nivel de alerta derivado de la magnitud de la desviación.
type AlertLevel string

const (
	AlertOK       AlertLevel = "ok"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

func (a AlertLevel) rank() int {
	switch a {
	case AlertWarning:
		return 1
	case AlertCritical:
		return 2
	}
	return 0
}

// Worse devuelve el más severo de los dos niveles.
func (a AlertLevel) Worse(b AlertLevel) AlertLevel {
	if b.rank() > a.rank() {
		return b
	}
	if a == "" {
		return AlertOK
	}
	return a
}

var hundred = decimal.NewFromInt(100)

// Thresholds umbrales de clasificación: ok si magnitud <= Warning, warning si <= Critical, si no critical.
// Para cantidades se expresan en porcentaje; para mediciones absolutas (temperatura) en la unidad medida.
type Thresholds struct {
	Warning  decimal.Decimal
	Critical decimal.Decimal
}

var (
	// DefaultQuantityThresholds 2% / 5%.
	DefaultQuantityThresholds = Thresholds{Warning: decimal.NewFromInt(2), Critical: decimal.NewFromInt(5)}
	// DefaultTemperatureThresholds 2 / 5 grados de desviación.
	DefaultTemperatureThresholds = Thresholds{Warning: decimal.NewFromInt(2), Critical: decimal.NewFromInt(5)}
)

// Validate exige 0 <= Warning <= Critical.
func (t Thresholds) Validate() error {
	if t.Warning.IsNegative() || t.Critical.LessThan(t.Warning) {
		return fmt.Errorf("umbrales inválidos: warning=%s critical=%s", t.Warning, t.Critical)
	}
	return nil
}

// Classify asigna el nivel para una magnitud (se usa su valor absoluto).
func Classify(magnitude decimal.Decimal, t Thresholds) AlertLevel {
	m := magnitude.Abs()
	switch {
	case m.LessThanOrEqual(t.Warning):
		return AlertOK
	case m.LessThanOrEqual(t.Critical):
		return AlertWarning
	default:
		return AlertCritical
	}
}

// Result varianza de una comparación de cantidades.
// VarianceQty positivo = sobrante, negativo = faltante.
type Result struct {
	ExpectedQty     decimal.Decimal
	ActualQty       decimal.Decimal
	VarianceQty     decimal.Decimal
	VariancePercent decimal.Decimal
	VarianceValue   *decimal.Decimal // nil si no se suministró costo unitario
	AlertLevel      AlertLevel
}

// Reconcile compara actual contra expected.
// Con expected == 0 el porcentaje es 0 si no hay varianza y 100 en cualquier otro caso.
func Reconcile(expected, actual decimal.Decimal, unitCost *decimal.Decimal, t Thresholds) Result {
	variance := actual.Sub(expected)

	var pct decimal.Decimal
	switch {
	case expected.IsZero() && variance.IsZero():
		pct = decimal.Zero
	case expected.IsZero():
		pct = hundred
	default:
		pct = variance.Div(expected).Mul(hundred)
	}

	res := Result{
		ExpectedQty:     expected,
		ActualQty:       actual,
		VarianceQty:     variance,
		VariancePercent: pct,
		AlertLevel:      Classify(pct, t),
	}
	if unitCost != nil {
		v := variance.Mul(*unitCost)
		res.VarianceValue = &v
	}
	return res
}

// Deviation desviación absoluta de una medición (temperatura, humedad) respecto a su objetivo.
type Deviation struct {
	Target     decimal.Decimal
	Observed   decimal.Decimal
	Deviation  decimal.Decimal
	AlertLevel AlertLevel
}

// ReconcileAbsolute clasifica |observed - target| con umbrales en la misma unidad de la medición.
func ReconcileAbsolute(target, observed decimal.Decimal, t Thresholds) Deviation {
	dev := observed.Sub(target)
	return Deviation{
		Target:     target,
		Observed:   observed,
		Deviation:  dev,
		AlertLevel: Classify(dev, t),
	}
}

// Summary agregado de varias líneas.
type Summary struct {
	Lines         int
	ExpectedQty   decimal.Decimal
	ActualQty     decimal.Decimal
	VarianceQty   decimal.Decimal
	VarianceValue decimal.Decimal
	WorstLevel    AlertLevel
}

// Summarize suma los resultados. Las cantidades solo son comparables si comparten unidad;
// el llamador decide si el total tiene sentido.
func Summarize(results []Result) Summary {
	s := Summary{WorstLevel: AlertOK}
	for _, r := range results {
		s.Lines++
		s.ExpectedQty = s.ExpectedQty.Add(r.ExpectedQty)
		s.ActualQty = s.ActualQty.Add(r.ActualQty)
		s.VarianceQty = s.VarianceQty.Add(r.VarianceQty)
		if r.VarianceValue != nil {
			s.VarianceValue = s.VarianceValue.Add(*r.VarianceValue)
		}
		s.WorstLevel = s.WorstLevel.Worse(r.AlertLevel)
	}
	return s
}
