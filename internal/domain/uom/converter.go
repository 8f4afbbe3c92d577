// Package uom convierte cantidades entre unidades de medida con una tabla de factores
// suministrada por el llamador. Solo resuelve factores directos o su inverso: una ruta por
// una unidad intermedia (kg→g→mg sin kg→mg registrado) no se resuelve y falla con NoConversionPath.
package uom

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// FactorLookup consulta un factor dirigido (from → to). ok=false si no está registrado.
type FactorLookup interface {
	Factor(fromUomID, toUomID string) (decimal.Decimal, bool)
}

// Convert lleva qty de from a to.
// Misma unidad: identidad sin consultar factores. Tipos distintos: IncompatibleUnitType.
// Busca el factor directo y, si no existe, divide por el inverso.
func Convert(qty decimal.Decimal, from, to entity.UnitOfMeasure, factors FactorLookup) (decimal.Decimal, error) {
	if from.ID == to.ID {
		return qty, nil
	}
	if from.Type != to.Type {
		return decimal.Zero, &domain.IncompatibleUnitTypeError{
			FromUom:  from.Code,
			ToUom:    to.Code,
			FromType: string(from.Type),
			ToType:   string(to.Type),
		}
	}
	if factors != nil {
		if f, ok := factors.Factor(from.ID, to.ID); ok {
			return qty.Mul(f), nil
		}
		if f, ok := factors.Factor(to.ID, from.ID); ok {
			return qty.Div(f), nil
		}
	}
	return decimal.Zero, &domain.NoConversionPathError{FromUom: from.Code, ToUom: to.Code}
}

type pair struct {
	from, to string
}

// Table tabla de unidades y factores de una empresa. Inmutable tras NewTable, por lo que puede
// compartirse entre solicitudes concurrentes.
type Table struct {
	units   map[string]entity.UnitOfMeasure
	factors map[pair]decimal.Decimal
}

var _ FactorLookup = (*Table)(nil)

// NewTable valida y construye la tabla. Rechaza factores <= 0, factor 1 entre unidades distintas,
// pares de la misma unidad, unidades no registradas, pares de tipos distintos y un par cuyo
// inverso ya está registrado.
func NewTable(units []entity.UnitOfMeasure, factors []entity.ConversionFactor) (*Table, error) {
	t := &Table{
		units:   make(map[string]entity.UnitOfMeasure, len(units)),
		factors: make(map[pair]decimal.Decimal, len(factors)),
	}
	for _, u := range units {
		if u.ID == "" || !u.Type.Valid() {
			return nil, domain.NewInvariantViolation("invalid_uom", "id="+u.ID, "code="+u.Code, "type="+string(u.Type))
		}
		t.units[u.ID] = u
	}
	for _, f := range factors {
		if err := t.addFactor(f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) addFactor(f entity.ConversionFactor) error {
	vals := []string{"from=" + f.FromUomID, "to=" + f.ToUomID, "factor=" + f.Factor.String()}
	if f.FromUomID == f.ToUomID {
		return domain.NewInvariantViolation("same_unit_factor", vals...)
	}
	if !f.Factor.IsPositive() {
		return domain.NewInvariantViolation("non_positive_factor", vals...)
	}
	if f.Factor.Equal(decimal.NewFromInt(1)) {
		return domain.NewInvariantViolation("identity_factor", vals...)
	}
	from, okFrom := t.units[f.FromUomID]
	to, okTo := t.units[f.ToUomID]
	if !okFrom || !okTo {
		return domain.NewInvariantViolation("unknown_uom", vals...)
	}
	if from.Type != to.Type {
		return domain.NewInvariantViolation("factor_type_mismatch", append(vals, "from_type="+string(from.Type), "to_type="+string(to.Type))...)
	}
	if _, dup := t.factors[pair{f.FromUomID, f.ToUomID}]; dup {
		return domain.NewInvariantViolation("duplicate_factor", vals...)
	}
	// El inverso siempre se deriva; guardarlo permitiría dos factores contradictorios.
	if _, rev := t.factors[pair{f.ToUomID, f.FromUomID}]; rev {
		return domain.NewInvariantViolation("reverse_factor_registered", vals...)
	}
	t.factors[pair{f.FromUomID, f.ToUomID}] = f.Factor
	return nil
}

// Unit devuelve la unidad registrada con ese ID.
func (t *Table) Unit(id string) (entity.UnitOfMeasure, bool) {
	if t == nil {
		return entity.UnitOfMeasure{}, false
	}
	u, ok := t.units[id]
	return u, ok
}

// Factor implementa FactorLookup.
func (t *Table) Factor(fromUomID, toUomID string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	f, ok := t.factors[pair{fromUomID, toUomID}]
	return f, ok
}

// Convert convierte entre IDs de unidad registrados en la tabla. Un ID que la tabla no conoce
// falla con la regla unknown_uom.
func (t *Table) Convert(qty decimal.Decimal, fromUomID, toUomID string) (decimal.Decimal, error) {
	if fromUomID == toUomID {
		return qty, nil
	}
	from, ok := t.Unit(fromUomID)
	if !ok {
		return decimal.Zero, unknownUnit(fromUomID)
	}
	to, ok := t.Unit(toUomID)
	if !ok {
		return decimal.Zero, unknownUnit(toUomID)
	}
	return Convert(qty, from, to, t)
}

func unknownUnit(id string) error {
	return domain.NewInvariantViolation("unknown_uom", "uom="+id)
}

// Len cantidad de factores registrados.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.factors)
}
