package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Taxonomía del núcleo de conciliación de documentos.
	ErrIncompatibleUnitType  = errors.New("unidades de medida de tipo incompatible")
	ErrNoConversionPath      = errors.New("no existe factor de conversión")
	ErrInvalidTransition     = errors.New("transición de estado no permitida")
	ErrMissingActualQuantity = errors.New("líneas sin cantidad real registrada")
	ErrInvariantViolation    = errors.New("violación de invariante de dominio")
)

// Nombres de regla expuestos en logs y respuestas HTTP.
const (
	RuleIncompatibleUnitType  = "incompatible_unit_type"
	RuleNoConversionPath      = "no_conversion_path"
	RuleInvalidTransition     = "invalid_transition"
	RuleMissingActualQuantity = "missing_actual_quantity"
)

// RuleError lo implementan los errores estructurados: nombre de la regla violada.
type RuleError interface {
	error
	Rule() string
}

// RuleOf devuelve el nombre de la regla de un error estructurado (vacío si no lo es).
func RuleOf(err error) string {
	var re RuleError
	if errors.As(err, &re) {
		return re.Rule()
	}
	return ""
}

// IncompatibleUnitTypeError conversión pedida entre UOM de distinto tipo físico.
type IncompatibleUnitTypeError struct {
	FromUom  string
	ToUom    string
	FromType string
	ToType   string
}

func (e *IncompatibleUnitTypeError) Error() string {
	return fmt.Sprintf("%s: from=%s(%s) to=%s(%s)", RuleIncompatibleUnitType, e.FromUom, e.FromType, e.ToUom, e.ToType)
}

func (e *IncompatibleUnitTypeError) Rule() string { return RuleIncompatibleUnitType }

func (e *IncompatibleUnitTypeError) Is(target error) bool { return target == ErrIncompatibleUnitType }

// NoConversionPathError no hay factor directo ni inverso registrado.
type NoConversionPathError struct {
	FromUom string
	ToUom   string
}

func (e *NoConversionPathError) Error() string {
	return fmt.Sprintf("%s: from=%s to=%s", RuleNoConversionPath, e.FromUom, e.ToUom)
}

func (e *NoConversionPathError) Rule() string { return RuleNoConversionPath }

func (e *NoConversionPathError) Is(target error) bool { return target == ErrNoConversionPath }

// InvalidTransitionError cambio de estado no listado en la tabla del tipo de documento.
type InvalidTransitionError struct {
	Kind string
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: kind=%s from=%s to=%s", RuleInvalidTransition, e.Kind, e.From, e.To)
}

func (e *InvalidTransitionError) Rule() string { return RuleInvalidTransition }

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// MissingActualQuantityError se intenta completar o contabilizar con líneas sin cantidad real.
type MissingActualQuantityError struct {
	Kind       string
	DocumentID string
	LineIDs    []string
}

func (e *MissingActualQuantityError) Error() string {
	return fmt.Sprintf("%s: kind=%s document=%s lines=[%s]",
		RuleMissingActualQuantity, e.Kind, e.DocumentID, strings.Join(e.LineIDs, ","))
}

func (e *MissingActualQuantityError) Rule() string { return RuleMissingActualQuantity }

func (e *MissingActualQuantityError) Is(target error) bool { return target == ErrMissingActualQuantity }

// InvariantViolationError chequeos propios del dominio (misma bodega, factor inválido, etc.).
// RuleName identifica la invariante; Values lleva los valores que la violaron, en orden.
type InvariantViolationError struct {
	RuleName string
	Values   []string
}

// NewInvariantViolation construye el error a partir de pares clave=valor ya formateados.
func NewInvariantViolation(rule string, values ...string) *InvariantViolationError {
	return &InvariantViolationError{RuleName: rule, Values: values}
}

func (e *InvariantViolationError) Error() string {
	if len(e.Values) == 0 {
		return e.RuleName
	}
	return e.RuleName + ": " + strings.Join(e.Values, " ")
}

func (e *InvariantViolationError) Rule() string { return e.RuleName }

func (e *InvariantViolationError) Is(target error) bool { return target == ErrInvariantViolation }
