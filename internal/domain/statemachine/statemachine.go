// Package statemachine define las transiciones legales de estado por tipo de documento.
// Es una política sin estado: tablas de solo lectura seleccionadas por DocumentKind.
// Confirmar la transición (persistir estado, fecha y actor) le corresponde al orquestador.
package statemachine

import (
	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// Table estado origen → estados destino permitidos.
type Table map[entity.Status][]entity.Status

type definition struct {
	initial  entity.Status
	statuses []entity.Status
	edges    Table
}

var definitions = map[entity.DocumentKind]definition{
	// completed→posted solo lo alcanza la operación de contabilización; no hay cierre manual.
	entity.KindTransfer: {
		initial:  entity.StatusDraft,
		statuses: []entity.Status{entity.StatusDraft, entity.StatusApproved, entity.StatusSent, entity.StatusCompleted, entity.StatusPosted, entity.StatusCancelled},
		edges: Table{
			entity.StatusDraft:     {entity.StatusApproved, entity.StatusSent, entity.StatusCancelled},
			entity.StatusApproved:  {entity.StatusSent, entity.StatusCancelled},
			entity.StatusSent:      {entity.StatusCompleted},
			entity.StatusCompleted: {entity.StatusPosted},
		},
	},
	entity.KindReturnOrder: {
		initial:  entity.StatusRequested,
		statuses: []entity.Status{entity.StatusRequested, entity.StatusApproved, entity.StatusRejected, entity.StatusPosted, entity.StatusCompleted},
		edges: Table{
			entity.StatusRequested: {entity.StatusApproved, entity.StatusRejected},
			entity.StatusApproved:  {entity.StatusPosted, entity.StatusCompleted},
		},
	},
	// estrictamente lineal, sin saltos ni reversas
	entity.KindStockCount: {
		initial:  entity.StatusDraft,
		statuses: []entity.Status{entity.StatusDraft, entity.StatusInProgress, entity.StatusCompleted, entity.StatusPosted},
		edges: Table{
			entity.StatusDraft:      {entity.StatusInProgress},
			entity.StatusInProgress: {entity.StatusCompleted},
			entity.StatusCompleted:  {entity.StatusPosted},
		},
	},
	entity.KindProductionOrder: {
		initial:  entity.StatusDraft,
		statuses: []entity.Status{entity.StatusDraft, entity.StatusReleased, entity.StatusInProgress, entity.StatusCompleted, entity.StatusPosted, entity.StatusCancelled},
		edges: Table{
			entity.StatusDraft:      {entity.StatusReleased, entity.StatusCancelled},
			entity.StatusReleased:   {entity.StatusInProgress, entity.StatusCancelled},
			entity.StatusInProgress: {entity.StatusCompleted},
			entity.StatusCompleted:  {entity.StatusPosted},
		},
	},
}

// CanTransition indica si from → to está listado para el tipo. Tipos o estados desconocidos: false.
func CanTransition(kind entity.DocumentKind, from, to entity.Status) bool {
	def, ok := definitions[kind]
	if !ok {
		return false
	}
	for _, s := range def.edges[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition valida el cambio y devuelve el nuevo estado, o InvalidTransitionError.
// Con un currentStatus desactualizado falla de forma determinista; no reintenta.
func Transition(kind entity.DocumentKind, from, to entity.Status) (entity.Status, error) {
	if !CanTransition(kind, from, to) {
		return from, &domain.InvalidTransitionError{Kind: string(kind), From: string(from), To: string(to)}
	}
	return to, nil
}

// Allowed destinos legales desde from (copia; nil si es terminal o desconocido).
func Allowed(kind entity.DocumentKind, from entity.Status) []entity.Status {
	next := definitions[kind].edges[from]
	if len(next) == 0 {
		return nil
	}
	out := make([]entity.Status, len(next))
	copy(out, next)
	return out
}

// IsTerminal true si el estado pertenece al tipo y no tiene salidas.
func IsTerminal(kind entity.DocumentKind, s entity.Status) bool {
	return HasStatus(kind, s) && len(definitions[kind].edges[s]) == 0
}

// HasStatus indica si s pertenece al vocabulario del tipo.
func HasStatus(kind entity.DocumentKind, s entity.Status) bool {
	for _, st := range definitions[kind].statuses {
		if st == s {
			return true
		}
	}
	return false
}

// Statuses vocabulario completo del tipo (copia).
func Statuses(kind entity.DocumentKind) []entity.Status {
	src := definitions[kind].statuses
	out := make([]entity.Status, len(src))
	copy(out, src)
	return out
}

// InitialStatus estado con el que se crea un documento del tipo.
func InitialStatus(kind entity.DocumentKind) (entity.Status, bool) {
	def, ok := definitions[kind]
	return def.initial, ok
}

// Kinds tipos de documento con tabla registrada, en orden estable.
func Kinds() []entity.DocumentKind {
	return []entity.DocumentKind{
		entity.KindTransfer,
		entity.KindReturnOrder,
		entity.KindStockCount,
		entity.KindProductionOrder,
	}
}

// Edges copia de la tabla de un tipo, para documentación y pruebas.
func Edges(kind entity.DocumentKind) Table {
	src := definitions[kind].edges
	out := make(Table, len(src))
	for k, v := range src {
		out[k] = append([]entity.Status(nil), v...)
	}
	return out
}
