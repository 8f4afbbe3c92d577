package statemachine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	sm "github.com/jhoicas/Inventario-erp/internal/domain/statemachine"
)

// allStatuses todos los estados conocidos, para barrer pares fuera del vocabulario de cada tipo.
var allStatuses = []entity.Status{
	entity.StatusDraft, entity.StatusRequested, entity.StatusApproved, entity.StatusRejected,
	entity.StatusSent, entity.StatusReleased, entity.StatusInProgress, entity.StatusCompleted,
	entity.StatusPosted, entity.StatusCancelled, "unknown",
}

// expected tablas escritas a mano: si cambia una transición el test debe actualizarse a propósito.
var expected = map[entity.DocumentKind]map[entity.Status][]entity.Status{
	entity.KindTransfer: {
		entity.StatusDraft:     {entity.StatusApproved, entity.StatusSent, entity.StatusCancelled},
		entity.StatusApproved:  {entity.StatusSent, entity.StatusCancelled},
		entity.StatusSent:      {entity.StatusCompleted},
		entity.StatusCompleted: {entity.StatusPosted},
	},
	entity.KindReturnOrder: {
		entity.StatusRequested: {entity.StatusApproved, entity.StatusRejected},
		entity.StatusApproved:  {entity.StatusPosted, entity.StatusCompleted},
	},
	entity.KindStockCount: {
		entity.StatusDraft:      {entity.StatusInProgress},
		entity.StatusInProgress: {entity.StatusCompleted},
		entity.StatusCompleted:  {entity.StatusPosted},
	},
	entity.KindProductionOrder: {
		entity.StatusDraft:      {entity.StatusReleased, entity.StatusCancelled},
		entity.StatusReleased:   {entity.StatusInProgress, entity.StatusCancelled},
		entity.StatusInProgress: {entity.StatusCompleted},
		entity.StatusCompleted:  {entity.StatusPosted},
	},
}

func listed(kind entity.DocumentKind, from, to entity.Status) bool {
	for _, s := range expected[kind][from] {
		if s == to {
			return true
		}
	}
	return false
}

// TestCanTransition_Exhaustivo recorre todos los pares (origen, destino) de cada tipo:
// solo las transiciones listadas son legales.
func TestCanTransition_Exhaustivo(t *testing.T) {
	for _, kind := range sm.Kinds() {
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				assert.Equal(t, listed(kind, from, to), sm.CanTransition(kind, from, to),
					"kind=%s from=%s to=%s", kind, from, to)
			}
		}
	}
}

func TestEdges_CoincidenConLaTabla(t *testing.T) {
	for kind, table := range expected {
		got := sm.Edges(kind)
		assert.Len(t, got, len(table), "kind=%s", kind)
		for from, next := range table {
			assert.ElementsMatch(t, next, got[from], "kind=%s from=%s", kind, from)
		}
	}
}

func TestTransition_ErrorTipado(t *testing.T) {
	_, err := sm.Transition(entity.KindStockCount, entity.StatusDraft, entity.StatusPosted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	var typed *domain.InvalidTransitionError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "stock_count", typed.Kind)
	assert.Equal(t, "draft", typed.From)
	assert.Equal(t, "posted", typed.To)
	assert.Equal(t, "invalid_transition: kind=stock_count from=draft to=posted", err.Error())
}

func TestTransition_Legal(t *testing.T) {
	next, err := sm.Transition(entity.KindTransfer, entity.StatusDraft, entity.StatusSent)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, next)
}

func TestStockCount_SinReversa(t *testing.T) {
	assert.False(t, sm.CanTransition(entity.KindStockCount, entity.StatusCompleted, entity.StatusInProgress))
	assert.False(t, sm.CanTransition(entity.KindStockCount, entity.StatusPosted, entity.StatusPosted))
	assert.False(t, sm.CanTransition(entity.KindStockCount, entity.StatusDraft, entity.StatusCompleted))
}

func TestTipoDesconocido(t *testing.T) {
	assert.False(t, sm.CanTransition("invoice", entity.StatusDraft, entity.StatusApproved))
	_, ok := sm.InitialStatus("invoice")
	assert.False(t, ok)
	assert.Nil(t, sm.Allowed("invoice", entity.StatusDraft))
}

func TestTerminales(t *testing.T) {
	cases := map[entity.DocumentKind][]entity.Status{
		entity.KindTransfer:        {entity.StatusPosted, entity.StatusCancelled},
		entity.KindReturnOrder:     {entity.StatusRejected, entity.StatusPosted, entity.StatusCompleted},
		entity.KindStockCount:      {entity.StatusPosted},
		entity.KindProductionOrder: {entity.StatusPosted, entity.StatusCancelled},
	}
	for kind, terminals := range cases {
		for _, s := range sm.Statuses(kind) {
			want := false
			for _, term := range terminals {
				if term == s {
					want = true
				}
			}
			assert.Equal(t, want, sm.IsTerminal(kind, s), "kind=%s status=%s", kind, s)
		}
	}
	assert.False(t, sm.IsTerminal(entity.KindStockCount, entity.StatusRejected), "estado fuera del vocabulario")
}

func TestInitialStatus(t *testing.T) {
	s, ok := sm.InitialStatus(entity.KindReturnOrder)
	require.True(t, ok)
	assert.Equal(t, entity.StatusRequested, s)
	s, _ = sm.InitialStatus(entity.KindTransfer)
	assert.Equal(t, entity.StatusDraft, s)
}

func TestAllowed_DevuelveCopia(t *testing.T) {
	next := sm.Allowed(entity.KindTransfer, entity.StatusDraft)
	require.NotEmpty(t, next)
	next[0] = entity.StatusPosted
	assert.False(t, sm.CanTransition(entity.KindTransfer, entity.StatusDraft, entity.StatusPosted))
}
