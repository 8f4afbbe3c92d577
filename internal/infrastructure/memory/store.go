// Package memory implementa los puertos de persistencia en memoria (APP_STORE=memory, pruebas y demos).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-erp/internal/application/inventory"
	"github.com/jhoicas/Inventario-erp/internal/domain"
	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

var (
	_ repository.DocumentRepository       = (*DocumentRepo)(nil)
	_ repository.LedgerMovementRepository = (*MovementRepo)(nil)
	_ repository.StockRepository          = (*StockRepo)(nil)
	_ repository.ProductCostRepository    = (*CostRepo)(nil)
	_ repository.SequenceRepository       = (*SequenceRepo)(nil)
	_ repository.UOMRepository            = (*UOMRepo)(nil)
	_ inventory.TxRunner                  = (*TxRunner)(nil)
)

type costKey struct {
	companyID string
	productID string
}

type seqKey struct {
	companyID string
	prefix    string
	period    string
}

type state struct {
	docs      map[string]entity.Document
	movements []entity.LedgerMovement
	stock     map[repository.StockKey]entity.Stock
	costs     map[costKey]entity.ProductCost
	seq       map[seqKey]int64
}

func (s state) clone() state {
	out := state{
		docs:      make(map[string]entity.Document, len(s.docs)),
		movements: append([]entity.LedgerMovement(nil), s.movements...),
		stock:     make(map[repository.StockKey]entity.Stock, len(s.stock)),
		costs:     make(map[costKey]entity.ProductCost, len(s.costs)),
		seq:       make(map[seqKey]int64, len(s.seq)),
	}
	for k, v := range s.docs {
		out.docs[k] = v.Clone()
	}
	for k, v := range s.stock {
		out.stock[k] = v
	}
	for k, v := range s.costs {
		out.costs[k] = v
	}
	for k, v := range s.seq {
		out.seq[k] = v
	}
	return out
}

// Store guarda todo bajo un único mutex. Las transacciones lo toman completo y restauran
// una copia del estado si la función falla.
type Store struct {
	mu sync.Mutex
	state

	units   map[string][]entity.UnitOfMeasure
	factors map[string][]entity.ConversionFactor
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		state: state{
			docs:  make(map[string]entity.Document),
			stock: make(map[repository.StockKey]entity.Stock),
			costs: make(map[costKey]entity.ProductCost),
			seq:   make(map[seqKey]int64),
		},
		units:   make(map[string][]entity.UnitOfMeasure),
		factors: make(map[string][]entity.ConversionFactor),
	}
}

// guard toma el mutex salvo cuando el repo ya corre dentro de una transacción.
func (s *Store) guard(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Documents() *DocumentRepo { return &DocumentRepo{s: s} }
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }
func (s *Store) Stock() *StockRepo { return &StockRepo{s: s} }
func (s *Store) Costs() *CostRepo { return &CostRepo{s: s} }
func (s *Store) Sequences() *SequenceRepo { return &SequenceRepo{s: s} }
func (s *Store) UOMs() *UOMRepo { return &UOMRepo{s: s} }
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// SetUnits reemplaza unidades y factores de una empresa.
func (s *Store) SetUnits(companyID string, units []entity.UnitOfMeasure, factors []entity.ConversionFactor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[companyID] = append([]entity.UnitOfMeasure(nil), units...)
	s.factors[companyID] = append([]entity.ConversionFactor(nil), factors...)
}

// SetStock fija la existencia de una fila.
func (s *Store) SetStock(key repository.StockKey, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[key] = entity.Stock{
		CompanyID: key.CompanyID, ProductID: key.ProductID, LocationID: key.LocationID, LotID: key.LotID,
		Quantity: qty, UpdatedAt: time.Now(),
	}
}

// SetCost fija el costo promedio de un producto.
func (s *Store) SetCost(companyID, productID string, cost decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.costs[costKey{companyID, productID}] = entity.ProductCost{CompanyID: companyID, ProductID: productID, Cost: cost, UpdatedAt: time.Now()}
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones
// ──────────────────────────────────────────────────────────────────────────────

// TxRunner ejecuta fn con el almacén bloqueado; si fn falla el estado vuelve al previo.
type TxRunner struct {
	s *Store
}

func (r *TxRunner) Run(_ context.Context, fn func(
	docRepo repository.DocumentRepository,
	movRepo repository.LedgerMovementRepository,
	stockRepo repository.StockRepository,
	costRepo repository.ProductCostRepository,
) error) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state.clone()
	err := fn(
		&DocumentRepo{s: s, inTx: true},
		&MovementRepo{s: s, inTx: true},
		&StockRepo{s: s, inTx: true},
		&CostRepo{s: s, inTx: true},
	)
	if err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos
// ──────────────────────────────────────────────────────────────────────────────

type DocumentRepo struct {
	s    *Store
	inTx bool
}

func (r *DocumentRepo) Create(_ context.Context, doc *entity.Document) error {
	defer r.s.guard(r.inTx)()
	if _, ok := r.s.docs[doc.Header.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.docs[doc.Header.ID] = doc.Clone()
	return nil
}

func (r *DocumentRepo) GetByID(_ context.Context, companyID, id string) (*entity.Document, error) {
	defer r.s.guard(r.inTx)()
	doc, ok := r.s.docs[id]
	if !ok || doc.Header.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	out := doc.Clone()
	return &out, nil
}

func (r *DocumentRepo) Save(_ context.Context, doc *entity.Document, expectedStatus entity.Status) error {
	defer r.s.guard(r.inTx)()
	current, ok := r.s.docs[doc.Header.ID]
	if !ok || current.Header.CompanyID != doc.Header.CompanyID {
		return domain.ErrNotFound
	}
	if current.Header.Status != expectedStatus {
		return fmt.Errorf("%w: documento %s está en %s, se esperaba %s",
			domain.ErrConflict, doc.Header.ID, current.Header.Status, expectedStatus)
	}
	r.s.docs[doc.Header.ID] = doc.Clone()
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos, stock y costos
// ──────────────────────────────────────────────────────────────────────────────

type MovementRepo struct {
	s    *Store
	inTx bool
}

func (r *MovementRepo) Create(_ context.Context, m *entity.LedgerMovement) error {
	defer r.s.guard(r.inTx)()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *MovementRepo) ListByReference(_ context.Context, companyID string, refType entity.DocumentKind, refID string) ([]*entity.LedgerMovement, error) {
	defer r.s.guard(r.inTx)()
	var list []*entity.LedgerMovement
	for i := range r.s.movements {
		m := r.s.movements[i]
		if m.CompanyID == companyID && m.RefType == refType && m.RefID == refID {
			list = append(list, &m)
		}
	}
	return list, nil
}

type StockRepo struct {
	s    *Store
	inTx bool
}

func (r *StockRepo) Get(_ context.Context, key repository.StockKey) (*entity.Stock, error) {
	defer r.s.guard(r.inTx)()
	return r.get(key), nil
}

// GetForUpdate en memoria el bloqueo ya lo da la transacción.
func (r *StockRepo) GetForUpdate(ctx context.Context, key repository.StockKey) (*entity.Stock, error) {
	return r.Get(ctx, key)
}

func (r *StockRepo) get(key repository.StockKey) *entity.Stock {
	if st, ok := r.s.stock[key]; ok {
		return &st
	}
	return &entity.Stock{
		CompanyID: key.CompanyID, ProductID: key.ProductID, LocationID: key.LocationID, LotID: key.LotID,
		Quantity: decimal.Zero,
	}
}

func (r *StockRepo) Upsert(_ context.Context, st *entity.Stock) error {
	defer r.s.guard(r.inTx)()
	key := repository.StockKey{CompanyID: st.CompanyID, ProductID: st.ProductID, LocationID: st.LocationID, LotID: st.LotID}
	r.s.stock[key] = *st
	return nil
}

type CostRepo struct {
	s    *Store
	inTx bool
}

func (r *CostRepo) GetCost(_ context.Context, companyID, productID string) (*entity.ProductCost, error) {
	defer r.s.guard(r.inTx)()
	if c, ok := r.s.costs[costKey{companyID, productID}]; ok {
		return &c, nil
	}
	return &entity.ProductCost{CompanyID: companyID, ProductID: productID, Cost: decimal.Zero}, nil
}

func (r *CostRepo) UpdateCost(_ context.Context, companyID, productID string, cost decimal.Decimal) error {
	defer r.s.guard(r.inTx)()
	r.s.costs[costKey{companyID, productID}] = entity.ProductCost{
		CompanyID: companyID, ProductID: productID, Cost: cost, UpdatedAt: time.Now(),
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Consecutivos y unidades
// ──────────────────────────────────────────────────────────────────────────────

type SequenceRepo struct {
	s *Store
}

func (r *SequenceRepo) Next(_ context.Context, companyID, prefix, period string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := seqKey{companyID, prefix, period}
	r.s.seq[k]++
	return r.s.seq[k], nil
}

type UOMRepo struct {
	s *Store
}

func (r *UOMRepo) ListUnits(_ context.Context, companyID string) ([]entity.UnitOfMeasure, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	units := append([]entity.UnitOfMeasure(nil), r.s.units[companyID]...)
	sort.Slice(units, func(i, j int) bool { return units[i].Code < units[j].Code })
	return units, nil
}

func (r *UOMRepo) ListFactors(_ context.Context, companyID string) ([]entity.ConversionFactor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]entity.ConversionFactor(nil), r.s.factors[companyID]...), nil
}
