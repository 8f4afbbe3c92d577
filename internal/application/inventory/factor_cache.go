package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
	"github.com/jhoicas/Inventario-erp/internal/domain/uom"
)

// FactorCache mantiene en memoria la tabla de unidades y factores de cada empresa.
// Las tablas son de solo lectura una vez construidas; Invalidate obliga a recargar.
type FactorCache struct {
	repo repository.UOMRepository

	mu     sync.RWMutex
	tables map[string]*uom.Table
}

// NewFactorCache construye la caché sobre el repositorio de unidades.
func NewFactorCache(repo repository.UOMRepository) *FactorCache {
	return &FactorCache{repo: repo, tables: make(map[string]*uom.Table)}
}

// Table devuelve la tabla de la empresa, cargándola la primera vez.
func (c *FactorCache) Table(ctx context.Context, companyID string) (*uom.Table, error) {
	c.mu.RLock()
	t, ok := c.tables[companyID]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	units, err := c.repo.ListUnits(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listar unidades: %w", err)
	}
	factors, err := c.repo.ListFactors(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("listar factores: %w", err)
	}
	t, err = uom.NewTable(units, factors)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// otra goroutine pudo cargarla mientras tanto; conservar la primera
	if existing, ok := c.tables[companyID]; ok {
		return existing, nil
	}
	c.tables[companyID] = t
	return t, nil
}

// Invalidate descarta la tabla de una empresa (tras cambiar unidades o factores).
func (c *FactorCache) Invalidate(companyID string) {
	c.mu.Lock()
	delete(c.tables, companyID)
	c.mu.Unlock()
}
