package repository

import (
	"context"

	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// UOMRepository lectura de unidades de medida y factores de conversión de una empresa.
type UOMRepository interface {
	ListUnits(ctx context.Context, companyID string) ([]entity.UnitOfMeasure, error)
	ListFactors(ctx context.Context, companyID string) ([]entity.ConversionFactor, error)
}
