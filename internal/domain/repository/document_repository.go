package repository

import (
	"context"

	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
)

// DocumentRepository define el puerto de persistencia para documentos de inventario (cabecera + líneas).
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	// GetByID devuelve domain.ErrNotFound si el documento no existe o es de otra empresa.
	GetByID(ctx context.Context, companyID, id string) (*entity.Document, error)
	// Save reemplaza cabecera y líneas solo si el estado almacenado sigue siendo expectedStatus
	// (compare-and-swap). Si otro proceso ya lo cambió devuelve domain.ErrConflict.
	Save(ctx context.Context, doc *entity.Document, expectedStatus entity.Status) error
}
