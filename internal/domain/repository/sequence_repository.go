package repository

import "context"

// SequenceRepository entrega el siguiente consecutivo por empresa, prefijo y periodo (YYYYMM).
// Debe ser atómico: dos llamadas concurrentes nunca reciben el mismo valor.
type SequenceRepository interface {
	Next(ctx context.Context, companyID, prefix, period string) (int64, error)
}
