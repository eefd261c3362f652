package repository

import (
	"context"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// SubmissionRepository define el puerto de persistencia del historial de envíos.
type SubmissionRepository interface {
	// Save guarda la ejecución y sus eventos en una sola transacción.
	Save(ctx context.Context, rec *entity.SubmissionRecord) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.SubmissionRecord, error)
	// ListStrayDrafts lista ejecuciones que terminaron en Draft, más recientes primero.
	ListStrayDrafts(ctx context.Context, limit, offset int) ([]*entity.SubmissionRecord, error)
}
