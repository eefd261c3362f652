// Package history expone el historial de envíos: consulta por ID, borradores
// abandonados en el ERP y el comprobante PDF de cada ejecución.
package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/docflow-erp/internal/application/dto"
	"github.com/jhoicas/docflow-erp/internal/domain"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
	"github.com/jhoicas/docflow-erp/internal/domain/repository"
)

// ReceiptGenerator puerto de generación del comprobante PDF.
type ReceiptGenerator interface {
	GenerateReceipt(ctx context.Context, rec *entity.SubmissionRecord) ([]byte, error)
}

// UseCase consultas sobre el historial. repo nil = base de datos no configurada.
type UseCase struct {
	repo     repository.SubmissionRepository
	receipts ReceiptGenerator
}

// NewUseCase constructor.
func NewUseCase(repo repository.SubmissionRepository, receipts ReceiptGenerator) *UseCase {
	return &UseCase{repo: repo, receipts: receipts}
}

// Get devuelve una ejecución por ID.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.SubmissionRecord, error) {
	if uc.repo == nil {
		return nil, fmt.Errorf("%w: submission history is not configured", domain.ErrUnavailable)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: id must be a UUID", domain.ErrInvalidInput)
	}
	rec, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ListStrayDrafts ejecuciones que dejaron un borrador sin enviar.
func (uc *UseCase) ListStrayDrafts(ctx context.Context, page dto.PageRequest) ([]*entity.SubmissionRecord, error) {
	if uc.repo == nil {
		return nil, fmt.Errorf("%w: submission history is not configured", domain.ErrUnavailable)
	}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	return uc.repo.ListStrayDrafts(ctx, page.Limit, page.Offset)
}

// Receipt genera el comprobante PDF de una ejecución.
func (uc *UseCase) Receipt(ctx context.Context, id string) ([]byte, error) {
	rec, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if uc.receipts == nil {
		return nil, fmt.Errorf("%w: receipt generator is not configured", domain.ErrUnavailable)
	}
	return uc.receipts.GenerateReceipt(ctx, rec)
}
