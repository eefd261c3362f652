package submission_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/internal/application/submission/submissiontest"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

type memoryHistory struct {
	saved   []*entity.SubmissionRecord
	saveErr error
}

func (m *memoryHistory) Save(_ context.Context, rec *entity.SubmissionRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, rec)
	return nil
}

func (m *memoryHistory) GetByID(_ context.Context, id string) (*entity.SubmissionRecord, error) {
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memoryHistory) ListStrayDrafts(_ context.Context, _, _ int) ([]*entity.SubmissionRecord, error) {
	return nil, nil
}

func TestUseCase_GuardaHistorial(t *testing.T) {
	erp := submissiontest.NewFakeERP()
	erp.FailOn("PUT", "Sales Invoice", errors.New("connection refused"))
	history := &memoryHistory{}
	uc := submission.NewUseCase(newOrchestrator(erp), history, zerolog.Nop())

	res, err := uc.Submit(context.Background(), invoiceHeader(), nil)
	require.Error(t, err)

	require.Len(t, history.saved, 1)
	rec := history.saved[0]
	assert.Equal(t, res.RunID, rec.ID)
	assert.Equal(t, "Jane Doe", rec.PartyName)
	assert.Equal(t, entity.FinalStateDraft, rec.FinalState)
	assert.True(t, rec.IsStrayDraft())
	assert.Equal(t, "submit", rec.FailedStep)
	assert.Equal(t, "Connectivity", rec.ErrorKind)
	assert.Len(t, rec.Events, len(res.Events))
}

func TestUseCase_ValidacionNoSeGuarda(t *testing.T) {
	history := &memoryHistory{}
	uc := submission.NewUseCase(newOrchestrator(submissiontest.NewFakeERP()), history, zerolog.Nop())
	h := invoiceHeader()
	h.Charges.Tax = decimal.NewFromInt(-1)

	_, err := uc.Submit(context.Background(), h, nil)
	require.Error(t, err)
	assert.Empty(t, history.saved)
}

func TestUseCase_ErrorDeHistorialNoAfectaResultado(t *testing.T) {
	history := &memoryHistory{saveErr: errors.New("db down")}
	uc := submission.NewUseCase(newOrchestrator(submissiontest.NewFakeERP()), history, zerolog.Nop())

	res, err := uc.Submit(context.Background(), invoiceHeader(), nil)
	require.NoError(t, err)
	assert.Equal(t, entity.FinalStateSubmitted, res.FinalState)
}

func TestUseCase_SinRepositorio(t *testing.T) {
	uc := submission.NewUseCase(newOrchestrator(submissiontest.NewFakeERP()), nil, zerolog.Nop())
	res, err := uc.Submit(context.Background(), purchaseOrderHeader(), nil)
	require.NoError(t, err)
	assert.Equal(t, entity.FinalStateSubmitted, res.FinalState)
}
