//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/docflow-erp/internal/domain"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
	"github.com/jhoicas/docflow-erp/internal/infrastructure/postgres"
	"github.com/jhoicas/docflow-erp/pkg/config"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("docflow"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	return pool
}

func TestSubmissionRepo(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewSubmissionRepository(newTestPool(t))
	now := time.Now().UTC().Truncate(time.Millisecond)

	draft := &entity.SubmissionRecord{
		ID:           uuid.NewString(),
		Kind:         entity.KindSalesInvoice,
		PartyName:    "Jane Doe",
		CompanyName:  "Acme",
		DocumentID:   "SINV-00001",
		FinalState:   entity.FinalStateDraft,
		Total:        decimal.RequireFromString("300.50"),
		Currency:     "USD",
		FailedStep:   "submit",
		ErrorKind:    "Connectivity",
		Remediation:  "Verify the ERP is running",
		ErrorMessage: "connection refused",
		Events: []entity.StatusEvent{
			{Sequence: 1, Message: `Checking Company "Acme"...`, Timestamp: now},
			{Sequence: 2, Message: `Company "Acme" already exists`, Timestamp: now},
		},
	}
	submitted := &entity.SubmissionRecord{
		ID:          uuid.NewString(),
		Kind:        entity.KindPurchaseOrder,
		PartyName:   "ABC Supplier",
		CompanyName: "Acme",
		DocumentID:  "PO-00001",
		FinalState:  entity.FinalStateSubmitted,
		Total:       decimal.NewFromInt(250),
		Currency:    "USD",
	}

	t.Run("Save y GetByID", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, draft))
		require.NoError(t, repo.Save(ctx, submitted))
		assert.False(t, draft.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, draft.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, draft.DocumentID, got.DocumentID)
		assert.True(t, draft.Total.Equal(got.Total))
		assert.Equal(t, "Connectivity", got.ErrorKind)
		require.Len(t, got.Events, 2)
		assert.Equal(t, 2, got.Events[1].Sequence)
	})

	t.Run("Duplicado", func(t *testing.T) {
		assert.ErrorIs(t, repo.Save(ctx, submitted), domain.ErrDuplicate)
	})

	t.Run("No existe", func(t *testing.T) {
		got, err := repo.GetByID(ctx, uuid.NewString())
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Borradores sueltos", func(t *testing.T) {
		list, err := repo.ListStrayDrafts(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, draft.ID, list[0].ID)
		assert.True(t, list[0].IsStrayDraft())
	})
}
