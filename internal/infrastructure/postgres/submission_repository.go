package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/docflow-erp/internal/domain"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
	"github.com/jhoicas/docflow-erp/internal/domain/repository"
)

var _ repository.SubmissionRepository = (*SubmissionRepo)(nil)

// SubmissionRepo implementación de SubmissionRepository sobre las tablas submissions y submission_events.
type SubmissionRepo struct {
	q  Querier
	tx *TxRunner
}

// NewSubmissionRepository construye el adaptador sobre el pool.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{q: pool, tx: NewTxRunner(pool)}
}

const submissionColumns = `id, kind, party_name, company_name, document_id, final_state, total, currency,
	failed_step, error_kind, remediation, error_message, created_at`

// Save persiste la ejecución con todos sus eventos en una transacción.
func (r *SubmissionRepo) Save(ctx context.Context, rec *entity.SubmissionRecord) error {
	return r.tx.Run(ctx, func(q Querier) error {
		query := `
			INSERT INTO submissions (id, kind, party_name, company_name, document_id, final_state, total, currency,
				failed_step, error_kind, remediation, error_message)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at`
		err := q.QueryRow(ctx, query,
			rec.ID, string(rec.Kind), rec.PartyName, rec.CompanyName, nullIfEmpty(rec.DocumentID), rec.FinalState,
			rec.Total, rec.Currency, nullIfEmpty(rec.FailedStep), nullIfEmpty(rec.ErrorKind),
			nullIfEmpty(rec.Remediation), nullIfEmpty(rec.ErrorMessage),
		).Scan(&rec.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return fmt.Errorf("insert submission: %w", err)
		}

		for _, ev := range rec.Events {
			_, err := q.Exec(ctx,
				`INSERT INTO submission_events (submission_id, sequence, message, emitted_at) VALUES ($1, $2, $3, $4)`,
				rec.ID, ev.Sequence, ev.Message, ev.Timestamp,
			)
			if err != nil {
				return fmt.Errorf("insert submission event %d: %w", ev.Sequence, err)
			}
		}
		return nil
	})
}

// GetByID obtiene una ejecución con sus eventos. (nil, nil) si no existe.
func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (*entity.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	rec, err := scanSubmission(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}

	events, err := r.events(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Events = events
	return rec, nil
}

// ListStrayDrafts ejecuciones que dejaron un borrador sin enviar, más recientes primero.
// No carga los eventos.
func (r *SubmissionRepo) ListStrayDrafts(ctx context.Context, limit, offset int) ([]*entity.SubmissionRecord, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE final_state = $1 AND document_id IS NOT NULL
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, entity.FinalStateDraft, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stray drafts: %w", err)
	}
	defer rows.Close()

	var list []*entity.SubmissionRecord
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *SubmissionRepo) events(ctx context.Context, id string) ([]entity.StatusEvent, error) {
	rows, err := r.q.Query(ctx,
		`SELECT sequence, message, emitted_at FROM submission_events WHERE submission_id = $1 ORDER BY sequence`, id)
	if err != nil {
		return nil, fmt.Errorf("list submission events: %w", err)
	}
	defer rows.Close()

	var events []entity.StatusEvent
	for rows.Next() {
		var ev entity.StatusEvent
		if err := rows.Scan(&ev.Sequence, &ev.Message, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan submission event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanSubmission(row pgx.Row) (*entity.SubmissionRecord, error) {
	var rec entity.SubmissionRecord
	var kind string
	var documentID, failedStep, errorKind, remedy, msg *string
	err := row.Scan(
		&rec.ID, &kind, &rec.PartyName, &rec.CompanyName, &documentID, &rec.FinalState, &rec.Total, &rec.Currency,
		&failedStep, &errorKind, &remedy, &msg, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Kind = entity.DocumentKind(kind)
	rec.DocumentID = deref(documentID)
	rec.FailedStep = deref(failedStep)
	rec.ErrorKind = deref(errorKind)
	rec.Remediation = deref(remedy)
	rec.ErrorMessage = deref(msg)
	return &rec, nil
}
