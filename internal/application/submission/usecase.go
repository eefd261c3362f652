package submission

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
	"github.com/jhoicas/docflow-erp/internal/domain/repository"
)

const historySaveTimeout = 5 * time.Second

// UseCase punto de entrada de la capa de aplicación: ejecuta el orquestador y
// guarda el historial de la ejecución cuando hay repositorio configurado.
type UseCase struct {
	orchestrator *Orchestrator
	history      repository.SubmissionRepository // nil si no hay base de datos
	log          zerolog.Logger
}

// NewUseCase constructor. history puede ser nil.
func NewUseCase(orchestrator *Orchestrator, history repository.SubmissionRepository, log zerolog.Logger) *UseCase {
	return &UseCase{orchestrator: orchestrator, history: history, log: log}
}

// Submit ejecuta el envío. Un fallo al guardar historial se registra en log
// pero no cambia el resultado devuelto.
func (uc *UseCase) Submit(ctx context.Context, h entity.DocumentHeader, sink StatusSink) (*WorkflowResult, error) {
	res, err := uc.orchestrator.Submit(ctx, h, sink)

	ev := uc.log.Info()
	var serr *SubmissionError
	if errors.As(err, &serr) {
		ev = uc.log.Warn().Str("step", string(serr.Step)).Str("error_kind", string(serr.Classification.Kind))
	}
	ev.Str("run_id", res.RunID).
		Str("kind", string(res.Kind)).
		Str("document_id", res.DocumentID).
		Str("final_state", res.FinalState).
		Int("events", len(res.Events)).
		Msg("submission finished")

	if res.FinalState == entity.FinalStateDraft {
		uc.log.Warn().Str("run_id", res.RunID).Str("document_id", res.DocumentID).
			Msg("draft left in ERP without submit")
	}

	uc.record(ctx, h, res)
	return res, err
}

// Validation failures no se guardan: no llegaron a tocar el ERP.
func (uc *UseCase) record(ctx context.Context, h entity.DocumentHeader, res *WorkflowResult) {
	if uc.history == nil {
		return
	}
	if res.Failure != nil && res.Failure.Step == StepValidation {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()

	if err := uc.history.Save(saveCtx, res.Record(h)); err != nil {
		uc.log.Error().Err(err).Str("run_id", res.RunID).Msg("failed to save submission history")
	}
}
