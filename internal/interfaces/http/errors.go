package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/docflow-erp/internal/application/dto"
	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/internal/domain"
	"github.com/jhoicas/docflow-erp/internal/domain/docflow"
)

// writeError traduce errores de aplicación a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	status, body := errorResponse(err)
	return c.Status(status).JSON(body)
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	var serr *submission.SubmissionError
	if errors.As(err, &serr) {
		return submissionErrorResponse(serr)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: detail(err, domain.ErrInvalidInput)}
	case errors.Is(err, domain.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge, dto.ErrorResponse{Code: "FILE_TOO_LARGE", Message: detail(err, domain.ErrFileTooLarge)}
	case errors.Is(err, domain.ErrInvalidPDF):
		return fiber.StatusUnprocessableEntity, dto.ErrorResponse{Code: "INVALID_PDF", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"}
	case errors.Is(err, domain.ErrUnavailable):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "UNAVAILABLE", Message: detail(err, domain.ErrUnavailable)}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
}

// submissionErrorResponse: validación local → 422; el ERP rechazó los datos → 422;
// ERP inalcanzable → 503; cualquier otra respuesta del ERP → 502.
// El cuerpo incluye el resultado parcial para que el cliente vea borradores abandonados.
func submissionErrorResponse(serr *submission.SubmissionError) (int, dto.ErrorResponse) {
	body := dto.ErrorResponse{
		Code:        string(serr.Classification.Kind),
		Message:     serr.Classification.Message,
		Step:        string(serr.Step),
		Remediation: serr.Classification.Remediation,
		Result:      dto.NewWorkflowResultResponse(serr.Result),
	}
	var verr *docflow.ValidationError
	if errors.As(serr, &verr) {
		body.Field = verr.Field
	}

	switch serr.Classification.Kind {
	case docflow.KindValidation, docflow.KindExchangeRateMissing,
		docflow.KindMandatoryFieldMissing, docflow.KindReferenceNotFound:
		return fiber.StatusUnprocessableEntity, body
	case docflow.KindConnectivity:
		return fiber.StatusServiceUnavailable, body
	}
	return fiber.StatusBadGateway, body
}

// detail quita el prefijo del sentinel ("entrada inválida: ") y deja el mensaje útil.
func detail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

var errInvalidBody = fmt.Errorf("%w: cuerpo inválido", domain.ErrInvalidInput)
