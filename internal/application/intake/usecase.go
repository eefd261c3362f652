package intake

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/docflow-erp/internal/domain"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// DefaultMaxBytes límite de carga cuando no se configura otro (16 MiB).
const DefaultMaxBytes = 16 << 20

// ParseKind traduce el segmento de URL ("invoice", "po") al tipo de documento.
func ParseKind(s string) (entity.DocumentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invoice", "sales-invoice", "sales-invoices":
		return entity.KindSalesInvoice, nil
	case "po", "purchase-order", "purchase-orders":
		return entity.KindPurchaseOrder, nil
	}
	return "", fmt.Errorf("%w: unknown document kind %q", domain.ErrInvalidInput, s)
}

// Draft cabecera propuesta a partir del PDF, para que el usuario la revise antes de enviar.
type Draft struct {
	Header   entity.DocumentHeader
	Warnings []string
	Pages    int
	Filename string
}

// UseCase procesa la carga de un PDF.
type UseCase struct {
	extractor Extractor // nil = servicio de extracción no configurado
	inspector PDFInspector
	maxBytes  int
	log       zerolog.Logger
}

// NewUseCase constructor. maxBytes <= 0 usa DefaultMaxBytes.
func NewUseCase(extractor Extractor, inspector PDFInspector, maxBytes int, log zerolog.Logger) *UseCase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &UseCase{extractor: extractor, inspector: inspector, maxBytes: maxBytes, log: log}
}

// MaxBytes límite configurado, usado por el handler para cortar la lectura del cuerpo.
func (uc *UseCase) MaxBytes() int { return uc.maxBytes }

// Process valida el archivo, lo envía a extracción y normaliza el resultado.
// Nunca toca el ERP.
func (uc *UseCase) Process(ctx context.Context, kind entity.DocumentKind, filename string, content []byte) (*Draft, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: No file selected", domain.ErrInvalidInput)
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, fmt.Errorf("%w: Only PDF files are accepted", domain.ErrInvalidInput)
	}
	if len(content) > uc.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, uc.maxBytes)
	}

	pages := 0
	if uc.inspector != nil {
		n, err := uc.inspector.CountPages(content)
		if err != nil {
			return nil, err
		}
		pages = n
	}

	if uc.extractor == nil {
		return nil, fmt.Errorf("%w: extraction service is not configured", domain.ErrUnavailable)
	}
	raw, err := uc.extractor.Extract(ctx, kind, filepath.Base(filename), content)
	if err != nil {
		uc.log.Warn().Err(err).Str("kind", string(kind)).Msg("extraction failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	var (
		header   entity.DocumentHeader
		warnings []string
	)
	switch kind {
	case entity.KindSalesInvoice:
		header, warnings = NormalizeInvoice(raw)
	case entity.KindPurchaseOrder:
		header, warnings = NormalizePurchaseOrder(raw)
	default:
		return nil, errors.Join(domain.ErrInvalidInput, fmt.Errorf("unsupported kind %q", kind))
	}

	uc.log.Info().
		Str("kind", string(kind)).
		Int("pages", pages).
		Int("lines", len(header.Lines)).
		Int("warnings", len(warnings)).
		Msg("document extracted")

	return &Draft{Header: header, Warnings: warnings, Pages: pages, Filename: filepath.Base(filename)}, nil
}
