// Package intake convierte un PDF subido en una cabecera de documento editable:
// valida el archivo, lo envía al servicio de extracción y reconcilia los nombres de campo.
package intake

import (
	"context"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// Extractor puerto hacia el servicio de extracción (implementado por extraction.Client).
type Extractor interface {
	Extract(ctx context.Context, kind entity.DocumentKind, filename string, content []byte) (map[string]any, error)
}

// PDFInspector comprueba que el contenido sea un PDF legible (implementado por pdfcheck.Checker).
type PDFInspector interface {
	CountPages(data []byte) (int, error)
}
