// Package pdfcheck comprueba que un archivo subido sea un PDF legible antes de
// reenviarlo al servicio de extracción.
package pdfcheck

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/jhoicas/docflow-erp/internal/domain"
)

// Checker implementa intake.PDFInspector.
type Checker struct{}

// NewChecker constructor.
func NewChecker() *Checker { return &Checker{} }

// CountPages abre el PDF desde memoria y devuelve su número de páginas. Cualquier fallo
// del parser (incluido un panic ante un archivo corrupto) se devuelve como domain.ErrInvalidPDF.
func (c *Checker) CountPages(data []byte) (pages int, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return 0, fmt.Errorf("%w: missing %%PDF header", domain.ErrInvalidPDF)
	}

	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("%w: %v", domain.ErrInvalidPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidPDF, err)
	}
	pages = reader.NumPage()
	if pages == 0 {
		return 0, fmt.Errorf("%w: no pages", domain.ErrInvalidPDF)
	}
	return pages, nil
}
