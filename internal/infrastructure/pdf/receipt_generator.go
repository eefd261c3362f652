// Package pdf genera el comprobante PDF de una ejecución de envío al ERP.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tipo de documento + ID ERP  │  Estado + Fecha       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PARTES: Empresa / Cliente o Proveedor / Total               │
//	│  FALLO (si lo hubo): Paso + Categoría + Remediación          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Hora | Mensaje de estado                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el ID de ejecución                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorWarning = &props.Color{Red: 190, Green: 110, Blue: 0}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// ReceiptGenerator implementa history.ReceiptGenerator usando Maroto v2.
type ReceiptGenerator struct {
	appName string
}

// NewReceiptGenerator construye el generador.
func NewReceiptGenerator(appName string) *ReceiptGenerator {
	return &ReceiptGenerator{appName: appName}
}

// GenerateReceipt genera el PDF y devuelve sus bytes.
func (g *ReceiptGenerator) GenerateReceipt(_ context.Context, rec *entity.SubmissionRecord) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Submission receipt "+rec.ID, true).
		WithAuthor(nonEmpty(g.appName, "docflow-erp"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(rec))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(rec))
	if rec.ErrorKind != "" {
		m.AddRows(failureRows(rec)...)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(eventRows(rec.Events)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(rec))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: tipo + ID del documento (izq) y estado final + fecha (der).
func headerRow(rec *entity.SubmissionRecord) core.Row {
	stateColor := colorPrimary
	switch rec.FinalState {
	case entity.FinalStateFailed:
		stateColor = colorDanger
	case entity.FinalStateDraft:
		stateColor = colorWarning
	}

	return row.New(18).Add(
		col.New(7).Add(
			text.New(string(rec.Kind), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("ERP document: "+nonEmpty(rec.DocumentID, "not created"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("SUBMISSION RECEIPT", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(rec.FinalState, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7, Color: stateColor,
			}),
			text.New("Date: "+rec.CreatedAt.Format("2006-01-02 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func partiesRow(rec *entity.SubmissionRecord) core.Row {
	partyLabel := "CUSTOMER"
	if rec.Kind == entity.KindPurchaseOrder {
		partyLabel = "SUPPLIER"
	}
	block := func(label, value string, size int) core.Col {
		return col.New(size).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		)
	}
	return row.New(14).Add(
		block("COMPANY", rec.CompanyName, 4),
		block(partyLabel, rec.PartyName, 4),
		col.New(4).Add(
			text.New("TOTAL", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(rec.Total.StringFixed(2)+" "+rec.Currency, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 6,
			}),
		),
	)
}

// failureRows: paso, categoría y remediación del fallo.
func failureRows(rec *entity.SubmissionRecord) []core.Row {
	rows := []core.Row{
		row.New(7).Add(col.New(12).Add(
			text.New(fmt.Sprintf("FAILED AT %s (%s)", rec.FailedStep, rec.ErrorKind), props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorDanger, Top: 2,
			}),
		)),
	}
	for _, chunk := range splitEvery(rec.ErrorMessage, 110) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 7.5, Color: colorGray, Left: 2}),
		)))
	}
	if rec.Remediation != "" {
		for _, chunk := range splitEvery("Remediation: "+rec.Remediation, 110) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 7.5, Left: 2}),
			)))
		}
	}
	return rows
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Time", 2, align.Left),
		h("Status", 9, align.Left),
	)
}

// eventRows: una fila por evento de estado, en orden de secuencia.
func eventRows(events []entity.StatusEvent) []core.Row {
	result := make([]core.Row, 0, len(events))
	for _, ev := range events {
		result = append(result, row.New(6).Add(
			col.New(1).Add(text.New(fmt.Sprint(ev.Sequence), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(ev.Timestamp.Format("15:04:05"), props.Text{Size: 8, Top: 1, Left: 1, Color: colorGray})),
			col.New(9).Add(text.New(ev.Message, props.Text{Size: 8, Top: 1, Left: 1})),
		))
	}
	return result
}

// footerRow: QR con el ID de ejecución para buscarla en /api/submissions/{id}.
func footerRow(rec *entity.SubmissionRecord) core.Row {
	return row.New(30).Add(
		col.New(3).Add(code.NewQr(rec.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Run ID", props.Text{Style: fontstyle.Bold, Size: 8, Top: 4, Left: 3, Color: colorPrimary}),
			text.New(rec.ID, props.Text{Size: 8, Top: 10, Left: 3, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// splitEvery divide s en trozos de max n runas.
func splitEvery(s string, n int) []string {
	r := []rune(s)
	var parts []string
	for len(r) > n {
		parts = append(parts, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		parts = append(parts, string(r))
	}
	return parts
}
