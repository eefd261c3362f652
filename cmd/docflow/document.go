package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jhoicas/docflow-erp/internal/application/dto"
	"github.com/jhoicas/docflow-erp/internal/application/intake"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
)

// readDocument lee el JSON con el mismo formato que el cuerpo de la API
// (SalesInvoiceRequest o PurchaseOrderRequest según kind).
func readDocument(kindFlag, path string) (entity.DocumentHeader, error) {
	kind, err := intake.ParseKind(kindFlag)
	if err != nil {
		return entity.DocumentHeader{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.DocumentHeader{}, fmt.Errorf("read %s: %w", path, err)
	}
	if kind == entity.KindPurchaseOrder {
		var in dto.PurchaseOrderRequest
		if err := json.Unmarshal(data, &in); err != nil {
			return entity.DocumentHeader{}, fmt.Errorf("parse %s: %w", path, err)
		}
		return in.ToHeader()
	}
	var in dto.SalesInvoiceRequest
	if err := json.Unmarshal(data, &in); err != nil {
		return entity.DocumentHeader{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return in.ToHeader()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
