// Package extraction es el adaptador HTTP hacia el servicio de extracción de documentos:
// recibe un PDF por multipart y devuelve los campos detectados como JSON.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/docflow-erp/internal/application/intake"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
	"github.com/jhoicas/docflow-erp/pkg/config"
)

// Verificar en tiempo de compilación que Client implementa intake.Extractor.
var _ intake.Extractor = (*Client)(nil)

// Client usa net/http de la librería estándar; el servicio no tiene SDK.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient construye el adaptador. Con BaseURL vacío devuelve nil: la carga de PDFs queda deshabilitada.
func NewClient(cfg config.ExtractionConfig, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Extract envía el archivo a /upload/invoice o /upload/po y devuelve el JSON decodificado.
// Los números se conservan como json.Number para no perder precisión.
func (c *Client) Extract(ctx context.Context, kind entity.DocumentKind, filename string, content []byte) (map[string]any, error) {
	endpoint := "/upload/invoice"
	if kind == entity.KindPurchaseOrder {
		endpoint = "/upload/po"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("extraction: crear multipart: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("extraction: escribir archivo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("extraction: cerrar multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("extraction: crear request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("extraction: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("extraction: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("extraction: leer respuesta: %w", err)
	}
	c.log.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("extraction request")

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("extraction: HTTP %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("extraction: HTTP %d", resp.StatusCode)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("extraction: respuesta no es JSON: %w", err)
	}
	return out, nil
}
