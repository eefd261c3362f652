// Package erpnext implementa submission.ERPGateway sobre la API REST del ERP:
//
//	GET  /api/resource/{DocType}/{name}   consulta (404 = no existe)
//	POST /api/resource/{DocType}          creación (borrador para documentos)
//	PUT  /api/resource/{DocType}/{name}   actualización ({"docstatus": 1} para enviar)
//
// Las respuestas exitosas vienen envueltas en {"data": {...}}.
package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/docflow-erp/internal/application/submission"
	"github.com/jhoicas/docflow-erp/internal/domain/entity"
	"github.com/jhoicas/docflow-erp/pkg/config"
)

var _ submission.ERPGateway = (*Client)(nil)

const maxResponseBytes = 4 << 20

// Client cliente HTTP del ERP. Usa net/http de la stdlib, igual que el resto de adaptadores externos.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient construye el cliente. Sin APIKey las llamadas van sin cabecera Authorization
// (útil contra el ERP de pruebas local).
func NewClient(cfg config.ERPConfig, log zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// GetResource devuelve (nil, nil) cuando el ERP responde 404.
func (c *Client) GetResource(ctx context.Context, doctype, name string) (entity.Record, error) {
	rec, status, err := c.do(ctx, http.MethodGet, resourcePath(doctype, name), nil)
	if status == http.StatusNotFound {
		return nil, nil
	}
	return rec, err
}

// CreateResource crea un registro nuevo.
func (c *Client) CreateResource(ctx context.Context, doctype string, payload entity.Record) (entity.Record, error) {
	rec, _, err := c.do(ctx, http.MethodPost, resourcePath(doctype, ""), payload)
	return rec, err
}

// UpdateResource actualiza un registro existente.
func (c *Client) UpdateResource(ctx context.Context, doctype, name string, payload entity.Record) (entity.Record, error) {
	rec, _, err := c.do(ctx, http.MethodPut, resourcePath(doctype, name), payload)
	return rec, err
}

// Ping comprueba que el ERP responde (usado por /health).
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.do(ctx, http.MethodGet, "/api/method/ping", nil)
	return err
}

func resourcePath(doctype, name string) string {
	p := "/api/resource/" + url.PathEscape(doctype)
	if name != "" {
		p += "/" + url.PathEscape(name)
	}
	return p
}

type envelope struct {
	Data    entity.Record `json:"data"`
	Message any           `json:"message"`
}

// do ejecuta la petición. El status se devuelve también en caso de error HTTP para
// que el llamador distinga 404. Los errores de red se envuelven con %w y conservan *url.Error.
func (c *Client) do(ctx context.Context, method, path string, payload entity.Record) (entity.Record, int, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("erpnext: serializar payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("erpnext: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.apiKey, c.apiSecret))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("erp request failed")
		return nil, 0, fmt.Errorf("erpnext: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("erp request")
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("erpnext: leer respuesta: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, newAPIError(resp.StatusCode, raw)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("erpnext: respuesta no es JSON: %w", err)
		}
	}
	if env.Data == nil {
		env.Data = entity.Record{}
	}
	return env.Data, resp.StatusCode, nil
}
