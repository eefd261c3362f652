package erpnext

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError respuesta no exitosa del ERP. Message es el texto legible para el usuario,
// ya extraído del cuerpo; puede contener HTML, que el clasificador elimina.
type APIError struct {
	StatusCode int
	ExcType    string
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// NotFound indica un 404 del ERP.
func (e *APIError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

type errorBody struct {
	ServerMessages string          `json:"_server_messages"`
	Exception      string          `json:"exception"`
	ExcType        string          `json:"exc_type"`
	Message        json.RawMessage `json:"message"`
}

// maxRawMessage límite, en caracteres, del cuerpo crudo que se conserva como mensaje.
const maxRawMessage = 500

// newAPIError extrae el mensaje en este orden: _server_messages, exception, message, cuerpo crudo.
func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.ExcType = body.ExcType
		if msg := serverMessages(body.ServerMessages); msg != "" {
			apiErr.Message = msg
			return apiErr
		}
		if msg := exceptionMessage(body.Exception); msg != "" {
			apiErr.Message = msg
			return apiErr
		}
		var s string
		if err := json.Unmarshal(body.Message, &s); err == nil && s != "" {
			apiErr.Message = s
			return apiErr
		}
	}

	text := truncateRunes(strings.TrimSpace(string(raw)), maxRawMessage)
	if text == "" {
		text = http.StatusText(status)
	}
	if body.ExcType != "" && !strings.Contains(text, body.ExcType) {
		text = body.ExcType + ": " + text
	}
	apiErr.Message = fmt.Sprintf("%s (HTTP %d)", text, status)
	return apiErr
}

// serverMessages decodifica _server_messages: una lista JSON serializada cuyos
// elementos son a su vez objetos JSON serializados con la clave "message".
func serverMessages(s string) string {
	if s == "" {
		return ""
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return ""
	}
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		var m struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(item), &m); err == nil && m.Message != "" {
			msgs = append(msgs, m.Message)
			continue
		}
		if item != "" {
			msgs = append(msgs, item)
		}
	}
	return strings.Join(msgs, "; ")
}

// exceptionMessage quita el prefijo de clase ("frappe.exceptions.ValidationError: ...").
func exceptionMessage(exc string) string {
	exc = strings.TrimSpace(exc)
	if i := strings.Index(exc, ": "); i > 0 && !strings.Contains(exc[:i], " ") {
		return strings.TrimSpace(exc[i+2:])
	}
	return exc
}

// truncateRunes corta por caracteres para no partir una secuencia UTF-8.
func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
