package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrDuplicate    = errors.New("registro duplicado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrUnavailable  = errors.New("servicio no disponible")
	ErrInvalidPDF   = errors.New("el archivo no es un PDF válido")
	ErrFileTooLarge = errors.New("file too large")
)
