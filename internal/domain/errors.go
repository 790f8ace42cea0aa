package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrNoUsageHistory     = errors.New("el artículo no tiene historial de consumo")
	ErrInsufficientData   = errors.New("datos insuficientes para entrenar el modelo")
	ErrMalformedTimestamp = errors.New("fecha de consumo con formato inválido")
	ErrStoreUnavailable   = errors.New("almacén de artículos no disponible")
)
