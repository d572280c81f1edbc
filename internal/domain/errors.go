package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrJobEnCurso             = errors.New("ya hay un job del mismo tipo en ejecución")
	ErrMonedaNoSoportada      = errors.New("moneda no soportada")
	ErrCotizacionNoDisponible = errors.New("cotización no disponible")
	ErrIndiceNoDisponible     = errors.New("índice no disponible para el período")
	ErrLiquidacionCerrada     = errors.New("la liquidación ya fue completada")
)
