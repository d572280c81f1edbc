package http

// ErrorResponse cuerpo de error estándar del API administrativo.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RegisterPaymentRequest alta de un pago confirmado por cobranzas.
type RegisterPaymentRequest struct {
	Amount string `json:"amount"`  // decimal como string, ej "150000.00"
	PaidAt string `json:"paid_at"` // YYYY-MM-DD; vacío = hoy
}
