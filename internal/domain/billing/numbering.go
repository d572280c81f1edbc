package billing

import "fmt"

// FormatInvoiceNumber arma el número legible de factura: año y secuencial
// por propietario dentro de ese año, con relleno a 5 dígitos.
// Ej: la factura 42 del 2025 de un propietario -> "2025-00042".
func FormatInvoiceNumber(year int, seq int64) string {
	return fmt.Sprintf("%d-%05d", year, seq)
}
