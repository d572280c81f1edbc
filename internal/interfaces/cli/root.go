package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "rentas-jobs",
	Short: "Motor de facturación y liquidaciones de alquileres",
	Long: `rentas-jobs ejecuta los ciclos batch del motor de facturación:
emisión mensual de facturas, barridos de mora y punitorios, recordatorios,
sincronización de índices y cotizaciones, liquidaciones a propietarios y
reportes PDF. También sirve el API administrativo de consulta (serve).

Cada corrida queda registrada en el ledger de jobs con sus contadores y
errores; un job del mismo tipo en estado running bloquea la corrida nueva.`,
	Version: version,
}

// Execute punto de entrada del binario.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
