package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tu-usuario/rentas-pro/internal/application/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Ejecuta el ciclo de facturación de contratos",
	Long: `Selecciona los contratos activos con facturación vencida para la fecha
dada, calcula ajuste de alquiler, conversión de moneda y retenciones, emite la
factura y avanza los trackers del contrato. Las fallas por contrato se
acumulan sin abortar la corrida.`,
	Example: `  # Facturar todo lo vencido a hoy
  rentas-jobs billing

  # Facturar un contrato puntual en una fecha dada, sin persistir
  rentas-jobs billing --date 2025-07-01 --lease-id 5f1c... --dry-run`,
	RunE: runBilling,
}

func init() {
	rootCmd.AddCommand(billingCmd)

	billingCmd.Flags().String("date", "", "Fecha de facturación (YYYY-MM-DD, default: hoy)")
	billingCmd.Flags().String("lease-id", "", "ID de contrato puntual (default: todos los vencidos)")
	billingCmd.Flags().Bool("dry-run", false, "Calcula sin persistir ni emitir")
}

func runBilling(cmd *cobra.Command, args []string) error {
	dateStr, _ := cmd.Flags().GetString("date")
	leaseID, _ := cmd.Flags().GetString("lease-id")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	var date time.Time
	if dateStr != "" {
		var err error
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fmt.Errorf("formato de fecha inválido, usar YYYY-MM-DD: %w", err)
		}
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	params := map[string]string{}
	if dateStr != "" {
		params["date"] = dateStr
	}
	if leaseID != "" {
		params["lease_id"] = leaseID
	}

	run, err := rt.jobLedger.Start(ctx, entity.JobTypeBilling, params, dryRun)
	if err != nil {
		return err
	}
	defer run.Close(ctx)

	report, err := rt.orchestrator.RunBilling(ctx, billing.Params{
		Date:    date,
		LeaseID: leaseID,
		DryRun:  dryRun,
	})
	if err != nil {
		_ = run.Fail(ctx, err.Error(), nil)
		return err
	}
	return run.Complete(ctx, report.Counts(), report.Errors)
}
