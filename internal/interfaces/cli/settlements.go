package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

var settlementsCmd = &cobra.Command{
	Use:   "process-settlements",
	Short: "Calcula y ejecuta las liquidaciones a propietarios",
	Long: `Agrega las facturas cobradas de cada propietario por período, deduce
comisión y retenciones e inicia la transferencia del neto. Una liquidación
ya completada para el par (propietario, período) no se reprocesa.

Sin --process la corrida solo calcula (no persiste ni transfiere); con
--process ejecuta el payout. Sin --owner-id procesa todos los pares con
facturas cobradas sin liquidar cuya fecha aplicable ya llegó.`,
	Example: `  # Corrida programada: ejecutar todos los pares pendientes
  rentas-jobs process-settlements --process

  # Calcular una liquidación puntual sin transferir
  rentas-jobs process-settlements --owner-id 9a2b... --period 2025-07`,
	RunE: runSettlements,
}

func init() {
	rootCmd.AddCommand(settlementsCmd)

	settlementsCmd.Flags().String("owner-id", "", "ID de propietario puntual")
	settlementsCmd.Flags().String("period", "", "Período YYYY-MM (requerido con --owner-id)")
	settlementsCmd.Flags().Bool("process", false, "Ejecuta el payout (default: solo calcula)")
	settlementsCmd.Flags().Bool("dry-run", false, "Sinónimo de no --process: calcula sin efectos")
}

func runSettlements(cmd *cobra.Command, args []string) error {
	ownerID, _ := cmd.Flags().GetString("owner-id")
	period, _ := cmd.Flags().GetString("period")
	process, _ := cmd.Flags().GetBool("process")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if ownerID != "" && period == "" {
		return fmt.Errorf("--owner-id requiere --period (YYYY-MM)")
	}
	// Sin --process (o con --dry-run explícito) la corrida es de cálculo puro.
	dryRun = dryRun || !process

	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	params := map[string]string{}
	if ownerID != "" {
		params["owner_id"] = ownerID
		params["period"] = period
	}

	run, err := rt.jobLedger.Start(ctx, entity.JobTypeProcessSettlements, params, dryRun)
	if err != nil {
		return err
	}
	defer run.Close(ctx)

	var pairs []repository.OwnerPeriod
	if ownerID != "" {
		pairs = []repository.OwnerPeriod{{OwnerID: ownerID, Period: period}}
	} else {
		pairs, err = rt.engine.GetPendingSettlements(ctx)
		if err != nil {
			_ = run.Fail(ctx, err.Error(), nil)
			return err
		}
	}

	counts := entity.JobCounts{Total: len(pairs)}
	var errLog []string
	for _, pair := range pairs {
		result, err := rt.engine.ProcessSettlement(ctx, pair.OwnerID, pair.Period, dryRun)
		if err != nil {
			counts.Failed++
			errLog = append(errLog, fmt.Sprintf("%s/%s: %v", pair.OwnerID, pair.Period, err))
			continue
		}
		if result.Skipped {
			counts.Skipped++
			continue
		}
		counts.Processed++
	}
	return run.Complete(ctx, counts, errLog)
}
