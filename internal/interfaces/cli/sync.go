package cli

import (
	"context"

	"github.com/spf13/cobra"
	appindices "github.com/tu-usuario/rentas-pro/internal/application/indices"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

var syncIndicesCmd = &cobra.Command{
	Use:   "sync-indices",
	Short: "Sincroniza las series de índices de ajuste (ICL, IPC, IGP-M)",
	Long: `Refresca la tabla de índices desde las fuentes externas: ICL e IPC desde
la API de estadísticas del BCRA, IGP-M desde el SGS del Banco Central do
Brasil. Cada punto se normaliza al primer día del mes y se upsertea por
(tipo, período): el re-sync es idempotente y la falla de una fuente no
aborta a las demás.`,
	Example: `  rentas-jobs sync-indices
  rentas-jobs sync-indices --index icl`,
	RunE: runSyncIndices,
}

var syncRatesCmd = &cobra.Command{
	Use:   "sync-rates",
	Short: "Sincroniza las cotizaciones de divisas del mes corrido",
	Long: `Refresca la tabla de cotizaciones: pares contra ARS desde el BCRA y
USD/BRL desde AwesomeAPI. Upsert por (par, fecha, fuente); la falla de un
par se acumula y no frena a los demás.`,
	RunE: runSyncRates,
}

func init() {
	rootCmd.AddCommand(syncIndicesCmd, syncRatesCmd)

	syncIndicesCmd.Flags().String("index", appindices.SyncAll, "Serie a sincronizar: icl, igpm, ipc o all")
}

func runSyncIndices(cmd *cobra.Command, args []string) error {
	which, _ := cmd.Flags().GetString("index")

	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	run, err := rt.jobLedger.Start(ctx, entity.JobTypeSyncIndices, map[string]string{"index": which}, false)
	if err != nil {
		return err
	}
	defer run.Close(ctx)

	result := rt.indexSyncer.Sync(ctx, which)
	counts := entity.JobCounts{
		Total:     result.Synced + len(result.Errors),
		Processed: result.Synced,
		Failed:    len(result.Errors),
	}
	return run.Complete(ctx, counts, result.Errors)
}

func runSyncRates(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	run, err := rt.jobLedger.Start(ctx, entity.JobTypeExchangeRates, nil, false)
	if err != nil {
		return err
	}
	defer run.Close(ctx)

	result := rt.rateResolver.SyncRates(ctx)
	counts := entity.JobCounts{
		Total:     result.Synced + len(result.Errors),
		Processed: result.Synced,
		Failed:    len(result.Errors),
	}
	return run.Complete(ctx, counts, result.Errors)
}
