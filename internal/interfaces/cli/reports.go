package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	appreports "github.com/tu-usuario/rentas-pro/internal/application/reports"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Genera reportes PDF por propietario",
	Long: `Genera el reporte mensual de facturación o el detalle de liquidación de
un propietario, en PDF, bajo el directorio de salida configurado.`,
	Example: `  rentas-jobs reports --type monthly --owner-id 9a2b... --month 2025-07
  rentas-jobs reports --type settlement --owner-id 9a2b... --month 2025-07`,
	RunE: runReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)

	reportsCmd.Flags().String("type", appreports.TypeMonthly, "Tipo de reporte: monthly o settlement")
	reportsCmd.Flags().String("owner-id", "", "ID de propietario (requerido)")
	reportsCmd.Flags().String("month", "", "Período YYYY-MM (requerido)")
	reportsCmd.Flags().Bool("dry-run", false, "Calcula sin renderizar ni escribir")
	_ = reportsCmd.MarkFlagRequired("owner-id")
	_ = reportsCmd.MarkFlagRequired("month")
}

func runReports(cmd *cobra.Command, args []string) error {
	reportType, _ := cmd.Flags().GetString("type")
	ownerID, _ := cmd.Flags().GetString("owner-id")
	period, _ := cmd.Flags().GetString("month")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if reportType != appreports.TypeMonthly && reportType != appreports.TypeSettlement {
		return fmt.Errorf("tipo de reporte desconocido %q (usar monthly o settlement)", reportType)
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	run, err := rt.jobLedger.Start(ctx, entity.JobTypeReports, map[string]string{
		"type": reportType, "owner_id": ownerID, "month": period,
	}, dryRun)
	if err != nil {
		return err
	}
	defer run.Close(ctx)

	var path string
	if reportType == appreports.TypeMonthly {
		path, err = rt.reportUseCase.GenerateMonthly(ctx, ownerID, period, dryRun)
	} else {
		path, err = rt.reportUseCase.GenerateSettlement(ctx, ownerID, period, dryRun)
	}
	if err != nil {
		_ = run.Fail(ctx, err.Error(), nil)
		return err
	}
	if path != "" {
		fmt.Println(path)
	}
	return run.Complete(ctx, entity.JobCounts{Total: 1, Processed: 1}, nil)
}
