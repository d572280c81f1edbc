package cli

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Marca como vencidas las facturas pendientes con vencimiento pasado",
	Long: `Transiciona a overdue, en un solo UPDATE con guarda de estado, todas las
facturas issued/partially_paid con vencimiento anterior a hoy. Re-ejecutarlo
es idempotente. Envía el aviso de mora best-effort por factura.`,
	RunE: runOverdue,
}

var lateFeesCmd = &cobra.Command{
	Use:   "late-fees",
	Short: "Aplica punitorios a facturas vencidas sin recargo previo",
	Long: `Aplica el punitorio porcentual sobre el total de cada factura overdue con
late_fee = 0. La guarda del UPDATE garantiza a lo sumo una aplicación por
factura aunque el job se re-ejecute.`,
	RunE: runLateFees,
}

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Envía recordatorios de facturas próximas a vencer",
	RunE:  runReminders,
}

func init() {
	rootCmd.AddCommand(overdueCmd, lateFeesCmd, remindersCmd)

	overdueCmd.Flags().Bool("dry-run", false, "Cuenta sin transicionar")

	lateFeesCmd.Flags().Float64("rate", 0, "Tasa % del punitorio (default: la configurada)")
	lateFeesCmd.Flags().Bool("dry-run", false, "Calcula sin aplicar")

	remindersCmd.Flags().Int("days-before", 0, "Ventana de días antes del vencimiento (default: la configurada)")
	remindersCmd.Flags().Bool("dry-run", false, "Lista sin enviar")
}

func runOverdue(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	run, err := rt.jobLedger.Start(ctx, entity.JobTypeOverdue, nil, dryRun)
	if err != nil {
		return err
	}
	defer run.Close(ctx)

	report, err := rt.orchestrator.ProcessOverdue(ctx, dryRun)
	if err != nil {
		_ = run.Fail(ctx, err.Error(), nil)
		return err
	}
	return run.Complete(ctx, report.Counts(), report.Errors)
}

func runLateFees(cmd *cobra.Command, args []string) error {
	rate, _ := cmd.Flags().GetFloat64("rate")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	run, err := rt.jobLedger.Start(ctx, entity.JobTypeLateFees, nil, dryRun)
	if err != nil {
		return err
	}
	defer run.Close(ctx)

	report, err := rt.orchestrator.ProcessLateFees(ctx, decimal.NewFromFloat(rate), dryRun)
	if err != nil {
		_ = run.Fail(ctx, err.Error(), nil)
		return err
	}
	return run.Complete(ctx, report.Counts(), report.Errors)
}

func runReminders(cmd *cobra.Command, args []string) error {
	daysBefore, _ := cmd.Flags().GetInt("days-before")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	run, err := rt.jobLedger.Start(ctx, entity.JobTypeReminders, nil, dryRun)
	if err != nil {
		return err
	}
	defer run.Close(ctx)

	report, err := rt.orchestrator.ProcessReminders(ctx, daysBefore, dryRun)
	if err != nil {
		_ = run.Fail(ctx, err.Error(), nil)
		return err
	}
	return run.Complete(ctx, report.Counts(), report.Errors)
}
