package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	httpRouter "github.com/tu-usuario/rentas-pro/internal/interfaces/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta el API administrativo de consulta",
	Long: `Sirve el API HTTP de solo consulta sobre el ledger de jobs, liquidaciones
y facturas, más el registro manual de pagos. Autenticación por Bearer Token
JWT; el registro de pagos requiere rol admin u operador.`,
	Example: `  rentas-jobs serve
  HTTP_PORT=9090 rentas-jobs serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	rt.log.Info().
		Str("env", rt.cfg.App.Env).
		Str("addr", rt.cfg.HTTP.Addr()).
		Msg("iniciando API administrativo")

	app := fiber.New(fiber.Config{
		AppName:      rt.cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Jobs:        rt.jobsRepo,
		Settlements: rt.settlementRepo,
		Invoices:    rt.invoiceRepo,
		Ledger:      rt.invLedger,
		JWTSecret:   rt.cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(rt.cfg.HTTP.Addr()); err != nil {
			rt.log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	rt.log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		rt.log.Error().Err(err).Msg("apagado del servidor")
	}

	rt.log.Info().Msg("API administrativo detenido")
	return nil
}
