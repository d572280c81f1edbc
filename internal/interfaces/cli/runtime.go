package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/application/adjustment"
	"github.com/tu-usuario/rentas-pro/internal/application/billing"
	appindices "github.com/tu-usuario/rentas-pro/internal/application/indices"
	"github.com/tu-usuario/rentas-pro/internal/application/invoicing"
	"github.com/tu-usuario/rentas-pro/internal/application/jobs"
	apprates "github.com/tu-usuario/rentas-pro/internal/application/rates"
	"github.com/tu-usuario/rentas-pro/internal/application/reports"
	"github.com/tu-usuario/rentas-pro/internal/application/settlement"
	"github.com/tu-usuario/rentas-pro/internal/application/withholding"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/infrastructure/arca"
	"github.com/tu-usuario/rentas-pro/internal/infrastructure/bank"
	infraindices "github.com/tu-usuario/rentas-pro/internal/infrastructure/indices"
	"github.com/tu-usuario/rentas-pro/internal/infrastructure/notify"
	"github.com/tu-usuario/rentas-pro/internal/infrastructure/pdf"
	"github.com/tu-usuario/rentas-pro/internal/infrastructure/postgres"
	infrarates "github.com/tu-usuario/rentas-pro/internal/infrastructure/rates"
	"github.com/tu-usuario/rentas-pro/pkg/config"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// runtime dependencias compartidas de los subcomandos: pool, repos y servicios
// ya cableados. Se construye una vez por invocación del binario.
type runtime struct {
	cfg  *config.Config
	log  *logger.Logger
	pool *pgxpool.Pool

	jobsRepo        *postgres.BillingJobRepo
	invoiceRepo     *postgres.InvoiceRepo
	leaseRepo       *postgres.LeaseRepo
	settlementRepo  *postgres.SettlementRepo
	companyRepo     *postgres.CompanyRepo
	ownerRepo       *postgres.OwnerRepo
	indexRepo       *postgres.IndexRepo
	rateRepo        *postgres.ExchangeRateRepo

	jobLedger     *jobs.Ledger
	invLedger     *invoicing.Ledger
	orchestrator  *billing.Orchestrator
	engine        *settlement.Engine
	indexSyncer   *appindices.Syncer
	rateResolver  *apprates.Resolver
	reportUseCase *reports.UseCase
}

// newRuntime carga config, abre el pool y cablea todos los componentes.
// El caller debe diferir close().
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}

	r := &runtime{
		cfg:  cfg,
		log:  log,
		pool: pool,

		jobsRepo:       postgres.NewBillingJobRepository(pool),
		invoiceRepo:    postgres.NewInvoiceRepository(pool),
		leaseRepo:      postgres.NewLeaseRepository(pool),
		settlementRepo: postgres.NewSettlementRepository(pool),
		companyRepo:    postgres.NewCompanyRepository(pool),
		ownerRepo:      postgres.NewOwnerRepository(pool),
		indexRepo:      postgres.NewIndexRepository(pool),
		rateRepo:       postgres.NewExchangeRateRepository(pool),
	}

	r.jobLedger = jobs.NewLedger(r.jobsRepo, log)
	r.invLedger = invoicing.NewLedger(r.invoiceRepo, r.leaseRepo, log)

	adjCalc := adjustment.NewCalculator(r.indexRepo, log)
	whCalc := withholding.NewCalculator(r.companyRepo, r.ownerRepo, log)

	r.rateResolver = apprates.NewResolver(r.rateRepo, []apprates.RateSource{
		infrarates.NewBCRARatesClient(cfg.Rates.BCRACotizacionesURL),
		infrarates.NewAwesomeAPIClient(cfg.Rates.AwesomeAPIBaseURL),
	}, log)

	r.indexSyncer = appindices.NewSyncer(r.indexRepo, []appindices.IndexSource{
		infraindices.NewBCRAClient(cfg.Indices.BCRABaseURL, cfg.Indices.ICLVariableID, entity.IndexTypeICL),
		infraindices.NewBCRAClient(cfg.Indices.BCRABaseURL, cfg.Indices.IPCVariableID, entity.IndexTypeIPC),
		infraindices.NewBCBClient(cfg.Indices.BCBSGSURL, cfg.Indices.IGPMSeriesID),
	}, cfg.Indices.MonthsBack, log)

	notifier := notify.NewLogNotifier(log)

	r.orchestrator = billing.NewOrchestrator(
		r.invLedger, adjCalc, r.rateResolver, whCalc,
		r.companyRepo, r.leaseRepo, r.invoiceRepo,
		postgres.NewTxRunner(pool),
		arca.NewEmitter(cfg.ARCA, log),
		notifier,
		billing.Config{
			BaseCurrency: cfg.Billing.BaseCurrency,
			GraceDays:    cfg.Billing.GraceDays,
			LateFeeRate:  decimal.NewFromFloat(cfg.Billing.LateFeeRate),
			ReminderDays: cfg.Billing.ReminderDaysBefore,
		},
		log,
	)

	r.engine = settlement.NewEngine(
		r.invoiceRepo, r.settlementRepo, r.ownerRepo, r.companyRepo,
		bank.NewClient(cfg.Bank, log),
		notifier,
		settlement.Config{
			DefaultCommissionRate: decimal.NewFromFloat(cfg.Billing.DefaultCommissionRate),
			BaseCurrency:          cfg.Billing.BaseCurrency,
		},
		log,
	)

	r.reportUseCase = reports.NewUseCase(
		r.invoiceRepo, r.settlementRepo, r.ownerRepo, r.engine,
		pdf.NewMarotoRenderer(), cfg.Reports.OutputDir, log,
	)

	return r, nil
}

func (r *runtime) close() {
	if r.pool != nil {
		r.pool.Close()
	}
}
