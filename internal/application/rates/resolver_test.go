package rates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/rentas-pro/internal/application/rates"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

type fakeRateRepo struct {
	cached   map[string]*entity.ExchangeRate // clave from+to
	upserted []*entity.ExchangeRate
}

func (f *fakeRateRepo) Upsert(ctx context.Context, rate *entity.ExchangeRate) error {
	f.upserted = append(f.upserted, rate)
	return nil
}

func (f *fakeRateRepo) GetLatestAtOrBefore(ctx context.Context, from, to string, date time.Time) (*entity.ExchangeRate, error) {
	return f.cached[from+to], nil
}

// fakeSource fuente de cotizaciones configurable por campos función.
type fakeSource struct {
	name      string
	supports  func(from, to string) bool
	fetchRate func(from, to string, date time.Time) (*rates.RatePoint, error)
	fetchHits int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Supports(from, to string) bool { return f.supports(from, to) }

func (f *fakeSource) FetchRate(ctx context.Context, from, to string, date time.Time) (*rates.RatePoint, error) {
	f.fetchHits++
	return f.fetchRate(from, to, date)
}

func (f *fakeSource) FetchRange(ctx context.Context, from, to string, start, end time.Time) ([]*rates.RatePoint, error) {
	p, err := f.fetchRate(from, to, end)
	if err != nil {
		return nil, err
	}
	return []*rates.RatePoint{p}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

func usdArsSource(rate string) *fakeSource {
	return &fakeSource{
		name: "bcra",
		supports: func(from, to string) bool {
			return from == entity.CurrencyUSD && to == entity.CurrencyARS
		},
		fetchRate: func(from, to string, date time.Time) (*rates.RatePoint, error) {
			return &rates.RatePoint{
				From: from, To: to,
				Rate:   decimal.RequireFromString(rate),
				Date:   date,
				Source: "bcra",
			}, nil
		},
	}
}

// TestConvertAmount_MismaMoneda par idéntico convierte con tasa 1 sin tocar
// caché ni fuentes.
func TestConvertAmount_MismaMoneda(t *testing.T) {
	repo := &fakeRateRepo{cached: map[string]*entity.ExchangeRate{}}
	r := rates.NewResolver(repo, nil, testLogger())

	conv, err := r.ConvertAmount(context.Background(), decimal.NewFromInt(1000), "ARS", "ARS", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "1000.00", conv.Amount.StringFixed(2))
	assert.Equal(t, "1", conv.Rate.String())
	assert.Empty(t, repo.upserted)
}

// TestConvertAmount_CacheFirst con la cotización cacheada no se llama a la
// fuente externa.
func TestConvertAmount_CacheFirst(t *testing.T) {
	date := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRateRepo{cached: map[string]*entity.ExchangeRate{
		"USDARS": {FromCurrency: "USD", ToCurrency: "ARS", Rate: decimal.RequireFromString("1250.50"), RateDate: date},
	}}
	src := usdArsSource("9999")
	r := rates.NewResolver(repo, []rates.RateSource{src}, testLogger())

	conv, err := r.ConvertAmount(context.Background(), decimal.NewFromInt(800), "USD", "ARS", date)
	require.NoError(t, err)
	assert.Equal(t, "1000400.00", conv.Amount.StringFixed(2), "800 * 1250.50 redondeado a centavos")
	assert.Equal(t, 0, src.fetchHits, "con caché no se toca la fuente")
}

// TestConvertAmount_MissConsultaYPersiste ante un miss se consulta la fuente
// y se upsertea el punto antes de devolver.
func TestConvertAmount_MissConsultaYPersiste(t *testing.T) {
	repo := &fakeRateRepo{cached: map[string]*entity.ExchangeRate{}}
	src := usdArsSource("1300")
	r := rates.NewResolver(repo, []rates.RateSource{src}, testLogger())

	conv, err := r.ConvertAmount(context.Background(), decimal.NewFromInt(100), "USD", "ARS", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "130000.00", conv.Amount.StringFixed(2))
	assert.Equal(t, 1, src.fetchHits)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, "bcra", repo.upserted[0].Source)
}

// TestGetRate_ParInverso sin fuente directa ARS->USD se usa la fuente
// USD->ARS y se persiste el recíproco con sufijo de fuente.
func TestGetRate_ParInverso(t *testing.T) {
	repo := &fakeRateRepo{cached: map[string]*entity.ExchangeRate{}}
	src := usdArsSource("1250")
	r := rates.NewResolver(repo, []rates.RateSource{src}, testLogger())

	rate, err := r.GetRate(context.Background(), "ARS", "USD", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0.0008", rate.String(), "recíproco de 1250 a 8 decimales")
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, "ARS", repo.upserted[0].FromCurrency)
	assert.Equal(t, "USD", repo.upserted[0].ToCurrency)
	assert.Equal(t, "bcra-inverso", repo.upserted[0].Source)
}

// TestGetRate_MonedaNoSoportada códigos fuera del conjunto cerrado fallan
// antes de tocar caché o fuentes.
func TestGetRate_MonedaNoSoportada(t *testing.T) {
	repo := &fakeRateRepo{cached: map[string]*entity.ExchangeRate{}}
	r := rates.NewResolver(repo, nil, testLogger())

	_, err := r.GetRate(context.Background(), "CLP", "ARS", time.Now())
	assert.ErrorIs(t, err, domain.ErrMonedaNoSoportada)
}

// TestGetRate_SinFuente par soportado pero sin fuente configurada devuelve
// cotización no disponible.
func TestGetRate_SinFuente(t *testing.T) {
	repo := &fakeRateRepo{cached: map[string]*entity.ExchangeRate{}}
	r := rates.NewResolver(repo, nil, testLogger())

	_, err := r.GetRate(context.Background(), "EUR", "ARS", time.Now())
	assert.ErrorIs(t, err, domain.ErrCotizacionNoDisponible)
}

// TestSyncRates_FallaParcial el error de un par se acumula y no frena a los
// demás: los pares con fuente sincronizan igual.
func TestSyncRates_FallaParcial(t *testing.T) {
	repo := &fakeRateRepo{cached: map[string]*entity.ExchangeRate{}}
	broken := &fakeSource{
		name: "bcra",
		supports: func(from, to string) bool {
			return to == entity.CurrencyARS && from == entity.CurrencyEUR
		},
		fetchRate: func(from, to string, date time.Time) (*rates.RatePoint, error) {
			return nil, errors.New("timeout")
		},
	}
	r := rates.NewResolver(repo, []rates.RateSource{usdArsSource("1250"), broken}, testLogger())

	result := r.SyncRates(context.Background())
	assert.Equal(t, 1, result.Synced, "USD/ARS sincroniza")
	assert.NotEmpty(t, result.Errors, "EUR/ARS falla y BRL/ARS y USD/BRL no tienen fuente")
	assert.Len(t, repo.upserted, 1)
}
