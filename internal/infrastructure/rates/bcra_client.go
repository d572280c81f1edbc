package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/application/rates"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

const bcraDateLayout = "2006-01-02"

// BCRARatesClient fuente de cotizaciones sobre la API de Estadísticas
// Cambiarias del BCRA. Cubre los pares divisa -> ARS (tipo de cambio
// minorista vendedor de la planilla diaria).
type BCRARatesClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewBCRARatesClient construye la fuente de cotizaciones del BCRA.
func NewBCRARatesClient(baseURL string) *BCRARatesClient {
	return &BCRARatesClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

func (c *BCRARatesClient) Name() string { return "bcra" }

// Supports pares divisa soportada -> ARS.
func (c *BCRARatesClient) Supports(from, to string) bool {
	return to == entity.CurrencyARS && from != entity.CurrencyARS && entity.IsSupportedCurrency(from)
}

type bcraCotizacionesResponse struct {
	Results []struct {
		Fecha   string `json:"fecha"`
		Detalle []struct {
			CodigoMoneda   string          `json:"codigoMoneda"`
			TipoCotizacion decimal.Decimal `json:"tipoCotizacion"`
		} `json:"detalle"`
	} `json:"results"`
}

// FetchRate cotización vigente del par a la fecha dada (última planilla
// publicada hasta esa fecha inclusive).
func (c *BCRARatesClient) FetchRate(ctx context.Context, from, to string, date time.Time) (*rates.RatePoint, error) {
	// Ventana corta hacia atrás para cubrir fines de semana y feriados.
	points, err := c.FetchRange(ctx, from, to, date.AddDate(0, 0, -7), date)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("bcra: sin planilla para %s/%s hasta %s: %w",
			from, to, date.Format(bcraDateLayout), domain.ErrCotizacionNoDisponible)
	}
	return points[len(points)-1], nil
}

// FetchRange serie diaria del par en la ventana [start, end].
func (c *BCRARatesClient) FetchRange(ctx context.Context, from, to string, start, end time.Time) ([]*rates.RatePoint, error) {
	if !c.Supports(from, to) {
		return nil, fmt.Errorf("bcra: par %s/%s: %w", from, to, domain.ErrMonedaNoSoportada)
	}
	url := fmt.Sprintf("%s/estadisticascambiarias/v1.0/Cotizaciones/%s?fechadesde=%s&fechahasta=%s",
		c.baseURL, from, start.Format(bcraDateLayout), end.Format(bcraDateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bcra: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bcra: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("bcra: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed bcraCotizacionesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("bcra: parsear respuesta: %w", err)
	}

	var points []*rates.RatePoint
	for _, r := range parsed.Results {
		fecha, err := time.Parse(bcraDateLayout, r.Fecha)
		if err != nil {
			return nil, fmt.Errorf("bcra: fecha inválida %q: %w", r.Fecha, err)
		}
		for _, d := range r.Detalle {
			if d.CodigoMoneda != from || d.TipoCotizacion.IsZero() {
				continue
			}
			points = append(points, &rates.RatePoint{
				From:   from,
				To:     to,
				Rate:   d.TipoCotizacion,
				Date:   fecha,
				Source: c.Name(),
			})
		}
	}
	return points, nil
}
