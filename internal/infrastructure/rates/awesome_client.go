package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/application/rates"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// AwesomeAPIClient fuente de cotizaciones sobre economia.awesomeapi.com.br.
// Cubre el par USD/BRL, que el BCRA no publica.
type AwesomeAPIClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAwesomeAPIClient construye la fuente AwesomeAPI.
func NewAwesomeAPIClient(baseURL string) *AwesomeAPIClient {
	return &AwesomeAPIClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

func (c *AwesomeAPIClient) Name() string { return "awesomeapi" }

// Supports solo el par USD/BRL.
func (c *AwesomeAPIClient) Supports(from, to string) bool {
	return from == entity.CurrencyUSD && to == entity.CurrencyBRL
}

type awesomeQuote struct {
	Bid       decimal.Decimal `json:"bid"`
	Timestamp string          `json:"timestamp"`
}

// FetchRate última cotización publicada del par.
func (c *AwesomeAPIClient) FetchRate(ctx context.Context, from, to string, date time.Time) (*rates.RatePoint, error) {
	if !c.Supports(from, to) {
		return nil, fmt.Errorf("awesomeapi: par %s/%s: %w", from, to, domain.ErrMonedaNoSoportada)
	}
	url := fmt.Sprintf("%s/json/last/%s-%s", c.baseURL, from, to)

	// El endpoint last responde un objeto con clave por par ("USDBRL").
	var parsed map[string]awesomeQuote
	if err := c.getJSON(ctx, url, &parsed); err != nil {
		return nil, err
	}
	quote, ok := parsed[from+to]
	if !ok {
		return nil, fmt.Errorf("awesomeapi: par %s/%s: %w", from, to, domain.ErrCotizacionNoDisponible)
	}
	point, err := c.toPoint(from, to, quote)
	if err != nil {
		return nil, err
	}
	return point, nil
}

// FetchRange serie diaria del par en la ventana [start, end].
func (c *AwesomeAPIClient) FetchRange(ctx context.Context, from, to string, start, end time.Time) ([]*rates.RatePoint, error) {
	if !c.Supports(from, to) {
		return nil, fmt.Errorf("awesomeapi: par %s/%s: %w", from, to, domain.ErrMonedaNoSoportada)
	}
	days := int(end.Sub(start).Hours()/24) + 1
	url := fmt.Sprintf("%s/json/daily/%s-%s/%d?start_date=%s&end_date=%s",
		c.baseURL, from, to, days,
		start.Format("20060102"), end.Format("20060102"))

	var parsed []awesomeQuote
	if err := c.getJSON(ctx, url, &parsed); err != nil {
		return nil, err
	}

	points := make([]*rates.RatePoint, 0, len(parsed))
	for _, quote := range parsed {
		point, err := c.toPoint(from, to, quote)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	// La API devuelve del más reciente al más antiguo; invertir a orden cronológico.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

func (c *AwesomeAPIClient) toPoint(from, to string, quote awesomeQuote) (*rates.RatePoint, error) {
	ts, err := strconv.ParseInt(quote.Timestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("awesomeapi: timestamp inválido %q: %w", quote.Timestamp, err)
	}
	if quote.Bid.IsZero() {
		return nil, fmt.Errorf("awesomeapi: cotización en cero para %s/%s", from, to)
	}
	return &rates.RatePoint{
		From:   from,
		To:     to,
		Rate:   quote.Bid,
		Date:   time.Unix(ts, 0).UTC(),
		Source: c.Name(),
	}, nil
}

func (c *AwesomeAPIClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("awesomeapi: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("awesomeapi: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("awesomeapi: status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(out); err != nil {
		return fmt.Errorf("awesomeapi: parsear respuesta: %w", err)
	}
	return nil
}
