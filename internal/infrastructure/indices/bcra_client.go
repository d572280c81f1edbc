package indices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/application/indices"
)

const bcraDateLayout = "2006-01-02"

// BCRAClient fuente de índices sobre la API de Estadísticas Monetarias v3.0
// del BCRA. Cada instancia cubre una variable: ICL (40) o IPC (27).
type BCRAClient struct {
	httpClient *http.Client
	baseURL    string
	variableID int
	indexType  string
}

// NewBCRAClient construye la fuente para una variable monetaria del BCRA.
func NewBCRAClient(baseURL string, variableID int, indexType string) *BCRAClient {
	return &BCRAClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		variableID: variableID,
		indexType:  indexType,
	}
}

func (c *BCRAClient) Name() string      { return "bcra" }
func (c *BCRAClient) IndexType() string { return c.indexType }

// ReportsVariation las variables monetarias del BCRA (ICL, IPC) son niveles.
func (c *BCRAClient) ReportsVariation() bool { return false }

type bcraSeriesResponse struct {
	Results []struct {
		Fecha string          `json:"fecha"`
		Valor decimal.Decimal `json:"valor"`
	} `json:"results"`
}

// FetchSeries puntos de la variable dentro de la ventana [start, end].
func (c *BCRAClient) FetchSeries(ctx context.Context, start, end time.Time) ([]*indices.IndexValue, error) {
	url := fmt.Sprintf("%s/estadisticas/v3.0/monetarias/%d?desde=%s&hasta=%s",
		c.baseURL, c.variableID,
		start.Format(bcraDateLayout), end.Format(bcraDateLayout))

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

	var parsed bcraSeriesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("bcra: parsear respuesta: %w", err)
	}

	points := make([]*indices.IndexValue, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		fecha, err := time.Parse(bcraDateLayout, r.Fecha)
		if err != nil {
			return nil, fmt.Errorf("bcra: fecha inválida %q: %w", r.Fecha, err)
		}
		published := fecha
		points = append(points, &indices.IndexValue{
			Period:      fecha,
			Value:       r.Valor,
			SourceURL:   url,
			PublishedAt: &published,
		})
	}
	return points, nil
}
