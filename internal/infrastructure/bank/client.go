package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/application/settlement"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/pkg/config"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

var _ settlement.PayoutClient = (*Client)(nil)

// Client iniciador de transferencias a propietarios. Con Simulate activo no
// llama al banco: genera una referencia local, útil en entornos sin convenio
// bancario. En modo real hace POST al servicio de payouts configurado.
type Client struct {
	httpClient *http.Client
	cfg        config.BankConfig
	log        *logger.Logger
}

// NewClient construye el cliente de payouts.
func NewClient(cfg config.BankConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		cfg:        cfg,
		log:        log.WithComponent("bank"),
	}
}

type transferRequest struct {
	CBU       string `json:"cbu,omitempty"`
	BankAlias string `json:"bank_alias,omitempty"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Concept   string `json:"concept"`
}

type transferResponse struct {
	Reference string `json:"reference"`
}

// InitiateTransfer dispara la transferencia del neto liquidado al propietario.
func (c *Client) InitiateTransfer(ctx context.Context, owner *entity.Owner, amount decimal.Decimal, currency, period string) (*settlement.PayoutResult, error) {
	if c.cfg.Simulate {
		ref := "SIM-" + uuid.New().String()[:8]
		c.log.Info().
			Str("owner_id", owner.ID).
			Str("amount", amount.StringFixed(2)).
			Str("currency", currency).
			Str("period", period).
			Str("reference", ref).
			Msg("transferencia simulada")
		return &settlement.PayoutResult{Reference: ref}, nil
	}

	if owner.CBU == "" && owner.BankAlias == "" {
		return nil, fmt.Errorf("bank: propietario %s sin CBU ni alias", owner.ID)
	}

	payload, err := json.Marshal(transferRequest{
		CBU:       owner.CBU,
		BankAlias: owner.BankAlias,
		Amount:    amount.StringFixed(2),
		Currency:  currency,
		Concept:   "Liquidación alquileres " + period,
	})
	if err != nil {
		return nil, fmt.Errorf("bank: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/transfers", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("bank: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bank: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("bank: leer respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("bank: status %d: %s", resp.StatusCode, string(rawBody))
	}

	var parsed transferResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return nil, fmt.Errorf("bank: parsear respuesta: %w", err)
	}
	if parsed.Reference == "" {
		return nil, fmt.Errorf("bank: respuesta sin referencia: %s", string(rawBody))
	}
	return &settlement.PayoutResult{Reference: parsed.Reference}, nil
}
