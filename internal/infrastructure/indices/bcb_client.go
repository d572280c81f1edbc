package indices

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/application/indices"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

const (
	sgsSOAPAction = "getValoresSeriesXML"
	sgsNS         = "http://schemas.xmlsoap.org/soap/envelope/"
	sgsDateLayout = "02/01/2006"
)

// BCBClient fuente del IGP-M sobre el webservice SGS del Banco Central do
// Brasil (SOAP). La serie 189 publica la variación mensual del índice, no el
// nivel: el cliente la entrega cruda y declara ReportsVariation para que el
// syncer la encadene a nivel antes de persistir.
type BCBClient struct {
	httpClient *http.Client
	serviceURL string
	seriesID   int
}

// NewBCBClient construye la fuente SGS para la serie indicada.
func NewBCBClient(serviceURL string, seriesID int) *BCBClient {
	return &BCBClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		serviceURL: serviceURL,
		seriesID:   seriesID,
	}
}

func (c *BCBClient) Name() string      { return "bcb-sgs" }
func (c *BCBClient) IndexType() string { return entity.IndexTypeIGPM }

// ReportsVariation la serie 189 trae variación mensual (%), no nivel.
func (c *BCBClient) ReportsVariation() bool { return true }

type sgsEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	XmlnsS  string   `xml:"xmlns:soapenv,attr"`
	Body    sgsBody  `xml:"soapenv:Body"`
}

type sgsBody struct {
	Request sgsRequest `xml:"getValoresSeriesXML"`
}

type sgsRequest struct {
	Series     string `xml:"in0"`
	DataInicio string `xml:"in1"`
	DataFim    string `xml:"in2"`
}

// FetchSeries puntos de la serie dentro de la ventana [start, end].
func (c *BCBClient) FetchSeries(ctx context.Context, start, end time.Time) ([]*indices.IndexValue, error) {
	envelope := sgsEnvelope{
		XmlnsS: sgsNS,
		Body: sgsBody{Request: sgsRequest{
			Series:     fmt.Sprintf("%d", c.seriesID),
			DataInicio: start.Format(sgsDateLayout),
			DataFim:    end.Format(sgsDateLayout),
		}},
	}
	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("sgs: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL,
		bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("sgs: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", sgsSOAPAction)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sgs: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("sgs: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("sgs: leer respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sgs: status %d: %s", resp.StatusCode, string(rawBody))
	}
	return c.parseResponse(rawBody)
}

// parseResponse desempaqueta el envelope SOAP y la serie embebida. El SGS
// devuelve el XML de la serie escapado dentro de getValoresSeriesXMLReturn,
// por eso hay dos pasadas de parseo.
func (c *BCBClient) parseResponse(rawBody []byte) ([]*indices.IndexValue, error) {
	outer := etree.NewDocument()
	if err := outer.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("sgs: parsear envelope: %w", err)
	}
	if fault := outer.FindElement("//faultstring"); fault != nil {
		return nil, fmt.Errorf("sgs: SOAP Fault: %s", fault.Text())
	}
	ret := outer.FindElement("//getValoresSeriesXMLReturn")
	if ret == nil {
		return nil, fmt.Errorf("sgs: respuesta sin getValoresSeriesXMLReturn")
	}

	inner := etree.NewDocument()
	if err := inner.ReadFromString(ret.Text()); err != nil {
		return nil, fmt.Errorf("sgs: parsear serie embebida: %w", err)
	}

	var points []*indices.IndexValue
	for _, item := range inner.FindElements("//SERIE/ITEM") {
		dataEl := item.FindElement("DATA")
		valorEl := item.FindElement("VALOR")
		if dataEl == nil || valorEl == nil {
			continue
		}
		period, err := parseSGSPeriod(dataEl.Text())
		if err != nil {
			return nil, err
		}
		// El SGS usa coma decimal.
		valor, err := decimal.NewFromString(
			strings.ReplaceAll(strings.TrimSpace(valorEl.Text()), ",", "."))
		if err != nil {
			return nil, fmt.Errorf("sgs: valor inválido %q: %w", valorEl.Text(), err)
		}
		points = append(points, &indices.IndexValue{
			Period:    period,
			Value:     valor,
			SourceURL: c.serviceURL,
		})
	}
	return points, nil
}

// parseSGSPeriod acepta los dos formatos de fecha del SGS: mensual (M/YYYY)
// y diario (DD/MM/YYYY).
func parseSGSPeriod(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("1/2006", raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(sgsDateLayout, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("sgs: fecha inválida %q", raw)
}
