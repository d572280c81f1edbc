package rates_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	infrarates "github.com/tu-usuario/rentas-pro/internal/infrastructure/rates"
)

// TestAwesomeAPI_FetchRate el endpoint last responde un objeto con clave por
// par; se toma el bid como cotización.
func TestAwesomeAPI_FetchRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/last/USD-BRL", r.URL.Path)
		_, _ = w.Write([]byte(`{"USDBRL":{"bid":"5.4321","timestamp":"1722470400"}}`))
	}))
	defer srv.Close()

	client := infrarates.NewAwesomeAPIClient(srv.URL)
	point, err := client.FetchRate(context.Background(), "USD", "BRL", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "5.4321", point.Rate.String())
	assert.Equal(t, "USD", point.From)
	assert.Equal(t, "BRL", point.To)
	assert.Equal(t, "awesomeapi", point.Source)
	assert.Equal(t, 2024, point.Date.Year())
}

// TestAwesomeAPI_FetchRange la API devuelve del más reciente al más antiguo;
// el cliente invierte a orden cronológico.
func TestAwesomeAPI_FetchRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"bid":"5.50","timestamp":"1722556800"},
			{"bid":"5.40","timestamp":"1722470400"}
		]`))
	}))
	defer srv.Close()

	client := infrarates.NewAwesomeAPIClient(srv.URL)
	points, err := client.FetchRange(context.Background(), "USD", "BRL",
		time.Date(2024, time.August, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.August, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.True(t, points[0].Date.Before(points[1].Date), "orden cronológico ascendente")
	assert.Equal(t, "5.4", points[0].Rate.String())
}

// TestAwesomeAPI_ParNoSoportado solo cubre USD/BRL.
func TestAwesomeAPI_ParNoSoportado(t *testing.T) {
	client := infrarates.NewAwesomeAPIClient("http://localhost:0")
	_, err := client.FetchRate(context.Background(), "EUR", "ARS", time.Now())
	assert.Error(t, err)
}

// TestAwesomeAPI_CotizacionCero un bid en cero se rechaza: persistirlo
// rompería los recíprocos.
func TestAwesomeAPI_CotizacionCero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"USDBRL":{"bid":"0","timestamp":"1722470400"}}`))
	}))
	defer srv.Close()

	client := infrarates.NewAwesomeAPIClient(srv.URL)
	_, err := client.FetchRate(context.Background(), "USD", "BRL", time.Now())
	assert.Error(t, err)
}
