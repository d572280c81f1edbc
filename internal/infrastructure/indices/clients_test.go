package indices_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	infraindices "github.com/tu-usuario/rentas-pro/internal/infrastructure/indices"
)

// TestBCRA_FetchSeries parseo de la API de Estadísticas Monetarias v3.0:
// puntos {fecha, valor} dentro de la ventana pedida.
func TestBCRA_FetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/estadisticas/v3.0/monetarias/40", r.URL.Path)
		assert.Equal(t, "2025-01-01", r.URL.Query().Get("desde"))
		_, _ = w.Write([]byte(`{"results":[
			{"fecha":"2025-06-01","valor":1150.23},
			{"fecha":"2025-07-01","valor":1200.45}
		]}`))
	}))
	defer srv.Close()

	client := infraindices.NewBCRAClient(srv.URL, 40, entity.IndexTypeICL)
	values, err := client.FetchSeries(context.Background(),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "1200.45", values[1].Value.String())
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), values[1].Period)
	require.NotNil(t, values[1].PublishedAt)
	assert.Equal(t, entity.IndexTypeICL, client.IndexType())
}

// TestBCRA_StatusNoOK un status distinto de 200 es error con el cuerpo en el
// mensaje.
func TestBCRA_StatusNoOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "variable inexistente", http.StatusNotFound)
	}))
	defer srv.Close()

	client := infraindices.NewBCRAClient(srv.URL, 999, entity.IndexTypeIPC)
	_, err := client.FetchSeries(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	assert.Error(t, err)
}

// Respuesta real del SGS: la serie viene como XML escapado dentro del
// envelope SOAP, con fechas mensuales M/YYYY y coma decimal.
const sgsResponse = `<?xml version="1.0" encoding="ISO-8859-1"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <ns1:getValoresSeriesXMLResponse xmlns:ns1="https://www3.bcb.gov.br/wssgs/services/FachadaWSSGS">
      <getValoresSeriesXMLReturn>&lt;?xml version="1.0" encoding="ISO-8859-1"?&gt;&lt;SERIES&gt;&lt;SERIE ID="189"&gt;&lt;ITEM&gt;&lt;DATA&gt;6/2025&lt;/DATA&gt;&lt;VALOR&gt;0,32&lt;/VALOR&gt;&lt;/ITEM&gt;&lt;ITEM&gt;&lt;DATA&gt;7/2025&lt;/DATA&gt;&lt;VALOR&gt;-0,15&lt;/VALOR&gt;&lt;/ITEM&gt;&lt;/SERIE&gt;&lt;/SERIES&gt;</getValoresSeriesXMLReturn>
    </ns1:getValoresSeriesXMLResponse>
  </soapenv:Body>
</soapenv:Envelope>`

const sgsFault = `<?xml version="1.0" encoding="ISO-8859-1"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>soapenv:Server</faultcode>
      <faultstring>Value(s) not found</faultstring>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`

// TestBCB_FetchSeries desempaqueta las dos pasadas de XML del SGS y convierte
// la coma decimal.
func TestBCB_FetchSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "getValoresSeriesXML", r.Header.Get("SOAPAction"))
		_, _ = w.Write([]byte(sgsResponse))
	}))
	defer srv.Close()

	client := infraindices.NewBCBClient(srv.URL, 189)
	values, err := client.FetchSeries(context.Background(),
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "0.32", values[0].Value.String())
	assert.Equal(t, "-0.15", values[1].Value.String())
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), values[1].Period)
	assert.Equal(t, entity.IndexTypeIGPM, client.IndexType())
}

// TestBCB_SOAPFault un SOAP Fault del SGS se devuelve como error legible.
func TestBCB_SOAPFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sgsFault))
	}))
	defer srv.Close()

	client := infraindices.NewBCBClient(srv.URL, 189)
	_, err := client.FetchSeries(context.Background(), time.Now().AddDate(0, -2, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Value(s) not found")
}
