package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del motor (lectura vía Viper desde env y
// opcionalmente archivo .env).
type Config struct {
	App     AppConfig
	DB      DBConfig
	JWT     JWTConfig
	HTTP    HTTPConfig
	Billing BillingConfig
	Indices IndicesConfig
	Rates   RatesConfig
	Reports ReportsConfig
	Bank    BankConfig
	ARCA    ARCAConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	userInfo := url.UserPassword(c.User, c.Password)

	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}

	return u.String()
}

// JWTConfig configuración de los tokens del API administrativo.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP administrativo (subcomando serve).
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BillingConfig parámetros de negocio del ciclo de facturación.
type BillingConfig struct {
	BaseCurrency          string  // moneda base de facturación (ARS)
	GraceDays             int     // días entre emisión y vencimiento
	LateFeeRate           float64 // % punitorio por defecto del barrido late-fees
	DefaultCommissionRate float64 // % comisión si ni propietario ni empresa definen una
	ReminderDaysBefore    int     // ventana por defecto de recordatorios
}

// IndicesConfig fuentes externas de índices de ajuste.
type IndicesConfig struct {
	BCRABaseURL   string // API de estadísticas monetarias del BCRA (ICL, IPC)
	ICLVariableID int    // id de serie ICL en el BCRA
	IPCVariableID int    // id de serie IPC en el BCRA
	BCBSGSURL     string // WS SOAP del SGS del Banco Central do Brasil (IGP-M)
	IGPMSeriesID  int    // código de serie IGP-M en el SGS
	MonthsBack    int    // meses hacia atrás a sincronizar por corrida
}

// RatesConfig fuentes externas de cotizaciones.
type RatesConfig struct {
	BCRACotizacionesURL string // API de cotizaciones del BCRA (pares contra ARS)
	AwesomeAPIBaseURL   string // AwesomeAPI economia (USD/BRL)
}

// ReportsConfig salida de reportes PDF.
type ReportsConfig struct {
	OutputDir string
}

// BankConfig cliente de iniciación de transferencias (payouts).
type BankConfig struct {
	BaseURL  string
	APIKey   string
	Simulate bool // true: no llama al banco, genera referencias simuladas
}

// ARCAConfig emisión de factura electrónica (colaborador externo).
// AppEnv "dev" no llama al WS: simula la autorización (mismo patrón que
// los ambientes de habilitación de ARCA/AFIP).
type ARCAConfig struct {
	AppEnv string // dev, test, prod
	CUIT   string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, BILLING_GRACE_DAYS, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "rentas-pro"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "rentas_pro"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "rentas-pro"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Billing: BillingConfig{
			BaseCurrency:          getString(v, "BILLING_BASE_CURRENCY", "ARS"),
			GraceDays:             getInt(v, "BILLING_GRACE_DAYS", 10),
			LateFeeRate:           getFloat(v, "BILLING_LATE_FEE_RATE", 5),
			DefaultCommissionRate: getFloat(v, "BILLING_DEFAULT_COMMISSION_RATE", 8),
			ReminderDaysBefore:    getInt(v, "BILLING_REMINDER_DAYS", 3),
		},
		Indices: IndicesConfig{
			BCRABaseURL:   getString(v, "INDICES_BCRA_URL", "https://api.bcra.gob.ar"),
			ICLVariableID: getInt(v, "INDICES_ICL_VARIABLE_ID", 40),
			IPCVariableID: getInt(v, "INDICES_IPC_VARIABLE_ID", 27),
			BCBSGSURL:     getString(v, "INDICES_BCB_SGS_URL", "https://www3.bcb.gov.br/wssgs/services/FachadaWSSGS"),
			IGPMSeriesID:  getInt(v, "INDICES_IGPM_SERIES_ID", 189),
			MonthsBack:    getInt(v, "INDICES_MONTHS_BACK", 12),
		},
		Rates: RatesConfig{
			BCRACotizacionesURL: getString(v, "RATES_BCRA_URL", "https://api.bcra.gob.ar"),
			AwesomeAPIBaseURL:   getString(v, "RATES_AWESOMEAPI_URL", "https://economia.awesomeapi.com.br"),
		},
		Reports: ReportsConfig{
			OutputDir: getString(v, "REPORTS_OUTPUT_DIR", "./reportes"),
		},
		Bank: BankConfig{
			BaseURL:  getString(v, "BANK_BASE_URL", ""),
			APIKey:   getString(v, "BANK_API_KEY", ""),
			Simulate: getBool(v, "BANK_SIMULATE", true),
		},
		ARCA: ARCAConfig{
			AppEnv: getString(v, "ARCA_APP_ENV", "dev"),
			CUIT:   getString(v, "ARCA_CUIT", ""),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			f, _ := strconv.ParseFloat(v.GetString(key), 64)
			return f
		default:
			return v.GetFloat64(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
