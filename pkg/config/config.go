package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App        AppConfig
	HTTP       HTTPConfig
	DB         DBConfig
	JWT        JWTConfig
	ERP        ERPConfig
	Extraction ExtractionConfig
	Upload     UploadConfig
	Defaults   DefaultsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DBConfig configuración de PostgreSQL para el historial de envíos.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
}

// Enabled indica si hay base de datos configurada. Sin ella el historial se desactiva.
func (c DBConfig) Enabled() bool {
	return c.DatabaseURL != "" || c.Host != ""
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string con URL encoding para caracteres especiales en la contraseña.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// ERPConfig conexión a la API REST del ERP.
type ERPConfig struct {
	BaseURL        string // ej. http://localhost:8000 (sin /api)
	APIKey         string
	APISecret      string
	TimeoutSeconds int
}

// ExtractionConfig servicio externo que extrae campos de un PDF.
type ExtractionConfig struct {
	BaseURL        string // vacío = carga de PDFs deshabilitada
	TimeoutSeconds int
}

// UploadConfig límites de la carga de archivos.
type UploadConfig struct {
	MaxBytes int
}

// DefaultsConfig valores por defecto para crear datos maestros y documentos en el ERP.
type DefaultsConfig struct {
	Currency        string
	Country         string
	CustomerGroup   string
	SupplierGroup   string
	Territory       string
	ItemGroup       string
	StockUOM        string
	Warehouse       string
	ShippingAccount string
	TaxAccount      string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, ERP_BASE_URL, DB_HOST, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "docflow-erp"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 5000),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", ""),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "docflow"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			MaxConns:    getInt(v, "DB_MAX_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "docflow-erp"),
		},
		ERP: ERPConfig{
			BaseURL:        strings.TrimRight(getString(v, "ERP_BASE_URL", "http://localhost:8000"), "/"),
			APIKey:         getString(v, "ERP_API_KEY", ""),
			APISecret:      getString(v, "ERP_API_SECRET", ""),
			TimeoutSeconds: getInt(v, "ERP_TIMEOUT_SECONDS", 30),
		},
		Extraction: ExtractionConfig{
			BaseURL:        strings.TrimRight(getString(v, "EXTRACTION_BASE_URL", ""), "/"),
			TimeoutSeconds: getInt(v, "EXTRACTION_TIMEOUT_SECONDS", 60),
		},
		Upload: UploadConfig{
			MaxBytes: getInt(v, "UPLOAD_MAX_BYTES", 16*1024*1024),
		},
		Defaults: DefaultsConfig{
			Currency:        getString(v, "DEFAULT_CURRENCY", "USD"),
			Country:         getString(v, "DEFAULT_COUNTRY", "United States"),
			CustomerGroup:   getString(v, "DEFAULT_CUSTOMER_GROUP", "All Customer Groups"),
			SupplierGroup:   getString(v, "DEFAULT_SUPPLIER_GROUP", "All Supplier Groups"),
			Territory:       getString(v, "DEFAULT_TERRITORY", "All Territories"),
			ItemGroup:       getString(v, "DEFAULT_ITEM_GROUP", "All Item Groups"),
			StockUOM:        getString(v, "DEFAULT_STOCK_UOM", "Nos"),
			Warehouse:       getString(v, "DEFAULT_WAREHOUSE", ""),
			ShippingAccount: getString(v, "SHIPPING_ACCOUNT", ""),
			TaxAccount:      getString(v, "TAX_ACCOUNT", ""),
		},
	}

	if cfg.ERP.BaseURL == "" {
		return nil, fmt.Errorf("config: ERP_BASE_URL is required")
	}
	if cfg.ERP.TimeoutSeconds <= 0 {
		cfg.ERP.TimeoutSeconds = 30
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
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
