package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App  AppConfig
	HTTP HTTPConfig
	AFIP AFIPConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host      string
	Port      int
	JWTSecret string // vacío: /api/afipws sin autenticación
	JWTIssuer string
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AFIPConfig credenciales y endpoints del WSFEv1.
type AFIPConfig struct {
	CUIT         string // CUIT del emisor
	Production   bool   // entorno por defecto cuando el request no lo indica
	TAPathHomo   string // loginTicketResponse del WSAA para homologación
	TAPathProd   string // loginTicketResponse del WSAA para producción
	WSFEURLHomo  string
	WSFEURLProd  string
	Timeout      time.Duration
	RetryMax     int  // solo para operaciones de lectura
	SerializeNum bool // serializar autonumeración por (tipo, punto de venta)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Un .env en el directorio actual se carga primero si existe.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignoramos error si no existe

	v := viper.New()

	// Opcional: config.env
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "facturador-afip"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host:      getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:      getInt(v, "HTTP_PORT", getInt(v, "INSTANCE_PORT", 5000)),
			JWTSecret: getString(v, "JWT_SECRET", ""),
			JWTIssuer: getString(v, "JWT_ISSUER", "facturador-afip"),
		},
		AFIP: AFIPConfig{
			CUIT:         getString(v, "AFIP_CUIT", getString(v, "CUIT", "")),
			Production:   getBool(v, "AFIP_PRODUCTION", getBool(v, "PRODUCTION", false)),
			TAPathHomo:   getString(v, "AFIP_TA_PATH_HOMO", "cache/TA-homo.xml"),
			TAPathProd:   getString(v, "AFIP_TA_PATH_PROD", "cache/TA-prod.xml"),
			WSFEURLHomo:  getString(v, "AFIP_WSFE_URL_HOMO", ""),
			WSFEURLProd:  getString(v, "AFIP_WSFE_URL_PROD", ""),
			Timeout:      time.Duration(getInt(v, "AFIP_TIMEOUT_SECONDS", 60)) * time.Second,
			RetryMax:     getInt(v, "AFIP_RETRY_MAX", 2),
			SerializeNum: getBool(v, "AFIP_SERIALIZE_NUMBERING", true),
		},
	}

	if cfg.AFIP.CUIT == "" {
		return nil, fmt.Errorf("config: AFIP_CUIT (o CUIT) es obligatorio")
	}
	if cfg.AFIP.RetryMax < 0 {
		return nil, fmt.Errorf("config: AFIP_RETRY_MAX no puede ser negativo")
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
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
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

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
